package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cbmdisk/diskimage"
)

var mkdirCmd = &cobra.Command{
	Use:                   "mkdir IMAGE NAME",
	Short:                 "Create a subdirectory entry in a CBM disk image",
	Long:                  `Allocates a subdirectory entry (file type DIR) and its single back-referencing data block.`,
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		imagePath, name := args[0], args[1]

		img, err := diskimage.Load(imagePath)
		if err != nil {
			fmt.Println("Image read error!")
			fmt.Println(err)
			os.Exit(1)
		}

		if err := img.Mkdir(name); err != nil {
			fmt.Println("Mkdir error!")
			fmt.Println(err)
			os.Exit(1)
		}

		if err := img.Save(""); err != nil {
			fmt.Println("Save error!")
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Created subdirectory %s\n", name)
	},
}

func init() {
	rootCmd.AddCommand(mkdirCmd)
}
