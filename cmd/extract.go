package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cbmdisk/diskimage"
)

var extractDir string

var extractCmd = &cobra.Command{
	Use:                   "extract FILE NAME",
	Short:                 "Extract a stored file from a CBM disk image",
	Long:                  `Loads a CBM disk image and writes NAME's contents to an external file, timestamped per spec.md §4.9.`,
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		filename, name := args[0], args[1]

		img, err := diskimage.Load(filename)
		if err != nil {
			fmt.Println("Image read error!")
			fmt.Println(err)
			os.Exit(1)
		}

		idx := img.FindFile(name)
		if idx < 0 {
			fmt.Printf("File not found: %s\n", name)
			os.Exit(1)
		}

		out, err := img.ReadStoreProgramByIndex(idx, extractDir)
		if err != nil {
			fmt.Println("Extract error!")
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Extracted to %s\n", out)
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractDir, "output-dir", "o", ".", `Directory to write the extracted file into`)
	rootCmd.AddCommand(extractCmd)
}
