package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cbmdisk/diskimage"
)

var renameCmd = &cobra.Command{
	Use:                   "rename IMAGE OLDNAME NEWNAME",
	Short:                 "Rename a stored file",
	Long:                  `Renames OLDNAME to NEWNAME within IMAGE and saves the result.`,
	Args:                  cobra.ExactArgs(3),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		imagePath, oldName, newName := args[0], args[1], args[2]

		img, err := diskimage.Load(imagePath)
		if err != nil {
			fmt.Println("Image read error!")
			fmt.Println(err)
			os.Exit(1)
		}

		if err := img.RenameFile(oldName, newName); err != nil {
			fmt.Println("Rename error!")
			fmt.Println(err)
			os.Exit(1)
		}

		if err := img.Save(""); err != nil {
			fmt.Println("Save error!")
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Renamed %s to %s\n", oldName, newName)
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
