package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cbmdisk/diskimage"
)

var dirCmd = &cobra.Command{
	Use:                   "dir FILE",
	Short:                 "List the directory of a CBM disk image",
	Long:                  `Loads a CBM disk image and prints its directory listing and free block count.`,
	Args:                  cobra.ExactArgs(1),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		img, err := diskimage.Load(args[0])
		if err != nil {
			fmt.Println("Image read error!")
			fmt.Println(err)
			os.Exit(1)
		}

		h := img.Header()
		fmt.Printf("0 \"%-16s\" %s %s\n", h.Label, h.ID, string(h.DOSType[:]))
		for _, e := range img.Dir() {
			if !e.Active() {
				continue
			}
			fmt.Printf("%-5d %-16q\n", e.Blocks, e.Name)
		}
		fmt.Printf("%d blocks free.\n", img.BlocksFree())

		for _, d := range img.Diagnostics() {
			fmt.Fprintf(os.Stderr, "warning: %s: %s\n", d.Code, d.Message)
		}
	},
}

func init() {
	rootCmd.AddCommand(dirCmd)
}
