package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"cbmdisk/diskimage"
	"cbmdisk/geometry"
)

var createFormat string
var createID string

var createCmd = &cobra.Command{
	Use:                   "create FILE LABEL",
	Short:                 "Create a blank CBM disk image",
	Long:                  `Creates a blank, BAM-initialized CBM disk image whose geometry is chosen by the --format flag or FILE's extension.`,
	Args:                  cobra.ExactArgs(2),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		filename, label := args[0], args[1]

		g, ok := resolveFormat(createFormat, filename)
		if !ok {
			fmt.Printf("Unsupported format: '%s'\n", createFormat)
			os.Exit(1)
		}

		img, err := diskimage.Create(filename, g, label, createID)
		if err != nil {
			fmt.Println("Create error!")
			fmt.Println(err)
			os.Exit(1)
		}
		if err := img.Save(""); err != nil {
			fmt.Println("Save error!")
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Created %s (%d blocks free)\n", filename, img.BlocksFree())
	},
}

func init() {
	createCmd.Flags().StringVarP(&createFormat, "format", "f", "", `Drive format (D64, D71, D81, D67, D80, D82, D93, D96, D99), default: file extension`)
	createCmd.Flags().StringVarP(&createID, "id", "i", "01", `Two-character disk ID`)
	rootCmd.AddCommand(createCmd)
}

// resolveFormat picks a geometry by an explicit --format flag name, falling
// back to filename's extension the same way diskimage.Load does.
func resolveFormat(format, filename string) (geometry.Geometry, bool) {
	if format != "" {
		return geometry.SelectByExtension("x." + strings.ToUpper(format))
	}
	return geometry.SelectByExtension(filename)
}
