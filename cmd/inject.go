package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"cbmdisk/diskimage"
)

var injectType string

var injectCmd = &cobra.Command{
	Use:                   "inject IMAGE SOURCE NAME",
	Short:                 "Inject a file into a CBM disk image",
	Long:                  `Reads SOURCE from the host filesystem and writes it into IMAGE under NAME, allocating BAM blocks and a directory entry.`,
	Args:                  cobra.ExactArgs(3),
	DisableFlagsInUseLine: true,
	Run: func(cmd *cobra.Command, args []string) {
		imagePath, sourcePath, name := args[0], args[1], args[2]

		img, err := diskimage.Load(imagePath)
		if err != nil {
			fmt.Println("Image read error!")
			fmt.Println(err)
			os.Exit(1)
		}

		data, err := os.ReadFile(sourcePath)
		if err != nil {
			fmt.Println("Source read error!")
			fmt.Println(err)
			os.Exit(1)
		}

		now := time.Now()
		fileType := fileTypeFromFlag(injectType)
		if err := img.WriteProgram(data, name, fileType,
			byte(now.Year()-1900), byte(now.Month()), byte(now.Day()), byte(now.Hour()), byte(now.Minute())); err != nil {
			fmt.Println("Inject error!")
			fmt.Println(err)
			os.Exit(1)
		}

		if err := img.Save(""); err != nil {
			fmt.Println("Save error!")
			fmt.Println(err)
			os.Exit(1)
		}
		fmt.Printf("Injected %s as %s (%d blocks free)\n", sourcePath, name, img.BlocksFree())
	},
}

func init() {
	injectCmd.Flags().StringVarP(&injectType, "type", "t", "PRG", `File type: DEL, SEQ, PRG, USR, REL, CBM, DIR`)
	rootCmd.AddCommand(injectCmd)
}

func fileTypeFromFlag(t string) byte {
	switch t {
	case "DEL":
		return diskimage.TypeDEL
	case "SEQ":
		return diskimage.TypeSEQ
	case "USR":
		return diskimage.TypeUSR
	case "REL":
		return diskimage.TypeREL
	case "CBM":
		return diskimage.TypeCBM
	case "DIR":
		return diskimage.TypeDIR
	default:
		return diskimage.TypePRG
	}
}
