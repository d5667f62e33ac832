// Package cmd is the thin demonstration CLI wrapping the diskimage/geometry
// core, explicitly out of scope as a product per spec.md §1, kept only to
// match the teacher's own cmd/ layout: one cobra.Command per file, each
// registering itself onto a parent command from its own init().
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cbmtool",
	Short: "Inspect and mutate Commodore (CBM) floppy-disk images",
	Long: `cbmtool reads, creates and mutates CBM floppy-disk image files
(D64/D71/D81/D67/D40/D80/D82/D93/D96/D99, and the X64 container).`,
}

// Execute runs the root command. It is the single entry point main() calls.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
