// Package cli implements the hanparse command line interface.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand builds the hanparse command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hanparse",
		Short: "Extract, edit, and rebuild tables in HWP and HWPX documents",
		Long: `hanparse reads Hangul word processor documents, extracts their text and
tables into editable forms, and writes edited tables back into the
original file without disturbing the rest of the document.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.AddCommand(
		NewTextCommand(),
		NewTablesCommand(),
		NewEditCommand(),
		NewMergeCommand(),
		NewReconstructCommand(),
		NewServeCommand(),
	)
	return cmd
}
