package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	hanparse "github.com/DevHeauk/han-parse"
)

// NewReconstructCommand builds `hanparse reconstruct <tables.json> <template>`.
func NewReconstructCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "reconstruct <tables.json> <template>",
		Short: "Write edited tables back into a template document",
		Long: "Reconstruct takes tables previously exported with `tables` (structured\n" +
			"JSON form, possibly edited) and patches their text back into the document\n" +
			"they came from. The template's structure must match the table shapes.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			set, err := hanparse.DecodeStructured(encoded)
			if err != nil {
				return err
			}
			template, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			patched, err := hanparse.Reconstruct(set, template)
			if err != nil {
				return err
			}

			dest := out
			if dest == "" {
				dest = args[1]
			}
			if err := os.WriteFile(dest, patched, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", dest)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: overwrite template)")
	return cmd
}
