package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	hanparse "github.com/DevHeauk/han-parse"
)

type editFlags struct {
	table int
	row   int
	col   int
	value string
	out   string
}

// NewEditCommand builds `hanparse edit <file>`.
func NewEditCommand() *cobra.Command {
	flags := &editFlags{}
	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Replace one table cell and rebuild the document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := hanparse.Parse(data)
			if err != nil {
				return err
			}
			if err := doc.Tables.Edit(flags.table, flags.row, flags.col, flags.value); err != nil {
				return err
			}

			out, err := hanparse.Reconstruct(doc.Tables, data)
			if err != nil {
				return err
			}

			dest := flags.out
			if dest == "" {
				dest = args[0]
			}
			if err := os.WriteFile(dest, out, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", dest)
			return nil
		},
	}
	cmd.Flags().IntVar(&flags.table, "table", 0, "table index")
	cmd.Flags().IntVar(&flags.row, "row", 0, "row index")
	cmd.Flags().IntVar(&flags.col, "col", 0, "column index")
	cmd.Flags().StringVar(&flags.value, "value", "", "replacement cell text")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "output file (default: overwrite input)")
	cmd.MarkFlagRequired("value")
	return cmd
}
