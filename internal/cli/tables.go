package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	hanparse "github.com/DevHeauk/han-parse"
	"github.com/DevHeauk/han-parse/codec"
)

type tablesFlags struct {
	flat bool
	out  string
}

// NewTablesCommand builds `hanparse tables <file>`.
func NewTablesCommand() *cobra.Command {
	flags := &tablesFlags{}
	cmd := &cobra.Command{
		Use:   "tables <file>",
		Short: "Export the document's tables",
		Long: `Export tables in the structured JSON form (default, written to stdout or
--out), or as a flat CSV file set with --flat, one CSV per table plus an
index.json, written into the --out directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := hanparse.Open(args[0]).Document()
			if err != nil {
				return err
			}
			for _, w := range doc.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}

			if flags.flat {
				if flags.out == "" {
					return fmt.Errorf("--flat requires --out <dir>")
				}
				files, err := codec.EncodeFlat(doc.Tables)
				if err != nil {
					return err
				}
				if err := os.MkdirAll(flags.out, 0o755); err != nil {
					return err
				}
				for name, content := range files {
					if err := os.WriteFile(filepath.Join(flags.out, name), content, 0o644); err != nil {
						return err
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d files to %s\n", len(files), flags.out)
				return nil
			}

			data, err := codec.EncodeStructured(doc.Tables)
			if err != nil {
				return err
			}
			if flags.out != "" {
				return os.WriteFile(flags.out, data, 0o644)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	cmd.Flags().BoolVar(&flags.flat, "flat", false, "export one CSV per table plus index.json")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "", "output file (structured) or directory (flat)")
	return cmd
}
