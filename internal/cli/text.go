package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	hanparse "github.com/DevHeauk/han-parse"
)

// NewTextCommand builds `hanparse text <file>`.
func NewTextCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "text <file>",
		Short: "Print the document's paragraph text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := hanparse.Open(args[0]).Document()
			if err != nil {
				return err
			}
			for _, w := range doc.Warnings {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
			}
			fmt.Fprintln(cmd.OutOrStdout(), doc.Text())
			return nil
		},
	}
}
