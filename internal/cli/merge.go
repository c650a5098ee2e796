package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DevHeauk/han-parse/codec"
	"github.com/DevHeauk/han-parse/model"
)

// NewMergeCommand builds `hanparse merge <a.json> <b.json>`.
func NewMergeCommand() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "merge <a.json> <b.json>",
		Short: "Concatenate two structured table exports",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets := make([]*model.TableSet, 2)
			for i, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				sets[i], err = codec.DecodeStructured(data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
			}

			merged, err := codec.EncodeStructured(model.Merge(sets[0], sets[1]))
			if err != nil {
				return err
			}
			if out != "" {
				return os.WriteFile(out, merged, 0o644)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(merged))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}
