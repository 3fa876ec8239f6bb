package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/drawbridge/pkg/convert"
)

// typesCommand creates the types command listing registered diagram types.
func (c *CLI) typesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the registered diagram types",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, t := range convert.Types() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	}
}
