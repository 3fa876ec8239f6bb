package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/drawbridge/pkg/convert"
)

// sniffCommand creates the sniff command for diagram type detection.
func (c *CLI) sniffCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sniff [file]",
		Short: "Detect the diagram type of a source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readSource(args[0])
			if err != nil {
				return err
			}
			diagramType, err := convert.Sniff(text)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), diagramType)
			return nil
		},
	}
}
