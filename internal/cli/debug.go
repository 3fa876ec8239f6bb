package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/drawbridge/pkg/convert"
	"github.com/matzehuels/drawbridge/pkg/semantic"
)

// debugCommand creates the debug command group.
func (c *CLI) debugCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debug",
		Short: "Inspect intermediate pipeline artifacts",
	}
	cmd.AddCommand(c.debugDotCommand())
	return cmd
}

// debugDotCommand creates "debug dot", which converts a source and dumps
// the classified semantic graph as DOT (or a graphviz-rendered SVG).
func (c *CLI) debugDotCommand() *cobra.Command {
	var (
		diagramType string
		detailed    bool
		asSVG       bool
		output      string
	)

	cmd := &cobra.Command{
		Use:   "dot [file]",
		Short: "Dump the classified semantic graph as DOT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			text, err := readSource(args[0])
			if err != nil {
				return err
			}
			runner, pool, err := c.newRunner(cfg)
			if err != nil {
				return err
			}
			defer pool.Close()
			defer runner.Cache.Close()

			// Bypass the document cache so the graph is always materialized.
			res, err := runner.Convert(cmd.Context(), convert.Source{
				Text:        text,
				DiagramType: diagramType,
				Name:        args[0],
			}, convert.Options{NoCache: true})
			if err != nil {
				return err
			}

			dot := semantic.ToDOT(res.Graph, semantic.DOTOptions{Detailed: detailed})
			data := []byte(dot)
			if asSVG {
				data, err = semantic.RenderDOTSVG(cmd.Context(), dot)
				if err != nil {
					return err
				}
			}

			if output == "" {
				fmt.Fprint(cmd.OutOrStdout(), string(data))
				return nil
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			printSuccess("Wrote %s graph debug output", res.DiagramType)
			printFile(output)
			if n := len(res.Warnings); n > 0 {
				printDetail("%d warnings: %s", n, strings.Join(res.Warnings, "; "))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&diagramType, "type", "t", "", "diagram type (default: sniffed)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include geometry and style detail")
	cmd.Flags().BoolVar(&asSVG, "svg", false, "render the DOT graph to SVG via graphviz")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}
