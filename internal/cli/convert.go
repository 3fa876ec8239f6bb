package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/drawbridge/pkg/convert"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	output      string  // output file path, derived from input when empty
	diagramType string  // diagram type, sniffed from the source when empty
	theme       string  // stylesheet family override
	scale       float64 // uniform zoom factor
	stdout      bool    // write the document to stdout instead of a file
}

// convertCommand creates the convert command for single conversions.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a diagram source into a draw.io document",
		Long:  `Convert reads a diagram-language source file (or stdin with "-"), renders it through the configured rendering service, and writes an editable draw.io document.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input with .drawio extension)")
	cmd.Flags().StringVarP(&opts.diagramType, "type", "t", "", "diagram type (default: sniffed from the source)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "stylesheet family: default, dark, neutral")
	cmd.Flags().Float64Var(&opts.scale, "scale", 0, "uniform zoom factor (clamped to configured bounds)")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "write the document to stdout")

	return cmd
}

func (c *CLI) runConvert(cmd *cobra.Command, input string, opts *convertOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	text, err := readSource(input)
	if err != nil {
		return err
	}

	runner, pool, err := c.newRunner(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	defer runner.Cache.Close()

	sp := newSpinner(cmd.Context(), "Converting "+input)
	sp.Start()
	res, err := runner.Convert(cmd.Context(), convert.Source{
		Text:        text,
		DiagramType: opts.diagramType,
		Name:        input,
	}, convert.Options{Theme: opts.theme, Scale: opts.scale, NoCache: c.noCache})
	sp.Stop()
	if err != nil {
		return err
	}

	if opts.stdout {
		_, err := os.Stdout.Write(res.Document)
		return err
	}

	out := outputPath(input, opts.output)
	if err := writeDocument(out, res.Document); err != nil {
		return err
	}

	printSuccess("Converted %s (%s)", input, res.DiagramType)
	printStats(res.Stats.Nodes, res.Stats.Edges, res.CacheInfo.DocumentHit)
	for _, w := range res.Warnings {
		printWarning("%s", w)
	}
	printFile(out)
	return nil
}
