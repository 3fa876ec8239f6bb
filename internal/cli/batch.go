package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/drawbridge/pkg/convert"
)

// batchOpts holds the command-line flags for the batch command.
type batchOpts struct {
	outputDir string // directory for converted documents
	theme     string // stylesheet family override
	plain     bool   // disable the interactive progress UI
}

// batchCommand creates the batch command for converting many sources at
// once.
func (c *CLI) batchCommand() *cobra.Command {
	var opts batchOpts

	cmd := &cobra.Command{
		Use:   "batch [files...]",
		Short: "Convert multiple diagram sources concurrently",
		Long:  `Batch converts every given source file, bounded by the configured concurrency limit. Each file succeeds or fails on its own; a failed file never aborts the rest.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBatch(cmd, args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputDir, "output-dir", "o", "", "directory for converted documents (default: next to each input)")
	cmd.Flags().StringVar(&opts.theme, "theme", "", "stylesheet family: default, dark, neutral")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "disable the interactive progress display")

	return cmd
}

func (c *CLI) runBatch(cmd *cobra.Command, files []string, opts *batchOpts) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	sources := make([]convert.Source, len(files))
	for i, f := range files {
		text, err := readSource(f)
		if err != nil {
			return err
		}
		sources[i] = convert.Source{Text: text, Name: f}
	}

	runner, pool, err := c.newRunner(cfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	defer runner.Cache.Close()

	convOpts := convert.Options{Theme: opts.theme, NoCache: c.noCache}

	var summary *convert.BatchSummary
	if opts.plain {
		summary = runner.ConvertMany(cmd.Context(), sources, convOpts)
	} else {
		summary, err = runBatchUI(cmd.Context(), runner, sources, convOpts)
		if err != nil {
			return err
		}
	}

	written := 0
	for _, item := range summary.Items {
		if item.Result == nil {
			continue
		}
		out := outputPath(item.Name, "")
		if opts.outputDir != "" {
			out = filepath.Join(opts.outputDir, filepath.Base(out))
		}
		if err := writeDocument(out, item.Result.Document); err != nil {
			printError("write %s: %v", out, err)
			continue
		}
		written++
	}

	printBatchSummary(summary, written)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d conversions failed", summary.Failed, len(summary.Items))
	}
	return nil
}

// printBatchSummary prints the per-item outcomes and totals.
func printBatchSummary(summary *convert.BatchSummary, written int) {
	for _, item := range summary.Items {
		if item.Success {
			var warn string
			if item.Result != nil && len(item.Result.Warnings) > 0 {
				warn = StyleWarning.Render(fmt.Sprintf(" (%d warnings)", len(item.Result.Warnings)))
			}
			printSuccess("%s (%s)%s", item.Name, item.DiagramType, warn)
			continue
		}
		printError("%s: %s", item.Name, item.Message)
		if item.Stage != "" {
			printDetail("stage: %s, code: %s", item.Stage, item.Code)
		}
	}
	printDetail("%d succeeded, %d failed, %d files written (%s)",
		summary.Succeeded, summary.Failed, written, summary.Duration.Round(time.Millisecond))
}
