package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/widgetgen/internal/pipeline"
)

var graphCmd = &cobra.Command{
	Use:   "graph <input>",
	Short: "Print the generated class hierarchy in Graphviz DOT format",
	Long: `Graph classifies every object header under <input> without writing any
files and prints the resulting class hierarchy (derives and includes edges)
as a DOT graph.

Example:
  widgetgen graph lvgl/src | dot -Tsvg > classes.svg`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)
}

func runGraph(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := cfg.ToPipelineOptions("")
	opts.DryRun = true

	runner, err := pipeline.NewRunner(opts, nil)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}
	defer runner.Close()

	result, err := runner.Run(ctx, args[0])
	if err != nil {
		return err
	}

	h, err := result.Hierarchy()
	if err != nil {
		return fmt.Errorf("failed to build class hierarchy: %w", err)
	}
	return h.DOT(cmd.OutOrStdout())
}
