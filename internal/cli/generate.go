package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/widgetgen/internal/config"
	"github.com/mvp-joe/widgetgen/internal/discovery"
	"github.com/mvp-joe/widgetgen/internal/pipeline"
	"github.com/mvp-joe/widgetgen/internal/report"
	"github.com/mvp-joe/widgetgen/internal/watcher"
)

var (
	quietFlag    bool
	watchFlag    bool
	workersFlag  int
	reportDBFlag string
	extFlag      string
)

var generateCmd = &cobra.Command{
	Use:   "generate <input> [output]",
	Short: "Generate C++ wrapper classes for every object header under <input>",
	Long: `Generate walks <input>, parses every candidate header, classifies the
declared functions into constructor, deleter and methods, and writes one
C++ class per object type into [output] (default: output.dir from the
configuration).

Files that fail to parse or have no create function are reported and
skipped; they never stop the run.

Examples:
  # Generate classes for the lvgl source tree
  widgetgen generate lvgl/src generated

  # Regenerate whenever a header changes
  widgetgen generate lvgl/src generated --watch

  # Keep a queryable report of every run
  widgetgen generate lvgl/src --report-db .widgetgen/report.db
`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	generateCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch for header changes and regenerate")
	generateCmd.Flags().IntVar(&workersFlag, "workers", 0, "Number of parse workers (default: config, then one per CPU)")
	generateCmd.Flags().StringVar(&reportDBFlag, "report-db", "", "SQLite file to store the run report in")
	generateCmd.Flags().StringVar(&extFlag, "ext", "", "Artifact file extension (default: config, then hpp)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("workers") {
		cfg.Workers = workersFlag
	}
	if extFlag != "" {
		cfg.Output.Extension = extFlag
	}
	if reportDBFlag != "" {
		cfg.Output.ReportDB = reportDBFlag
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	input := args[0]
	output := ""
	if len(args) > 1 {
		output = args[1]
	}

	opts := cfg.ToPipelineOptions(output)
	if verbose && !quietFlag {
		log.Printf("Generating from %s into %s (%d workers)\n", input, opts.OutputDir, opts.Workers)
	}

	var progress pipeline.ProgressReporter = NewCLIProgressReporter(quietFlag)
	runner, err := pipeline.NewRunner(opts, progress)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}
	defer runner.Close()

	var store *report.Store
	if cfg.Output.ReportDB != "" {
		if store, err = report.Open(cfg.Output.ReportDB); err != nil {
			return err
		}
		defer store.Close()
	}

	g := &generation{runner: runner, store: store, input: input}
	if err := g.run(ctx); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("generation cancelled")
		}
		return err
	}
	if !watchFlag {
		return nil
	}
	return g.watch(ctx, cfg)
}

// generation runs the pipeline and records each result.
type generation struct {
	runner *pipeline.Runner
	store  *report.Store
	input  string
	mu     sync.Mutex
}

func (g *generation) run(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	result, err := g.runner.Run(ctx, g.input)
	if result != nil {
		logOutcomes(result)
		if g.store != nil {
			if serr := g.store.Save(result.Report()); serr != nil {
				log.Printf("Warning: failed to save report: %v", serr)
			} else if verbose && !quietFlag {
				log.Printf("Report saved as run %s\n", result.RunID)
			}
		}
	}
	return err
}

func (g *generation) watch(ctx context.Context, cfg *config.Config) error {
	match, err := discovery.New(g.input, cfg.Paths.Include, cfg.Paths.Ignore)
	if err != nil {
		return fmt.Errorf("invalid path patterns: %w", err)
	}
	fw, err := watcher.New(g.input, match)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer fw.Stop()

	err = fw.Start(ctx, func(files []string) {
		fw.Pause()
		defer fw.Resume()

		if !quietFlag {
			log.Printf("%d header(s) changed, regenerating...\n", len(files))
		}
		if err := g.run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Warning: regeneration failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	if !quietFlag {
		log.Printf("Watching %s for changes (Ctrl+C to stop)\n", g.input)
	}
	<-ctx.Done()
	if !quietFlag {
		log.Println("Watch mode stopped")
	}
	return nil
}

// logOutcomes prints one warning per file that did not generate. Errored
// files are always reported; skips only in verbose mode.
func logOutcomes(result *pipeline.Result) {
	for _, out := range result.Outcomes {
		switch out.Status {
		case report.StatusErrored:
			log.Printf("Warning: %s: %s", out.Path, out.Reason)
		case report.StatusSkipped:
			if verbose {
				log.Printf("Warning: skipped %s: %s", out.Path, out.Reason)
			}
		}
	}
	if quietFlag {
		fmt.Println(result.Summary())
	}
}
