package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/widgetgen/internal/report"
)

var (
	inspectRunFlag  string
	inspectDBFlag   string
	inspectListFlag bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print a stored generation report as a tree",
	Long: `Inspect reads the report database written by "generate --report-db" and
prints, for each object type, its status and the functions, typedefs,
dropped declarations and diagnostics found in its header.

Without --run the most recent run is shown.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectRunFlag, "run", "", "Run ID to show (default: latest)")
	inspectCmd.Flags().StringVar(&inspectDBFlag, "report-db", "", "SQLite report file (default: output.report_db from the configuration)")
	inspectCmd.Flags().BoolVar(&inspectListFlag, "list", false, "List recorded runs instead of printing one")
}

func runInspect(cmd *cobra.Command, args []string) error {
	dbPath := inspectDBFlag
	if dbPath == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dbPath = cfg.Output.ReportDB
	}
	if dbPath == "" {
		return fmt.Errorf("no report database: pass --report-db or set output.report_db")
	}

	store, err := report.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	out := cmd.OutOrStdout()
	if inspectListFlag {
		return listRuns(out, store)
	}

	var rep *report.Report
	if inspectRunFlag != "" {
		rep, err = store.Load(inspectRunFlag)
	} else {
		rep, err = store.Latest()
	}
	if err != nil {
		return err
	}
	return report.PrintTree(out, rep)
}

func listRuns(w io.Writer, store *report.Store) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Fprintf(w, "%s  %s  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			report.FormatSummary(r.Generated, r.Skipped, r.Errored))
	}
	return nil
}
