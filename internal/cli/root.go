package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/widgetgen/internal/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "widgetgen",
	Short: "Generate C++ wrapper classes from a C object API",
	Long: `widgetgen scans a tree of C headers that follow an object-style naming
convention (lv_button_create, lv_button_set_text, ...) and generates one C++
wrapper class per object type.

Configuration is read from .widgetgen/config.yml in the current directory,
or from the file given with --config. WIDGETGEN_* environment variables
override file values.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.widgetgen/config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the explicit --config file if given, otherwise the
// project configuration of the working directory.
func loadConfig() (*config.Config, error) {
	var l config.Loader
	if cfgFile != "" {
		l = config.NewFileLoader(cfgFile)
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		l = config.NewLoader(wd)
	}

	cfg, err := l.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
