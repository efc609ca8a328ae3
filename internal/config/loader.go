package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mvp-joe/widgetgen/internal/discovery"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a loader that looks for .widgetgen/config.yml under rootDir.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader for an explicit config file.
func NewFileLoader(path string) Loader {
	return &loader{configFile: path}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (WIDGETGEN_*)
// 2. Config file (.widgetgen/config.yml, .widgetgen/config.yaml or an explicit file)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".widgetgen"))
	}

	// WIDGETGEN_CONVENTION_PREFIX etc.
	v.SetEnvPrefix("WIDGETGEN")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("convention.prefix")
	v.BindEnv("convention.base_handle")
	v.BindEnv("convention.base_class")
	v.BindEnv("convention.base_deleter")

	v.BindEnv("parse.inline_includes")
	v.BindEnv("parse.strict")

	v.BindEnv("output.dir")
	v.BindEnv("output.extension")
	v.BindEnv("output.report_db")

	v.BindEnv("workers")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine: defaults + env vars apply.
		// An explicit --config file that is missing is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if !v.IsSet("paths.include") {
		cfg.Paths.Include = discovery.DefaultInclude(cfg.Convention.Prefix)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("convention.prefix", defaults.Convention.Prefix)
	v.SetDefault("convention.base_handle", defaults.Convention.BaseHandle)
	v.SetDefault("convention.base_class", defaults.Convention.BaseClass)
	v.SetDefault("convention.base_deleter", defaults.Convention.BaseDeleter)
	v.SetDefault("convention.inherited", defaults.Convention.Inherited)

	// paths.include has no default here: it follows the prefix (see Load).
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("parse.include_paths", defaults.Parse.IncludePaths)
	v.SetDefault("parse.erase_macros", defaults.Parse.EraseMacros)
	v.SetDefault("parse.undefined_macros", defaults.Parse.UndefinedMacros)
	v.SetDefault("parse.inline_includes", defaults.Parse.InlineIncludes)
	v.SetDefault("parse.strict", defaults.Parse.Strict)

	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.extension", defaults.Output.Extension)
	v.SetDefault("output.report_db", defaults.Output.ReportDB)

	v.SetDefault("workers", defaults.Workers)
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
