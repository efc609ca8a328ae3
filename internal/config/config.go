package config

import (
	"runtime"

	"github.com/mvp-joe/widgetgen/internal/cfront"
	"github.com/mvp-joe/widgetgen/internal/classify"
	"github.com/mvp-joe/widgetgen/internal/decl"
	"github.com/mvp-joe/widgetgen/internal/discovery"
	"github.com/mvp-joe/widgetgen/internal/pipeline"
	"github.com/mvp-joe/widgetgen/internal/synth"
)

// Config represents the complete widgetgen configuration.
// It can be loaded from .widgetgen/config.yml with environment variable overrides.
type Config struct {
	Convention ConventionConfig `yaml:"convention" mapstructure:"convention"`
	Paths      PathsConfig      `yaml:"paths" mapstructure:"paths"`
	Parse      ParseConfig      `yaml:"parse" mapstructure:"parse"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Workers    int              `yaml:"workers" mapstructure:"workers"` // 0 means one per CPU
}

// ConventionConfig describes the naming conventions of the wrapped C API.
type ConventionConfig struct {
	Prefix      string   `yaml:"prefix" mapstructure:"prefix"`             // object prefix, e.g. "lv"
	BaseHandle  string   `yaml:"base_handle" mapstructure:"base_handle"`   // generic handle type, used as a single pointer
	BaseClass   string   `yaml:"base_class" mapstructure:"base_class"`     // C++ base class and header stem
	BaseDeleter string   `yaml:"base_deleter" mapstructure:"base_deleter"` // disposes of a base handle
	Inherited   []string `yaml:"inherited" mapstructure:"inherited"`       // names already provided by the base class
}

// PathsConfig defines which headers are candidates.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for candidate headers
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to skip
}

// ParseConfig configures the C front end.
type ParseConfig struct {
	IncludePaths    []string `yaml:"include_paths" mapstructure:"include_paths"`
	EraseMacros     []string `yaml:"erase_macros" mapstructure:"erase_macros"`
	UndefinedMacros []string `yaml:"undefined_macros" mapstructure:"undefined_macros"`
	InlineIncludes  bool     `yaml:"inline_includes" mapstructure:"inline_includes"`
	Strict          bool     `yaml:"strict" mapstructure:"strict"`
}

// OutputConfig defines where artifacts and the report go.
type OutputConfig struct {
	Dir       string `yaml:"dir" mapstructure:"dir"`
	Extension string `yaml:"extension" mapstructure:"extension"`
	ReportDB  string `yaml:"report_db" mapstructure:"report_db"` // empty disables the SQLite report
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	conv := classify.DefaultConvention()
	parse := cfront.DefaultOptions()
	return &Config{
		Convention: ConventionConfig{
			Prefix:      conv.Prefix,
			BaseHandle:  conv.BaseHandle.Base,
			BaseClass:   conv.BaseClass,
			BaseDeleter: conv.BaseDeleter,
			Inherited:   []string{},
		},
		Paths: PathsConfig{
			Include: discovery.DefaultInclude(conv.Prefix),
			Ignore:  discovery.DefaultIgnore(),
		},
		Parse: ParseConfig{
			IncludePaths:    []string{},
			EraseMacros:     parse.EraseMacros,
			UndefinedMacros: parse.UndefinedMacros,
			InlineIncludes:  parse.InlineIncludes,
			Strict:          parse.Strict,
		},
		Output: OutputConfig{
			Dir:       "generated",
			Extension: synth.DefaultExtension,
			ReportDB:  "",
		},
		Workers: 0,
	}
}

// ToConvention converts the convention section for the classifier.
func (c *Config) ToConvention() classify.Convention {
	return classify.Convention{
		Prefix:      c.Convention.Prefix,
		BaseHandle:  decl.NamedType(c.Convention.BaseHandle, 1),
		BaseClass:   c.Convention.BaseClass,
		BaseDeleter: c.Convention.BaseDeleter,
	}
}

// ToParseOptions converts the parse section for the C front end.
func (c *Config) ToParseOptions() cfront.Options {
	return cfront.Options{
		IncludePaths:    c.Parse.IncludePaths,
		EraseMacros:     c.Parse.EraseMacros,
		UndefinedMacros: c.Parse.UndefinedMacros,
		InlineIncludes:  c.Parse.InlineIncludes,
		Strict:          c.Parse.Strict,
	}
}

// WorkerCount resolves Workers, mapping 0 to the number of CPUs.
func (c *Config) WorkerCount() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// ToPipelineOptions converts the configuration for a pipeline.Runner writing
// into outputDir. An empty outputDir falls back to output.dir.
func (c *Config) ToPipelineOptions(outputDir string) pipeline.Options {
	if outputDir == "" {
		outputDir = c.Output.Dir
	}
	return pipeline.Options{
		Convention: c.ToConvention(),
		Inherited:  c.Convention.Inherited,
		Include:    c.Paths.Include,
		Ignore:     c.Paths.Ignore,
		Parse:      c.ToParseOptions(),
		OutputDir:  outputDir,
		Extension:  c.Output.Extension,
		Workers:    c.WorkerCount(),
	}
}
