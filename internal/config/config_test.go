package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with the LVGL convention
// - LoadConfig uses defaults when no config file exists
// - LoadConfig loads from .widgetgen/config.yml and .widgetgen/config.yaml
// - LoadConfig merges a partial config file with defaults
// - An explicit config file is loaded and a missing one is an error
// - Environment variables override config file values and defaults
// - paths.include follows the prefix unless set explicitly
// - LoadConfig returns error for malformed YAML and invalid values
// - Validate() rejects bad prefix, identifiers, patterns, output and workers
// - Validate() reports every invalid field at once
// - ToConvention/ToParseOptions carry the configured values

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, "lv", cfg.Convention.Prefix)
	assert.Equal(t, "lv_obj_t", cfg.Convention.BaseHandle)
	assert.Equal(t, "BaseClass", cfg.Convention.BaseClass)
	assert.Equal(t, "lv_obj_delete", cfg.Convention.BaseDeleter)
	assert.Empty(t, cfg.Convention.Inherited)

	assert.Equal(t, []string{"**/lv_*.h"}, cfg.Paths.Include)
	assert.Contains(t, cfg.Paths.Ignore, "**/*_private.h")

	assert.Equal(t, []string{"__attribute__"}, cfg.Parse.EraseMacros)
	assert.Equal(t, []string{"__cplusplus"}, cfg.Parse.UndefinedMacros)
	assert.False(t, cfg.Parse.InlineIncludes)
	assert.False(t, cfg.Parse.Strict)

	assert.Equal(t, "generated", cfg.Output.Dir)
	assert.Equal(t, "hpp", cfg.Output.Extension)
	assert.Empty(t, cfg.Output.ReportDB)
	assert.Equal(t, 0, cfg.Workers)

	require.NoError(t, Validate(cfg))
}

func TestLoadConfig_NoConfigFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadConfigFromDir(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, Default().Convention.Prefix, cfg.Convention.Prefix)
	assert.Equal(t, Default().Output.Dir, cfg.Output.Dir)
	assert.False(t, cfg.Parse.Strict)
}

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	cfgDir := filepath.Join(dir, ".widgetgen")
	require.NoError(t, os.MkdirAll(cfgDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfgDir, name), []byte(content), 0644))
}

func TestLoadConfig_FromYAMLFile(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"config.yml", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dir := t.TempDir()
			writeConfig(t, dir, name, `
convention:
  prefix: gui
  base_handle: gui_obj_t
  base_class: Widget
  base_deleter: gui_obj_destroy
  inherited: [set_pos, gui_button_get_state]
output:
  dir: out
  extension: h
workers: 3
`)

			cfg, err := LoadConfigFromDir(dir)
			require.NoError(t, err)

			assert.Equal(t, "gui", cfg.Convention.Prefix)
			assert.Equal(t, "gui_obj_t", cfg.Convention.BaseHandle)
			assert.Equal(t, "Widget", cfg.Convention.BaseClass)
			assert.Equal(t, "gui_obj_destroy", cfg.Convention.BaseDeleter)
			assert.Equal(t, []string{"set_pos", "gui_button_get_state"}, cfg.Convention.Inherited)
			assert.Equal(t, "out", cfg.Output.Dir)
			assert.Equal(t, "h", cfg.Output.Extension)
			assert.Equal(t, 3, cfg.Workers)
		})
	}
}

func TestLoadConfig_PartialFileMergesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", `
parse:
  inline_includes: true
`)

	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Parse.InlineIncludes)
	assert.False(t, cfg.Parse.Strict)
	assert.Equal(t, "lv", cfg.Convention.Prefix)
	assert.Equal(t, []string{"**/lv_*.h"}, cfg.Paths.Include)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  report_db: runs.db\n"), 0644))

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "runs.db", cfg.Output.ReportDB)

	_, err = NewFileLoader(filepath.Join(dir, "missing.yml")).Load()
	require.Error(t, err)
}

// Env tests use t.Setenv and cannot run in parallel.
func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", `
convention:
  prefix: gui
output:
  dir: from-file
`)

	t.Setenv("WIDGETGEN_OUTPUT_DIR", "from-env")
	t.Setenv("WIDGETGEN_WORKERS", "7")

	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)

	assert.Equal(t, "gui", cfg.Convention.Prefix)
	assert.Equal(t, "from-env", cfg.Output.Dir)
	assert.Equal(t, 7, cfg.Workers)
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("WIDGETGEN_CONVENTION_PREFIX", "ui")
	t.Setenv("WIDGETGEN_PARSE_STRICT", "true")

	cfg, err := LoadConfigFromDir(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "ui", cfg.Convention.Prefix)
	assert.True(t, cfg.Parse.Strict)
	assert.Equal(t, []string{"**/ui_*.h"}, cfg.Paths.Include)
}

func TestLoadConfig_IncludeFollowsPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want []string
	}{
		{
			name: "derived from prefix",
			yaml: "convention:\n  prefix: gx\n",
			want: []string{"**/gx_*.h"},
		},
		{
			name: "explicit include wins",
			yaml: "convention:\n  prefix: gx\npaths:\n  include: [\"src/**/*.h\"]\n",
			want: []string{"src/**/*.h"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, "config.yml", tt.yaml)

			cfg, err := LoadConfigFromDir(dir)
			require.NoError(t, err)
			assert.Equal(t, "gx", cfg.Convention.Prefix)
			assert.Equal(t, tt.want, cfg.Paths.Include)
		})
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "convention: [prefix\n")

	_, err := LoadConfigFromDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, "config.yml", "workers: -2\n")

	_, err := LoadConfigFromDir(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidWorkers)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid defaults", func(*Config) {}, nil},
		{"empty prefix", func(c *Config) { c.Convention.Prefix = "" }, ErrInvalidPrefix},
		{"prefix with dash", func(c *Config) { c.Convention.Prefix = "lv-x" }, ErrInvalidPrefix},
		{"bad base handle", func(c *Config) { c.Convention.BaseHandle = "lv_obj_t*" }, ErrInvalidIdentifier},
		{"empty base class", func(c *Config) { c.Convention.BaseClass = "" }, ErrInvalidIdentifier},
		{"no include patterns", func(c *Config) { c.Paths.Include = nil }, ErrEmptyPatterns},
		{"bad include pattern", func(c *Config) { c.Paths.Include = []string{"[unclosed"} }, ErrInvalidPattern},
		{"bad ignore pattern", func(c *Config) { c.Paths.Ignore = []string{"[a-"} }, ErrInvalidPattern},
		{"empty output dir", func(c *Config) { c.Output.Dir = " " }, ErrInvalidOutput},
		{"empty extension", func(c *Config) { c.Output.Extension = "" }, ErrInvalidOutput},
		{"dotted extension ok", func(c *Config) { c.Output.Extension = ".hh" }, nil},
		{"negative workers", func(c *Config) { c.Workers = -1 }, ErrInvalidWorkers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Convention.Prefix = ""
	cfg.Output.Dir = ""
	cfg.Workers = -1

	err := Validate(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPrefix)
	assert.ErrorIs(t, err, ErrInvalidOutput)
	assert.ErrorIs(t, err, ErrInvalidWorkers)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestConversions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Convention.Prefix = "gui"
	cfg.Convention.BaseHandle = "gui_obj_t"
	cfg.Parse.IncludePaths = []string{"/usr/include/gui"}
	cfg.Parse.InlineIncludes = true

	conv := cfg.ToConvention()
	assert.Equal(t, "gui", conv.Prefix)
	assert.Equal(t, "gui_obj_t", conv.BaseHandle.Base)
	assert.Equal(t, 1, conv.BaseHandle.Pointer)

	opts := cfg.ToParseOptions()
	assert.Equal(t, []string{"/usr/include/gui"}, opts.IncludePaths)
	assert.True(t, opts.InlineIncludes)
	assert.False(t, opts.Strict)

	assert.Greater(t, cfg.WorkerCount(), 0)
	cfg.Workers = 5
	assert.Equal(t, 5, cfg.WorkerCount())
}

func TestToPipelineOptions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Convention.Inherited = []string{"set_pos"}
	cfg.Workers = 2

	opts := cfg.ToPipelineOptions("")
	assert.Equal(t, "generated", opts.OutputDir)
	assert.Equal(t, "hpp", opts.Extension)
	assert.Equal(t, 2, opts.Workers)
	assert.Equal(t, []string{"set_pos"}, opts.Inherited)
	assert.Equal(t, "lv_obj_t", opts.Convention.BaseHandle.Base)

	assert.Equal(t, "/tmp/out", cfg.ToPipelineOptions("/tmp/out").OutputDir)
}
