package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mvp-joe/widgetgen/internal/discovery"
)

var (
	// ErrInvalidPrefix indicates an object prefix that is not a C identifier
	ErrInvalidPrefix = errors.New("invalid object prefix")

	// ErrInvalidIdentifier indicates a convention name that is not a C identifier
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrInvalidPattern indicates a glob pattern that does not compile
	ErrInvalidPattern = errors.New("invalid glob pattern")

	// ErrEmptyPatterns indicates no include patterns were configured
	ErrEmptyPatterns = errors.New("empty include patterns")

	// ErrInvalidOutput indicates invalid output settings
	ErrInvalidOutput = errors.New("invalid output settings")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid worker count")
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateConvention(&cfg.Convention); err != nil {
		errs = append(errs, err)
	}

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if err := validateOutput(&cfg.Output); err != nil {
		errs = append(errs, err)
	}

	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateConvention(cfg *ConventionConfig) error {
	var errs []error

	if !identRe.MatchString(cfg.Prefix) {
		errs = append(errs, fmt.Errorf("%w: must be a C identifier, got '%s'", ErrInvalidPrefix, cfg.Prefix))
	}

	for _, field := range []struct{ key, value string }{
		{"base_handle", cfg.BaseHandle},
		{"base_class", cfg.BaseClass},
		{"base_deleter", cfg.BaseDeleter},
	} {
		if !identRe.MatchString(field.value) {
			errs = append(errs, fmt.Errorf("%w: %s must be a C identifier, got '%s'", ErrInvalidIdentifier, field.key, field.value))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	if len(cfg.Include) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one include pattern required", ErrEmptyPatterns))
	}

	for _, pattern := range append(append([]string{}, cfg.Include...), cfg.Ignore...) {
		if err := discovery.Compile([]string{pattern}); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %v", ErrInvalidPattern, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateOutput(cfg *OutputConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Dir) == "" {
		errs = append(errs, fmt.Errorf("%w: dir is required", ErrInvalidOutput))
	}

	ext := strings.TrimPrefix(cfg.Extension, ".")
	if !identRe.MatchString(ext) {
		errs = append(errs, fmt.Errorf("%w: extension must be alphanumeric, got '%s'", ErrInvalidOutput, cfg.Extension))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

// joinErrors combines multiple errors into a single error. errors.Is still
// matches every sentinel in the result.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	return fmt.Errorf("validation failed:\n  - %w", errors.Join(errs...))
}
