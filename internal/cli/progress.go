package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/widgetgen/internal/pipeline"
)

// CLIProgressReporter renders generation progress as terminal progress bars.
type CLIProgressReporter struct {
	quiet   bool
	fileBar *progressbar.ProgressBar
	typeBar *progressbar.ProgressBar
}

var _ pipeline.ProgressReporter = (*CLIProgressReporter)(nil)

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{quiet: quiet}
}

func newBar(total int, description, its string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString(its),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

func (c *CLIProgressReporter) OnDiscoveryComplete(headers int) {
	if c.quiet {
		return
	}
	log.Printf("Found %d candidate headers\n", headers)
}

func (c *CLIProgressReporter) OnFileProcessingStart(totalFiles int) {
	if c.quiet || totalFiles == 0 {
		return
	}
	c.fileBar = newBar(totalFiles, "Parsing headers", "files/s")
}

func (c *CLIProgressReporter) OnFileProcessed(path string) {
	if c.quiet || c.fileBar == nil {
		return
	}
	c.fileBar.Add(1)
}

func (c *CLIProgressReporter) OnSynthesisStart(totalTypes int) {
	if c.quiet {
		return
	}
	if c.fileBar != nil {
		c.fileBar.Finish()
		c.fileBar = nil
	}
	if totalTypes > 0 {
		c.typeBar = newBar(totalTypes, "Generating classes", "types/s")
	}
}

func (c *CLIProgressReporter) OnTypeSynthesized(typeName string) {
	if c.quiet || c.typeBar == nil {
		return
	}
	c.typeBar.Add(1)
}

func (c *CLIProgressReporter) OnComplete(result *pipeline.Result) {
	if c.quiet {
		return
	}
	if c.typeBar != nil {
		c.typeBar.Finish()
		c.typeBar = nil
	}
	fmt.Printf("✓ %s in %.1fs\n", result.Summary(), result.Duration.Seconds())
	if result.CacheHits > 0 {
		fmt.Printf("  Cached headers: %d\n", result.CacheHits)
	}
}
