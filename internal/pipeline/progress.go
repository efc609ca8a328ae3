package pipeline

// ProgressReporter provides callbacks for reporting generation progress.
// Implementations can display progress bars, log messages, or remain silent.
// Callbacks are never invoked concurrently.
type ProgressReporter interface {
	// OnDiscoveryComplete is called once candidate headers are known.
	OnDiscoveryComplete(headers int)

	// OnFileProcessingStart is called before headers are parsed.
	OnFileProcessingStart(totalFiles int)

	// OnFileProcessed is called after each header is parsed and extracted.
	OnFileProcessed(path string)

	// OnSynthesisStart is called before classes are generated.
	OnSynthesisStart(totalTypes int)

	// OnTypeSynthesized is called after each type is classified and written.
	OnTypeSynthesized(typeName string)

	// OnComplete is called when the run finishes.
	OnComplete(result *Result)
}

// NoOpProgressReporter is a progress reporter that does nothing.
// Used when progress reporting is disabled (e.g., --quiet flag).
type NoOpProgressReporter struct{}

func (n *NoOpProgressReporter) OnDiscoveryComplete(headers int)      {}
func (n *NoOpProgressReporter) OnFileProcessingStart(totalFiles int) {}
func (n *NoOpProgressReporter) OnFileProcessed(path string)          {}
func (n *NoOpProgressReporter) OnSynthesisStart(totalTypes int)      {}
func (n *NoOpProgressReporter) OnTypeSynthesized(typeName string)    {}
func (n *NoOpProgressReporter) OnComplete(result *Result)            {}
