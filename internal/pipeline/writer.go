package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mvp-joe/widgetgen/internal/synth"
)

// artifactWriter writes artifacts atomically into the output directory.
type artifactWriter struct {
	outputDir string
}

func newArtifactWriter(outputDir string) (*artifactWriter, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &artifactWriter{outputDir: outputDir}, nil
}

// Write stores art under its file name and returns the final path. The text
// goes to a temp file in the same directory first, then is renamed into
// place, so a reader never sees a partial class.
func (w *artifactWriter) Write(art *synth.Artifact) (string, error) {
	tmp, err := os.CreateTemp(w.outputDir, "."+art.FileName+"-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tmp.Name()

	if _, err := tmp.WriteString(art.Text); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to set permissions: %w", err)
	}

	finalPath := filepath.Join(w.outputDir, art.FileName)
	if err := os.Rename(tempPath, finalPath); err != nil {
		// Clean up temp file on error
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}
	return finalPath, nil
}
