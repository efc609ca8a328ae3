// Package pipeline runs discovery, extraction, aggregation, classification
// and synthesis over an input tree.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/widgetgen/internal/cfront"
	"github.com/mvp-joe/widgetgen/internal/classify"
	"github.com/mvp-joe/widgetgen/internal/discovery"
	"github.com/mvp-joe/widgetgen/internal/extract"
	"github.com/mvp-joe/widgetgen/internal/naming"
	"github.com/mvp-joe/widgetgen/internal/report"
	"github.com/mvp-joe/widgetgen/internal/synth"
)

// ReasonNoCreate is the skip reason for headers without a create function.
const ReasonNoCreate = "no create function"

// Options configures a Runner.
type Options struct {
	Convention classify.Convention
	Inherited  []string

	Include []string
	Ignore  []string

	Parse cfront.Options

	OutputDir string
	Extension string
	Workers   int // <= 0 means one per CPU

	// DryRun classifies and synthesizes without writing artifacts.
	DryRun bool

	CacheCapacity int
}

// Runner executes generation runs. A Runner can be reused across runs, which
// lets unchanged headers hit the extraction cache in watch mode. Run must not
// be called concurrently on the same Runner.
type Runner struct {
	opts       Options
	parser     *cfront.Parser
	classifier *classify.Classifier
	synth      *synth.Synthesizer
	cache      *extractionCache
	progress   ProgressReporter
	progressMu sync.Mutex
}

// NewRunner creates a runner. A nil progress reporter disables reporting.
func NewRunner(opts Options, progress ProgressReporter) (*Runner, error) {
	if progress == nil {
		progress = &NoOpProgressReporter{}
	}
	if opts.OutputDir == "" && !opts.DryRun {
		return nil, fmt.Errorf("output directory is required")
	}

	cache, err := newExtractionCache(opts.CacheCapacity)
	if err != nil {
		return nil, err
	}

	return &Runner{
		opts:       opts,
		parser:     cfront.NewParser(opts.Parse),
		classifier: classify.New(opts.Convention, opts.Inherited),
		synth:      synth.New(opts.Extension),
		cache:      cache,
		progress:   progress,
	}, nil
}

// Close releases the extraction cache.
func (r *Runner) Close() {
	r.cache.close()
}

func (r *Runner) workers() int {
	if r.opts.Workers <= 0 {
		return runtime.NumCPU()
	}
	return r.opts.Workers
}

func (r *Runner) report(fn func(p ProgressReporter)) {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	fn(r.progress)
}

// Run processes every candidate header under root. Per-file failures are
// recorded in the result and never abort the run; the returned error is
// reserved for setup problems (unreadable root, bad patterns, unwritable
// output directory) and for cancellation, in which case the partial result
// is still returned.
func (r *Runner) Run(ctx context.Context, root string) (*Result, error) {
	startedAt := time.Now()

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read input root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("input root %s is not a directory", root)
	}

	disc, err := discovery.New(root, r.opts.Include, r.opts.Ignore)
	if err != nil {
		return nil, fmt.Errorf("invalid path patterns: %w", err)
	}
	files, err := disc.Discover()
	if err != nil {
		return nil, fmt.Errorf("failed to discover headers: %w", err)
	}
	r.report(func(p ProgressReporter) { p.OnDiscoveryComplete(len(files)) })

	var writer *artifactWriter
	if !r.opts.DryRun {
		if writer, err = newArtifactWriter(r.opts.OutputDir); err != nil {
			return nil, err
		}
	}

	hitsBefore := r.cache.hits()
	results := r.extractAll(ctx, files)

	agg := NewAggregate()
	failed := agg.Merge(results)

	result := &Result{
		RunID:     uuid.New().String(),
		Root:      root,
		StartedAt: startedAt,
		Types:     make(map[string]*Outcome),
	}

	for _, fr := range failed {
		result.add(&Outcome{
			Path:   fr.Path,
			Root:   fr.Root,
			Type:   naming.UpperCamel(fr.Root),
			Status: report.StatusErrored,
			Reason: fr.Err.Error(),
			Err:    fr.Err,
		})
	}
	for _, dup := range agg.Duplicates() {
		reason := fmt.Sprintf("duplicate type root %q, already provided by %s", dup.Root, dup.Winner)
		if dup.Class != "" {
			reason = fmt.Sprintf("class %s already generated from %s", dup.Class, dup.Winner)
		}
		result.add(&Outcome{
			Path:   dup.Path,
			Root:   dup.Root,
			Type:   naming.UpperCamel(dup.Root),
			Set:    dup.Set,
			Status: report.StatusSkipped,
			Reason: reason,
		})
	}

	for _, out := range r.synthesizeAll(ctx, agg, writer) {
		result.add(out)
		result.Types[out.Root] = out
		if out.Artifact != nil {
			result.Artifacts = append(result.Artifacts, out.Artifact)
		}
	}

	sort.Slice(result.Outcomes, func(i, j int) bool { return result.Outcomes[i].Path < result.Outcomes[j].Path })
	result.CacheHits = int(r.cache.hits() - hitsBefore)
	result.Duration = time.Since(startedAt)

	r.report(func(p ProgressReporter) { p.OnComplete(result) })

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("run cancelled: %w", err)
	}
	return result, nil
}

// extractAll parses and extracts files on a bounded worker pool. Results are
// collected by a single consumer goroutine. Cancellation stops scheduling new
// files; files already in flight finish.
func (r *Runner) extractAll(ctx context.Context, files []string) []FileResult {
	r.report(func(p ProgressReporter) { p.OnFileProcessingStart(len(files)) })

	resultsCh := make(chan FileResult)
	collected := make([]FileResult, 0, len(files))
	done := make(chan struct{})

	go func() {
		defer close(done)
		for fr := range resultsCh {
			collected = append(collected, fr)
			r.report(func(p ProgressReporter) { p.OnFileProcessed(fr.Path) })
		}
	}()

	var g errgroup.Group
	g.SetLimit(r.workers())

	for _, path := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			resultsCh <- r.extractFile(ctx, path)
			return nil
		})
	}

	g.Wait()
	close(resultsCh)
	<-done

	return collected
}

// extractFile handles one header. Panics are recovered into the result so a
// single bad file cannot take down its siblings.
func (r *Runner) extractFile(ctx context.Context, path string) (fr FileResult) {
	fr.Path = cfront.CanonicalPath(path)
	fr.Root = naming.TypeRoot(fr.Path, r.opts.Convention.Prefix)

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Warning: recovered panic while processing %s: %v", fr.Path, rec)
			fr.Set = nil
			fr.Err = fmt.Errorf("panic while processing %s: %v", fr.Path, rec)
		}
	}()

	source, err := os.ReadFile(fr.Path)
	if err != nil {
		fr.Err = &cfront.FileReadError{Path: fr.Path, Err: err}
		return fr
	}

	key := cacheKey(fr.Path, source)
	if set, ok := r.cache.get(key); ok {
		fr.Set = set
		fr.Cached = true
		return fr
	}

	// A scheduled file runs to completion even if ctx is cancelled meanwhile.
	unit, err := r.parser.Parse(context.WithoutCancel(ctx), fr.Path, source)
	if err != nil {
		fr.Err = err
		return fr
	}
	defer unit.Close()

	fr.Set = extract.Extract(unit, fr.Path)
	r.cache.set(key, fr.Set)
	return fr
}

// synthesizeAll classifies and renders every aggregated type concurrently.
// Each type writes only its own artifact file.
func (r *Runner) synthesizeAll(ctx context.Context, agg *Aggregate, writer *artifactWriter) []*Outcome {
	roots := agg.Roots()
	r.report(func(p ProgressReporter) { p.OnSynthesisStart(len(roots)) })

	outcomes := make([]*Outcome, len(roots))

	var g errgroup.Group
	g.SetLimit(r.workers())

	for i, root := range roots {
		fr, _ := agg.Get(root)
		g.Go(func() error {
			outcomes[i] = r.bindType(fr, writer)
			r.report(func(p ProgressReporter) { p.OnTypeSynthesized(outcomes[i].Type) })
			return nil
		})
	}
	g.Wait()

	return outcomes
}

func (r *Runner) bindType(fr FileResult, writer *artifactWriter) (out *Outcome) {
	out = &Outcome{
		Path: fr.Path,
		Root: fr.Root,
		Type: naming.UpperCamel(fr.Root),
		Set:  fr.Set,
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Warning: recovered panic while generating %s: %v", out.Type, rec)
			out.Status = report.StatusErrored
			out.Err = fmt.Errorf("panic while generating %s: %v", out.Type, rec)
			out.Reason = out.Err.Error()
			out.Artifact = nil
		}
	}()

	model, ok := r.classifier.Classify(fr.Set, fr.Root)
	if !ok {
		out.Status = report.StatusSkipped
		out.Reason = ReasonNoCreate
		return out
	}
	out.Model = model

	art, err := r.synth.Synthesize(model)
	if err != nil {
		out.Status = report.StatusErrored
		out.Err = err
		out.Reason = err.Error()
		return out
	}

	if writer != nil {
		path, err := writer.Write(art)
		if err != nil {
			out.Status = report.StatusErrored
			out.Err = fmt.Errorf("failed to write %s: %w", art.FileName, err)
			out.Reason = out.Err.Error()
			return out
		}
		out.OutputPath = path
	}

	out.Artifact = art
	out.Status = report.StatusGenerated
	return out
}
