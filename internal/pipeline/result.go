package pipeline

import (
	"sort"
	"time"

	"github.com/mvp-joe/widgetgen/internal/binding"
	"github.com/mvp-joe/widgetgen/internal/decl"
	"github.com/mvp-joe/widgetgen/internal/hierarchy"
	"github.com/mvp-joe/widgetgen/internal/report"
	"github.com/mvp-joe/widgetgen/internal/synth"
)

// Outcome is what happened to one candidate header.
type Outcome struct {
	Path   string
	Root   string
	Type   string // UpperCamel class name
	Status report.Status
	Reason string
	Err    error

	Set        *decl.Set
	Model      *binding.Model
	Artifact   *synth.Artifact
	OutputPath string
}

// Result is the outcome of one run.
type Result struct {
	RunID     string
	Root      string
	StartedAt time.Time
	Duration  time.Duration

	// Outcomes holds one entry per candidate header, in path order.
	Outcomes []*Outcome
	// Types maps each aggregated type root to its outcome.
	Types map[string]*Outcome
	// Artifacts are the generated classes in type-root order.
	Artifacts []*synth.Artifact

	Generated int
	Skipped   int
	Errored   int
	CacheHits int
}

func (r *Result) add(out *Outcome) {
	r.Outcomes = append(r.Outcomes, out)
	switch out.Status {
	case report.StatusGenerated:
		r.Generated++
	case report.StatusSkipped:
		r.Skipped++
	case report.StatusErrored:
		r.Errored++
	}
}

// Summary renders "generated N, skipped M, errored K".
func (r *Result) Summary() string {
	return report.FormatSummary(r.Generated, r.Skipped, r.Errored)
}

// Models returns the binding models of every classified type, by type name.
func (r *Result) Models() []*binding.Model {
	var models []*binding.Model
	for _, out := range r.Outcomes {
		if out.Model != nil {
			models = append(models, out.Model)
		}
	}
	sort.Slice(models, func(i, j int) bool { return models[i].TypeName < models[j].TypeName })
	return models
}

// Hierarchy builds the class graph of the classified types.
func (r *Result) Hierarchy() (*hierarchy.Hierarchy, error) {
	return hierarchy.Build(r.Models())
}

// Report converts the result into its structured report.
func (r *Result) Report() *report.Report {
	rep := &report.Report{
		RunID:     r.RunID,
		Root:      r.Root,
		StartedAt: r.StartedAt,
		Duration:  r.Duration,
		Entries:   make([]report.Entry, 0, len(r.Outcomes)),
	}
	for _, out := range r.Outcomes {
		entry := report.Entry{
			Type:   out.Type,
			File:   out.Path,
			Status: out.Status,
			Reason: out.Reason,
			Decls:  reportDecls(out.Set),
		}
		if out.Artifact != nil {
			entry.Artifact = out.Artifact.FileName
		}
		rep.Entries = append(rep.Entries, entry)
	}
	return rep
}

func reportDecls(set *decl.Set) []report.Decl {
	if set == nil {
		return nil
	}
	var decls []report.Decl
	for _, fn := range set.Functions {
		decls = append(decls, report.Decl{Kind: report.KindFunction, Name: fn.Name, Line: fn.Line})
	}
	for _, td := range set.Typedefs {
		decls = append(decls, report.Decl{Kind: report.KindTypedef, Name: td.Name, Line: td.Line})
	}
	for _, v := range set.Variables {
		decls = append(decls, report.Decl{Kind: report.KindVariable, Name: v})
	}
	for _, inc := range set.Includes {
		decls = append(decls, report.Decl{Kind: report.KindInclude, Name: inc})
	}
	for _, f := range set.Failures {
		decls = append(decls, report.Decl{Kind: report.KindFailure, Name: f.Symbol, Line: f.Line, Detail: f.Reason})
	}
	for _, d := range set.Diagnostics {
		decls = append(decls, report.Decl{Kind: report.KindDiagnostic, Name: d.Symbol, Line: d.Line, Detail: d.Message})
	}
	return decls
}
