// Package report records what a generation run did to each header and
// persists runs to SQLite for later inspection.
package report

import (
	"fmt"
	"time"
)

// Status is the outcome of one header.
type Status string

const (
	StatusGenerated Status = "generated"
	StatusSkipped   Status = "skipped"
	StatusErrored   Status = "errored"
)

// DeclKind groups the declarations listed under an entry.
type DeclKind string

const (
	KindFunction   DeclKind = "function"
	KindTypedef    DeclKind = "typedef"
	KindVariable   DeclKind = "variable"
	KindInclude    DeclKind = "include"
	KindFailure    DeclKind = "failure"
	KindDiagnostic DeclKind = "diagnostic"
)

// Decl is one line of an entry's declaration tree.
type Decl struct {
	Kind   DeclKind
	Name   string
	Line   int
	Detail string // failure reason or diagnostic message
}

// Entry describes one candidate header.
type Entry struct {
	Type     string // UpperCamel class name
	File     string
	Status   Status
	Reason   string // skip reason or error text
	Artifact string // written file name, empty unless generated
	Decls    []Decl
}

// Names returns the names of the entry's declarations of the given kind, in
// source order.
func (e Entry) Names(kind DeclKind) []string {
	var names []string
	for _, d := range e.Decls {
		if d.Kind == kind {
			names = append(names, d.Name)
		}
	}
	return names
}

// Report is the structured record of one run.
type Report struct {
	RunID     string
	Root      string
	StartedAt time.Time
	Duration  time.Duration
	Entries   []Entry
}

// Counts tallies entries by status.
func (r *Report) Counts() (generated, skipped, errored int) {
	for _, e := range r.Entries {
		switch e.Status {
		case StatusGenerated:
			generated++
		case StatusSkipped:
			skipped++
		case StatusErrored:
			errored++
		}
	}
	return generated, skipped, errored
}

// Summary is the one-line human summary of the run.
func (r *Report) Summary() string {
	g, s, e := r.Counts()
	return FormatSummary(g, s, e)
}

// FormatSummary renders "generated N, skipped M, errored K".
func FormatSummary(generated, skipped, errored int) string {
	return fmt.Sprintf("generated %d, skipped %d, errored %d", generated, skipped, errored)
}
