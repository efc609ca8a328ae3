package pipeline

import (
	"sort"

	"github.com/mvp-joe/widgetgen/internal/decl"
	"github.com/mvp-joe/widgetgen/internal/naming"
)

// FileResult is what one extraction worker produces for one header.
type FileResult struct {
	Path   string // canonical path
	Root   string // type root derived from the file name
	Set    *decl.Set
	Err    error
	Cached bool
}

// Duplicate records a header whose type root, or the class name derived
// from it, was already claimed.
type Duplicate struct {
	FileResult
	Winner string // path that claimed the root
	// Class is set when only the class name collided ("foo" and "foo_" both
	// give Foo).
	Class string
}

// Aggregate holds one extraction result per type root. It is owned by a
// single consumer and needs no locking.
type Aggregate struct {
	byRoot     map[string]FileResult
	byClass    map[string]string // class name -> winning path
	duplicates []Duplicate
}

// NewAggregate returns an empty aggregate.
func NewAggregate() *Aggregate {
	return &Aggregate{
		byRoot:  make(map[string]FileResult),
		byClass: make(map[string]string),
	}
}

// Insert stores r under its root unless the root, or the class name and
// hence the artifact file it maps to, is taken. It never replaces an existing
// entry; a rejected result is recorded as a duplicate.
func (a *Aggregate) Insert(r FileResult) bool {
	if winner, ok := a.byRoot[r.Root]; ok {
		a.duplicates = append(a.duplicates, Duplicate{FileResult: r, Winner: winner.Path})
		return false
	}
	class := naming.UpperCamel(r.Root)
	if winner, ok := a.byClass[class]; ok {
		a.duplicates = append(a.duplicates, Duplicate{FileResult: r, Winner: winner, Class: class})
		return false
	}
	a.byRoot[r.Root] = r
	a.byClass[class] = r.Path
	return true
}

// Merge inserts successful results in lexical path order, so the first path
// wins a contested root regardless of which worker finished first. Failed
// results are returned unmerged, also in path order.
func (a *Aggregate) Merge(results []FileResult) (failed []FileResult) {
	sorted := make([]FileResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for _, r := range sorted {
		if r.Err != nil {
			failed = append(failed, r)
			continue
		}
		a.Insert(r)
	}
	return failed
}

// Get returns the result stored for root.
func (a *Aggregate) Get(root string) (FileResult, bool) {
	r, ok := a.byRoot[root]
	return r, ok
}

// Roots returns the stored roots in lexical order.
func (a *Aggregate) Roots() []string {
	roots := make([]string, 0, len(a.byRoot))
	for root := range a.byRoot {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}

// Duplicates returns the rejected results in insertion order.
func (a *Aggregate) Duplicates() []Duplicate {
	return a.duplicates
}

// Len is the number of stored roots.
func (a *Aggregate) Len() int {
	return len(a.byRoot)
}
