// Package hierarchy builds the class graph of generated wrappers: which
// classes derive from the base class and which only include its header.
package hierarchy

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"

	"github.com/mvp-joe/widgetgen/internal/binding"
)

// EdgeKind labels an edge from a generated class to the class it depends on.
type EdgeKind string

const (
	// EdgeDerives: ChildOf classes inherit from the base class.
	EdgeDerives EdgeKind = "derives"
	// EdgeIncludes: standalone classes only include the base header.
	EdgeIncludes EdgeKind = "includes"
)

// Class is one vertex of the hierarchy.
type Class struct {
	Name   string
	Header string // source header, empty for the base class
	Base   bool
}

// Hierarchy is a directed graph of class dependencies.
type Hierarchy struct {
	g graph.Graph[string, Class]
}

// Build creates the hierarchy for models. Models are added in name order so
// the result does not depend on input order.
func Build(models []*binding.Model) (*Hierarchy, error) {
	h := &Hierarchy{
		g: graph.New(func(c Class) string { return c.Name }, graph.Directed()),
	}

	sorted := make([]*binding.Model, len(models))
	copy(sorted, models)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].TypeName < sorted[j].TypeName })

	for _, m := range sorted {
		if err := h.addClass(Class{Name: m.BaseClass, Base: true}); err != nil {
			return nil, err
		}
		if err := h.addClass(Class{Name: m.TypeName, Header: m.Header}); err != nil {
			return nil, err
		}

		kind := EdgeIncludes
		if m.Shape.IsChild() {
			kind = EdgeDerives
		}
		err := h.g.AddEdge(m.TypeName, m.BaseClass, graph.EdgeAttribute("label", string(kind)))
		if err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
			return nil, fmt.Errorf("failed to add edge %s -> %s: %w", m.TypeName, m.BaseClass, err)
		}
	}
	return h, nil
}

func (h *Hierarchy) addClass(c Class) error {
	attrs := []func(*graph.VertexProperties){graph.VertexAttribute("shape", "box")}
	if c.Base {
		attrs = append(attrs, graph.VertexAttribute("style", "bold"))
	}
	err := h.g.AddVertex(c, attrs...)
	if err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return fmt.Errorf("failed to add class %s: %w", c.Name, err)
	}
	return nil
}

// Classes returns every class name in lexical order.
func (h *Hierarchy) Classes() []string {
	adj, err := h.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(adj))
	for name := range adj {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Roots lists the classes that derive from nothing, in lexical order.
func (h *Hierarchy) Roots() []string {
	adj, err := h.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	var roots []string
	for name, out := range adj {
		derives := false
		for _, e := range out {
			if EdgeKind(e.Properties.Attributes["label"]) == EdgeDerives {
				derives = true
				break
			}
		}
		if !derives {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}

// Dependents returns the classes with an edge of the given kind into name.
func (h *Hierarchy) Dependents(name string, kind EdgeKind) []string {
	pred, err := h.g.PredecessorMap()
	if err != nil {
		return nil
	}
	var out []string
	for from, e := range pred[name] {
		if EdgeKind(e.Properties.Attributes["label"]) == kind {
			out = append(out, from)
		}
	}
	sort.Strings(out)
	return out
}

// Includes returns the headers a generated class depends on.
func (h *Hierarchy) Includes(name string) []string {
	adj, err := h.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	var out []string
	for to := range adj[name] {
		out = append(out, to)
	}
	sort.Strings(out)
	return out
}

// DOT writes the hierarchy in Graphviz DOT format.
func (h *Hierarchy) DOT(w io.Writer) error {
	return draw.DOT(h.g, w, draw.GraphAttribute("rankdir", "BT"))
}
