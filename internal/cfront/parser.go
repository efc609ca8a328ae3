// Package cfront is the C front end: it prepares an in-memory parse copy of a
// header and parses it with tree-sitter into a Unit whose byte offsets can be
// traced back to the file they physically came from.
package cfront

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"
)

// Options configures the parse copy.
type Options struct {
	// IncludePaths are searched for quoted includes when InlineIncludes is set.
	IncludePaths []string
	// EraseMacros are blanked out before parsing, with their argument list.
	EraseMacros []string
	// UndefinedMacros guard conditional blocks that are dropped (e.g. __cplusplus).
	UndefinedMacros []string
	// InlineIncludes pastes resolvable quoted includes into the parse copy.
	InlineIncludes bool
	// Strict turns any syntax error in the tree into a ParseError. Off by
	// default: unexpanded macros such as LV_ATTRIBUTE_EXTERN_DATA leave ERROR
	// nodes that only cost the declaration they sit in.
	Strict bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		EraseMacros:     []string{"__attribute__"},
		UndefinedMacros: []string{"__cplusplus"},
	}
}

// Unit is one parsed translation unit.
type Unit struct {
	Path   string
	Source []byte
	Tree   *sitter.Tree
	Root   *sitter.Node
	Copy   *ParseCopy
}

// Origin returns the file and line the node was written in.
func (u *Unit) Origin(n *sitter.Node) (string, int) {
	return u.Copy.Origin(int(n.StartByte()))
}

// Text returns the source text of a node.
func (u *Unit) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(u.Source[n.StartByte():n.EndByte()])
}

// Close releases the syntax tree.
func (u *Unit) Close() {
	if u.Tree != nil {
		u.Tree.Close()
		u.Tree = nil
		u.Root = nil
	}
}

// Parser parses C headers. It is safe for concurrent use; every call creates
// its own tree-sitter parser.
type Parser struct {
	opts     Options
	language *sitter.Language
}

// NewParser creates a C header parser.
func NewParser(opts Options) *Parser {
	return &Parser{
		opts:     opts,
		language: sitter.NewLanguage(c.Language()),
	}
}

// ParseFile reads and parses the header at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Unit, error) {
	path = CanonicalPath(path)
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, &FileReadError{Path: path, Err: err}
	}
	return p.Parse(ctx, path, source)
}

// Parse parses header text that belongs to path.
func (p *Parser) Parse(ctx context.Context, path string, source []byte) (*Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pc := PrepareParseCopy(path, source, p.opts)

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to set C language: %w", err)
	}

	tree := parser.Parse(pc.Source, nil)
	if tree == nil {
		return nil, &ParseError{Message: "parser returned no tree", File: path}
	}

	unit := &Unit{
		Path:   path,
		Source: pc.Source,
		Tree:   tree,
		Root:   tree.RootNode(),
		Copy:   pc,
	}

	if p.opts.Strict && unit.Root.HasError() {
		perr := unit.firstSyntaxError()
		unit.Close()
		return nil, perr
	}

	return unit, nil
}

// firstSyntaxError locates the first ERROR or MISSING node.
func (u *Unit) firstSyntaxError() *ParseError {
	var found *sitter.Node
	Walk(u.Root, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	})

	perr := &ParseError{Message: "syntax error", File: u.Path, Line: 1, Column: 1}
	if found == nil {
		return perr
	}
	if found.IsMissing() {
		perr.Message = fmt.Sprintf("missing %s", found.Kind())
	}
	file, line := u.Origin(found)
	if file != "" {
		perr.File = file
		perr.Line = line
	}
	perr.Column = int(found.StartPosition().Column) + 1
	return perr
}

// Walk visits n and its descendants depth-first. Children are skipped when
// visit returns false.
func Walk(n *sitter.Node, visit func(*sitter.Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		Walk(n.Child(i), visit)
	}
}
