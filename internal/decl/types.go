// Package decl holds the normalized signature model produced from one C header.
//
// A Set is built once per file by the extractor and is read-only afterwards.
package decl

import "strings"

// TypeKind distinguishes resolved type names from the unresolved sentinel.
type TypeKind int

const (
	// Named is a type whose base name was resolved from the source.
	Named TypeKind = iota
	// Unresolved marks a type the extractor could not model. Raw keeps the
	// verbatim text so later stages can pass it through.
	Unresolved
)

// TypeRef is a C type reduced to a base name and at most one pointer level.
type TypeRef struct {
	Kind    TypeKind
	Base    string
	Pointer int // 0 or 1
	Const   bool
	Raw     string // source text, set for unresolved types
	Reason  string // why the type is unresolved
}

// NamedType returns a resolved TypeRef.
func NamedType(base string, pointer int) TypeRef {
	return TypeRef{Kind: Named, Base: base, Pointer: pointer}
}

// UnresolvedType returns the sentinel type carrying the original text.
func UnresolvedType(raw, reason string) TypeRef {
	return TypeRef{Kind: Unresolved, Raw: strings.TrimSpace(raw), Reason: reason}
}

// IsUnresolved reports whether t is the unresolved sentinel.
func (t TypeRef) IsUnresolved() bool {
	return t.Kind == Unresolved
}

// Same reports whether t and o name the same base type at the same pointer
// depth. Qualifiers are ignored.
func (t TypeRef) Same(o TypeRef) bool {
	return t.Kind == Named && o.Kind == Named && t.Base == o.Base && t.Pointer == o.Pointer
}

// String renders the type as C source, e.g. "const char*".
func (t TypeRef) String() string {
	if t.Kind == Unresolved {
		if t.Raw != "" {
			return t.Raw
		}
		return "unknown"
	}
	var b strings.Builder
	if t.Const {
		b.WriteString("const ")
	}
	b.WriteString(t.Base)
	if t.Pointer > 0 {
		b.WriteString("*")
	}
	return b.String()
}

// UnnamedParam is the placeholder used for parameters without a declarator name.
const UnnamedParam = "unnamed"

// Parameter is one function parameter.
type Parameter struct {
	Name string
	Type TypeRef
	// Verbatim is the full parameter text for unresolved types
	// (e.g. "void (*cb)(int)"), used when the type cannot be split from the name.
	Verbatim string
}

// Kind is the declaration kind.
type Kind int

const (
	Function Kind = iota
	Typedef
)

func (k Kind) String() string {
	switch k {
	case Function:
		return "function"
	case Typedef:
		return "typedef"
	default:
		return "unknown"
	}
}

// Enumerator is one member of an enum typedef.
type Enumerator struct {
	Name  string
	Value string // empty when implicit
}

// Declaration is a function or typedef as seen in a single header.
type Declaration struct {
	Name string
	Kind Kind

	// Function fields.
	Return TypeRef
	Params []Parameter

	// Typedef fields. Underlying is nil when it could not be resolved.
	Underlying  *TypeRef
	Enumerators []Enumerator

	SourceFile string
	Line       int
}

// Failure records a symbol dropped during extraction.
type Failure struct {
	Symbol string // empty when the name itself could not be determined
	Line   int
	Reason string
}

// Diagnostic records a non-fatal oddity on a kept symbol.
type Diagnostic struct {
	Symbol  string
	Line    int
	Message string
}

// Set is every declaration whose provenance is File.
type Set struct {
	File        string
	Functions   []Declaration
	Typedefs    []Declaration
	Variables   []string
	Includes    []string
	Failures    []Failure
	Diagnostics []Diagnostic
}

// NewSet returns an empty set for file.
func NewSet(file string) *Set {
	return &Set{
		File:      file,
		Functions: []Declaration{},
		Typedefs:  []Declaration{},
	}
}

// Function looks up a function by name.
func (s *Set) Function(name string) (Declaration, bool) {
	for _, d := range s.Functions {
		if d.Name == name {
			return d, true
		}
	}
	return Declaration{}, false
}

// Typedef looks up a typedef by name.
func (s *Set) Typedef(name string) (Declaration, bool) {
	for _, d := range s.Typedefs {
		if d.Name == name {
			return d, true
		}
	}
	return Declaration{}, false
}

// Empty reports whether the set holds no declarations.
func (s *Set) Empty() bool {
	return len(s.Functions) == 0 && len(s.Typedefs) == 0
}
