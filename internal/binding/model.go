// Package binding is the language-agnostic model a class synthesizer
// consumes: one Model per synthesizable C type.
package binding

import "github.com/mvp-joe/widgetgen/internal/decl"

// ShapeKind tags a ConstructorShape.
type ShapeKind int

const (
	// Standalone types are created without a parent handle.
	Standalone ShapeKind = iota
	// Child types are created from a parent handle.
	Child
)

// ConstructorShape is Standalone or ChildOf(Parent). It is computed once by
// the classifier and read as data afterwards.
type ConstructorShape struct {
	Kind   ShapeKind
	Parent string // base class for Child shapes
}

// StandaloneShape returns the Standalone shape.
func StandaloneShape() ConstructorShape {
	return ConstructorShape{Kind: Standalone}
}

// ChildOf returns a Child shape whose parent is the given class.
func ChildOf(parent string) ConstructorShape {
	return ConstructorShape{Kind: Child, Parent: parent}
}

// IsChild reports whether the shape requires a parent.
func (s ConstructorShape) IsChild() bool {
	return s.Kind == Child
}

func (s ConstructorShape) String() string {
	if s.Kind == Child {
		return "ChildOf(" + s.Parent + ")"
	}
	return "Standalone"
}

// MethodBinding is one forwarded C function.
type MethodBinding struct {
	CName  string
	Name   string // CName without the type prefix
	Return decl.TypeRef
	// Params excludes the self handle when Self is set.
	Params []decl.Parameter
	// Self is true when the C function takes the instance handle first.
	Self bool
}

// EnumBinding carries an enum typedef through to synthesis. The current
// synthesizer emits nothing for it.
type EnumBinding struct {
	Name    string
	Members []decl.Enumerator
}

// Model is the synthesis input for one type.
type Model struct {
	TypeName  string // e.g. Button
	LowerName string // e.g. button
	Header    string // header the model was extracted from
	BaseClass string // base class header stem, included by every artifact

	Create decl.Declaration
	Shape  ConstructorShape
	// Handle is the owned C handle type (single pointer).
	Handle decl.TypeRef
	// Deleter is the C function that disposes of Handle.
	Deleter string
	// CtorParams are the create parameters the constructor forwards, without
	// the parent handle for child shapes.
	CtorParams []decl.Parameter

	Methods   []MethodBinding
	Enums     []EnumBinding
	Inherited map[string]struct{}
}

// MethodNames returns the method names in order.
func (m *Model) MethodNames() []string {
	names := make([]string, len(m.Methods))
	for i, mb := range m.Methods {
		names[i] = mb.Name
	}
	return names
}
