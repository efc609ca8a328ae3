// Package classify applies the naming and signature conventions of a
// widget-style C API to a decl.Set, deciding constructor shape and method
// list for one type.
package classify

import (
	"strings"

	"github.com/mvp-joe/widgetgen/internal/binding"
	"github.com/mvp-joe/widgetgen/internal/decl"
	"github.com/mvp-joe/widgetgen/internal/naming"
)

// Convention describes the C API being wrapped.
type Convention struct {
	Prefix      string       // "lv"
	BaseHandle  decl.TypeRef // lv_obj_t*, the generic base handle
	BaseClass   string       // C++ base class name
	BaseDeleter string       // disposes of a BaseHandle
}

// DefaultConvention is the LVGL convention.
func DefaultConvention() Convention {
	return Convention{
		Prefix:      "lv",
		BaseHandle:  decl.NamedType("lv_obj_t", 1),
		BaseClass:   "BaseClass",
		BaseDeleter: "lv_obj_delete",
	}
}

// Classifier builds binding models. It holds no mutable state and can be
// shared across goroutines.
type Classifier struct {
	conv      Convention
	inherited map[string]struct{}
}

// New creates a classifier. inherited lists names already provided by the
// base class; an entry suppresses a method whose C name or stripped name
// matches it.
func New(conv Convention, inherited []string) *Classifier {
	set := make(map[string]struct{}, len(inherited))
	for _, name := range inherited {
		set[name] = struct{}{}
	}
	return &Classifier{conv: conv, inherited: set}
}

// CreateName returns the create function name for root.
func (c *Classifier) CreateName(root string) string {
	return c.typePrefix(root) + "create"
}

func (c *Classifier) typePrefix(root string) string {
	return c.conv.Prefix + "_" + root + "_"
}

// Classify returns the model for root, or ok=false when set has no create
// function for it. A missing create function is not an error.
//
// Methods are the remaining <prefix>_<root>_* functions in declaration order.
// A header-local deleter chosen for the handle is not a method: the class
// disposes of the handle through it, so it is left out of the list. A
// leading parameter of the owned handle type becomes the implicit self.
func (c *Classifier) Classify(set *decl.Set, root string) (*binding.Model, bool) {
	create, ok := set.Function(c.CreateName(root))
	if !ok {
		return nil, false
	}

	m := &binding.Model{
		TypeName:  naming.UpperCamel(root),
		LowerName: root,
		Header:    set.File,
		BaseClass: c.conv.BaseClass,
		Create:    create,
		Inherited: c.inherited,
	}

	m.Shape = c.shape(create)
	m.CtorParams = create.Params
	if m.Shape.IsChild() {
		m.CtorParams = create.Params[1:]
	}

	m.Handle = c.conv.BaseHandle
	if r := create.Return; r.Kind == decl.Named && r.Pointer == 1 {
		m.Handle = decl.NamedType(r.Base, 1)
	}
	m.Deleter = c.deleter(set, root, m.Handle)

	prefix := c.typePrefix(root)
	for _, fn := range set.Functions {
		if fn.Name == create.Name || fn.Name == m.Deleter || !strings.HasPrefix(fn.Name, prefix) {
			continue
		}
		name := strings.TrimPrefix(fn.Name, prefix)
		if c.isInherited(fn.Name, name) {
			continue
		}
		m.Methods = append(m.Methods, method(fn, name, m.Handle))
	}

	for _, td := range set.Typedefs {
		if len(td.Enumerators) == 0 {
			continue
		}
		m.Enums = append(m.Enums, binding.EnumBinding{Name: td.Name, Members: td.Enumerators})
	}

	return m, true
}

// shape is ChildOf the generic base when the first create parameter is the
// base handle, Standalone otherwise. The concrete parent type is not inferred.
func (c *Classifier) shape(create decl.Declaration) binding.ConstructorShape {
	if len(create.Params) == 0 || !create.Params[0].Type.Same(c.conv.BaseHandle) {
		return binding.StandaloneShape()
	}
	return binding.ChildOf(c.conv.BaseClass)
}

// deleter picks the disposal function for handle.
func (c *Classifier) deleter(set *decl.Set, root string, handle decl.TypeRef) string {
	if handle.Same(c.conv.BaseHandle) {
		return c.conv.BaseDeleter
	}
	for _, suffix := range []string{"delete", "del"} {
		name := c.typePrefix(root) + suffix
		if fn, ok := set.Function(name); ok && len(fn.Params) == 1 && fn.Params[0].Type.Same(handle) {
			return name
		}
	}
	return c.conv.BaseDeleter
}

func (c *Classifier) isInherited(cName, name string) bool {
	if _, ok := c.inherited[cName]; ok {
		return true
	}
	_, ok := c.inherited[name]
	return ok
}

// method elides a leading handle parameter into the implicit self.
func method(fn decl.Declaration, name string, handle decl.TypeRef) binding.MethodBinding {
	mb := binding.MethodBinding{
		CName:  fn.Name,
		Name:   name,
		Return: fn.Return,
		Params: fn.Params,
	}
	if len(fn.Params) > 0 && fn.Params[0].Type.Same(handle) {
		mb.Self = true
		mb.Params = fn.Params[1:]
	}
	return mb
}
