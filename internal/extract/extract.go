// Package extract turns a parsed C translation unit into a decl.Set holding
// only the functions and typedefs physically declared in the header under
// analysis.
package extract

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/widgetgen/internal/cfront"
	"github.com/mvp-joe/widgetgen/internal/decl"
)

// Extract walks unit and returns the declarations whose provenance is path.
// It has no side effects and may run concurrently on different units.
func Extract(unit *cfront.Unit, path string) *decl.Set {
	e := &extractor{
		unit:      unit,
		path:      path,
		set:       decl.NewSet(path),
		functions: map[string]int{},
		typedefs:  map[string]int{},
	}
	e.set.Includes = append(e.set.Includes, unit.Copy.Inlined[path]...)

	cfront.Walk(unit.Root, func(n *sitter.Node) bool {
		switch n.Kind() {
		case "ERROR":
			if e.local(n) {
				e.fail(n, lastIdentifier(n, unit.Source), "unparseable declaration")
			}
			return false
		case "compound_statement", "field_declaration_list", "parameter_list":
			return false
		case "declaration", "function_definition":
			if e.local(n) && !e.mangled(n) {
				e.declaration(n)
			}
			return false
		case "type_definition":
			if e.local(n) && !e.mangled(n) {
				e.typedef(n)
			}
			return false
		case "preproc_include":
			if e.local(n) {
				e.include(n)
			}
			return false
		}
		return true
	})

	return e.set
}

type extractor struct {
	unit *cfront.Unit
	path string
	set  *decl.Set

	// first declaration line per name; #if/#else branches are both parsed
	functions map[string]int
	typedefs  map[string]int
}

// mangled records a failure for a declaration that only parsed with
// recovered syntax errors, typically an unexpanded macro in front of it.
func (e *extractor) mangled(n *sitter.Node) bool {
	if !n.HasError() {
		return false
	}
	e.fail(n, lastIdentifier(n, e.unit.Source), "unparseable declaration")
	return true
}

// firstSeen records name in seen and reports whether an earlier declaration
// already claimed it. Later declarations become diagnostics.
func (e *extractor) firstSeen(seen map[string]int, n *sitter.Node, name, what string) bool {
	if line, ok := seen[name]; ok {
		e.diagnose(n, name, fmt.Sprintf("duplicate %s declaration ignored, first declared at line %d", what, line))
		return false
	}
	seen[name] = e.line(n)
	return true
}

// local reports whether n was written in the file under analysis.
func (e *extractor) local(n *sitter.Node) bool {
	file, _ := e.unit.Origin(n)
	return file == e.path
}

func (e *extractor) line(n *sitter.Node) int {
	_, line := e.unit.Origin(n)
	return line
}

func (e *extractor) text(n *sitter.Node) string {
	return e.unit.Text(n)
}

func (e *extractor) fail(n *sitter.Node, symbol, reason string) {
	e.set.Failures = append(e.set.Failures, decl.Failure{Symbol: symbol, Line: e.line(n), Reason: reason})
}

func (e *extractor) diagnose(n *sitter.Node, symbol, msg string) {
	e.set.Diagnostics = append(e.set.Diagnostics, decl.Diagnostic{Symbol: symbol, Line: e.line(n), Message: msg})
}

func (e *extractor) include(n *sitter.Node) {
	pathNode := n.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	name := strings.Trim(e.text(pathNode), "\"<>")
	if name != "" {
		e.set.Includes = append(e.set.Includes, name)
	}
}

// declaration handles top-level declarations and function definitions.
// Only function declarators are recorded; plain variables are listed by name.
func (e *extractor) declaration(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	for _, d := range declarators(n, typeNode) {
		fn, depth, isFunc := functionShape(d)
		if !isFunc {
			if name := declaratorName(d, e.unit.Source); name != "" {
				e.set.Variables = append(e.set.Variables, name)
			}
			continue
		}
		e.function(n, typeNode, fn, depth)
	}
}

func (e *extractor) function(n, typeNode, fn *sitter.Node, depth int) {
	nameNode := fn.ChildByFieldName("declarator")
	if nameNode == nil || nameNode.Kind() != "identifier" {
		e.fail(n, "", "function declarator without a name")
		return
	}
	name := e.text(nameNode)
	if !e.firstSeen(e.functions, n, name, "function") {
		return
	}

	if depth > 1 {
		e.fail(n, name, "pointer-to-pointer return type is not supported")
		return
	}

	ret := e.resolveBase(typeNode)
	if !ret.IsUnresolved() {
		ret.Pointer = depth
		ret.Const = hasConst(n, e.unit.Source)
	} else if depth > 0 {
		ret.Raw += "*"
	}

	d := decl.Declaration{
		Name:       name,
		Kind:       decl.Function,
		Return:     ret,
		Params:     e.parameters(name, fn.ChildByFieldName("parameters")),
		SourceFile: e.path,
		Line:       e.line(n),
	}
	if ret.IsUnresolved() {
		e.diagnose(n, name, "return type not resolved: "+ret.Reason)
	}
	e.set.Functions = append(e.set.Functions, d)
}

func (e *extractor) parameters(fnName string, list *sitter.Node) []decl.Parameter {
	params := []decl.Parameter{}
	if list == nil {
		return params
	}

	for i := uint(0); i < list.NamedChildCount(); i++ {
		p := list.NamedChild(i)
		switch p.Kind() {
		case "parameter_declaration":
			params = append(params, e.parameter(fnName, p))
		case "variadic_parameter":
			params = append(params, decl.Parameter{
				Name:     "...",
				Type:     decl.UnresolvedType("...", "variadic"),
				Verbatim: "...",
			})
		}
	}

	// f(void) declares no parameters.
	if len(params) == 1 && params[0].Name == decl.UnnamedParam &&
		params[0].Type.Kind == decl.Named && params[0].Type.Base == "void" && params[0].Type.Pointer == 0 {
		return []decl.Parameter{}
	}
	return params
}

func (e *extractor) parameter(fnName string, p *sitter.Node) decl.Parameter {
	typeNode := p.ChildByFieldName("type")
	declarator := p.ChildByFieldName("declarator")
	verbatim := strings.Join(strings.Fields(e.text(p)), " ")

	param := decl.Parameter{Name: decl.UnnamedParam}
	if name := declaratorName(declarator, e.unit.Source); name != "" {
		param.Name = name
	}

	depth, shaped := pointerDepth(declarator)
	base := e.resolveBase(typeNode)

	switch {
	case !shaped:
		param.Type = decl.UnresolvedType(verbatim, "unsupported declarator")
		param.Verbatim = verbatim
	case base.IsUnresolved():
		param.Type = base
		param.Verbatim = verbatim
	case depth > 1:
		param.Type = decl.UnresolvedType(verbatim, "pointer depth greater than one")
		param.Verbatim = verbatim
		e.diagnose(p, fnName, "parameter "+param.Name+" has pointer depth greater than one")
	default:
		base.Pointer = depth
		base.Const = hasConst(p, e.unit.Source)
		param.Type = base
	}
	return param
}

func (e *extractor) typedef(n *sitter.Node) {
	typeNode := n.ChildByFieldName("type")
	decls := declarators(n, typeNode)
	if len(decls) == 0 {
		e.fail(n, "", "typedef without a name")
		return
	}

	enumerators := e.enumerators(typeNode)
	for _, d := range decls {
		name := typedefName(d, e.unit.Source)
		if name == "" {
			e.fail(n, "", "typedef without a name")
			continue
		}
		if !e.firstSeen(e.typedefs, n, name, "typedef") {
			continue
		}

		td := decl.Declaration{
			Name:        name,
			Kind:        decl.Typedef,
			Enumerators: enumerators,
			SourceFile:  e.path,
			Line:        e.line(n),
		}
		if depth, shaped := pointerDepth(d); shaped && depth <= 1 {
			if base := e.resolveTypedefBase(typeNode); !base.IsUnresolved() {
				base.Pointer = depth
				base.Const = hasConst(n, e.unit.Source)
				td.Underlying = &base
			}
		}
		e.set.Typedefs = append(e.set.Typedefs, td)
	}
}

func (e *extractor) enumerators(typeNode *sitter.Node) []decl.Enumerator {
	if typeNode == nil || typeNode.Kind() != "enum_specifier" {
		return nil
	}
	body := typeNode.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	var out []decl.Enumerator
	for i := uint(0); i < body.NamedChildCount(); i++ {
		en := body.NamedChild(i)
		if en.Kind() != "enumerator" {
			continue
		}
		name := e.text(en.ChildByFieldName("name"))
		if name == "" {
			continue
		}
		out = append(out, decl.Enumerator{
			Name:  name,
			Value: strings.Join(strings.Fields(e.text(en.ChildByFieldName("value"))), " "),
		})
	}
	return out
}

// resolveBase maps a type specifier to a base name. Anything that is not a
// plain name or a tagged reference comes back unresolved.
func (e *extractor) resolveBase(typeNode *sitter.Node) decl.TypeRef {
	if typeNode == nil {
		return decl.UnresolvedType("", "missing type")
	}
	text := strings.Join(strings.Fields(e.text(typeNode)), " ")
	switch typeNode.Kind() {
	case "type_identifier", "primitive_type", "sized_type_specifier":
		return decl.NamedType(text, 0)
	case "struct_specifier", "union_specifier", "enum_specifier":
		if typeNode.ChildByFieldName("body") == nil {
			if name := typeNode.ChildByFieldName("name"); name != nil {
				return decl.NamedType(tagKeyword(typeNode.Kind())+" "+e.text(name), 0)
			}
		}
		return decl.UnresolvedType(text, "inline "+tagKeyword(typeNode.Kind())+" definition")
	default:
		return decl.UnresolvedType(text, "unsupported type "+typeNode.Kind())
	}
}

// resolveTypedefBase is resolveBase that also accepts tagged definitions
// with a body, naming them by their tag.
func (e *extractor) resolveTypedefBase(typeNode *sitter.Node) decl.TypeRef {
	if typeNode != nil {
		switch typeNode.Kind() {
		case "struct_specifier", "union_specifier", "enum_specifier":
			if name := typeNode.ChildByFieldName("name"); name != nil {
				return decl.NamedType(tagKeyword(typeNode.Kind())+" "+e.text(name), 0)
			}
		}
	}
	return e.resolveBase(typeNode)
}

func tagKeyword(kind string) string {
	return strings.TrimSuffix(kind, "_specifier")
}

// declarators returns the declarator children of a declaration-like node.
func declarators(n, typeNode *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if typeNode != nil && child.StartByte() == typeNode.StartByte() && child.Kind() == typeNode.Kind() {
			continue
		}
		switch child.Kind() {
		case "function_declarator", "pointer_declarator", "identifier", "type_identifier",
			"init_declarator", "array_declarator", "parenthesized_declarator":
			out = append(out, child)
		}
	}
	return out
}

// functionShape recognises the two supported function declarator shapes: a
// direct function_declarator and pointer_declarator(s) wrapping one. depth is
// the number of pointer levels on the return type.
func functionShape(d *sitter.Node) (fn *sitter.Node, depth int, ok bool) {
	for cur := d; cur != nil; {
		switch cur.Kind() {
		case "function_declarator":
			inner := cur.ChildByFieldName("declarator")
			if inner != nil && inner.Kind() == "parenthesized_declarator" {
				// Function pointer variable, not a function.
				return nil, 0, false
			}
			return cur, depth, true
		case "pointer_declarator":
			depth++
			cur = cur.ChildByFieldName("declarator")
		default:
			return nil, 0, false
		}
	}
	return nil, 0, false
}

// pointerDepth counts pointer levels on a parameter or typedef declarator.
// Arrays decay to one pointer. shaped is false for function declarators,
// which are not modeled.
func pointerDepth(d *sitter.Node) (depth int, shaped bool) {
	for cur := d; cur != nil; {
		switch cur.Kind() {
		case "identifier", "type_identifier":
			return depth, true
		case "pointer_declarator", "abstract_pointer_declarator",
			"array_declarator", "abstract_array_declarator":
			depth++
			cur = cur.ChildByFieldName("declarator")
		default:
			return depth, false
		}
	}
	return depth, true
}

// declaratorName finds the identifier a declarator introduces.
func declaratorName(d *sitter.Node, src []byte) string {
	return findDeclared(d, src, "identifier")
}

// typedefName finds the type_identifier a typedef declarator introduces.
func typedefName(d *sitter.Node, src []byte) string {
	return findDeclared(d, src, "type_identifier")
}

func findDeclared(d *sitter.Node, src []byte, kind string) string {
	for cur := d; cur != nil; {
		if cur.Kind() == kind {
			return cur.Utf8Text(src)
		}
		switch cur.Kind() {
		case "parenthesized_declarator":
			cur = cur.NamedChild(0)
		default:
			cur = cur.ChildByFieldName("declarator")
		}
	}
	return ""
}

// hasConst reports whether n carries a const qualifier ahead of its declarator.
func hasConst(n *sitter.Node, src []byte) bool {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child.Kind() == "type_qualifier" && child.Utf8Text(src) == "const" {
			return true
		}
	}
	return false
}

// lastIdentifier returns the last identifier inside an unparseable subtree,
// which for a declaration mangled by an unknown macro is the declared name.
func lastIdentifier(n *sitter.Node, src []byte) string {
	name := ""
	cfront.Walk(n, func(c *sitter.Node) bool {
		if c.Kind() == "identifier" {
			name = string(src[c.StartByte():c.EndByte()])
		}
		return true
	})
	return name
}
