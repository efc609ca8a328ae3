// Package synth renders a binding.Model into a C++ wrapper class.
package synth

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/mvp-joe/widgetgen/internal/binding"
	"github.com/mvp-joe/widgetgen/internal/decl"
	"github.com/mvp-joe/widgetgen/internal/naming"
)

// DefaultExtension is the artifact file extension.
const DefaultExtension = "hpp"

// Artifact is one generated class.
type Artifact struct {
	FileName  string // e.g. Button.hpp
	ClassName string
	Text      string
	// Includes are the headers the artifact depends on, base class first.
	Includes []string
}

// Synthesizer renders models. Render is a pure function of the model and
// safe to call concurrently.
type Synthesizer struct {
	ext string
}

// New creates a synthesizer writing artifacts with the given extension.
func New(ext string) *Synthesizer {
	if ext == "" {
		ext = DefaultExtension
	}
	return &Synthesizer{ext: strings.TrimPrefix(ext, ".")}
}

// Synthesize renders m.
func (s *Synthesizer) Synthesize(m *binding.Model) (*Artifact, error) {
	if m == nil {
		return nil, fmt.Errorf("nil binding model")
	}

	view := s.view(m)
	var buf bytes.Buffer
	if err := classTemplate.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", m.TypeName, err)
	}

	return &Artifact{
		FileName:  m.TypeName + "." + s.ext,
		ClassName: m.TypeName,
		Text:      buf.String(),
		Includes:  []string{view.BaseInclude},
	}, nil
}

type classView struct {
	Guard       string
	BaseInclude string
	BaseClass   string
	ClassName   string
	Header      string
	Child       bool
	HandleBase  string
	CreateName  string
	Deleter     string
	CtorParams  string
	CtorArgs    string
	Methods     []methodView
}

type methodView struct {
	Static bool
	Return string
	Name   string
	Params string
	CName  string
	Args   string
}

func (s *Synthesizer) view(m *binding.Model) classView {
	v := classView{
		Guard:       naming.IncludeGuard(m.TypeName, s.ext),
		BaseInclude: m.BaseClass + "." + s.ext,
		BaseClass:   m.BaseClass,
		ClassName:   m.TypeName,
		Header:      baseName(m.Header),
		Child:       m.Shape.IsChild(),
		HandleBase:  m.Handle.Base,
		CreateName:  m.Create.Name,
		Deleter:     m.Deleter,
	}

	params, args := renderParams(m.CtorParams)
	if v.Child {
		v.CtorParams = m.BaseClass + "& parent"
		v.CtorArgs = "parent.getRoot().get()"
		if params != "" {
			v.CtorParams += ", " + params
			v.CtorArgs += ", " + args
		}
	} else {
		v.CtorParams = params
		v.CtorArgs = args
	}

	for _, mb := range m.Methods {
		params, args := renderParams(mb.Params)
		mv := methodView{
			Static: !mb.Self,
			Return: mb.Return.String(),
			Name:   safeIdent(mb.Name),
			Params: params,
			CName:  mb.CName,
			Args:   args,
		}
		if mb.Self {
			mv.Args = joinNonEmpty("getRoot().get()", args)
		}
		v.Methods = append(v.Methods, mv)
	}
	return v
}

// renderParams returns the declaration list and the forwarding argument list.
// Unresolved types are passed through as written.
func renderParams(params []decl.Parameter) (string, string) {
	decls := make([]string, 0, len(params))
	args := make([]string, 0, len(params))
	used := map[string]int{}

	for _, p := range params {
		if p.Name == "..." {
			decls = append(decls, "...")
			continue
		}
		if p.Type.IsUnresolved() && p.Verbatim != "" && p.Name != decl.UnnamedParam {
			used[p.Name]++
			decls = append(decls, p.Verbatim)
			args = append(args, p.Name)
			continue
		}

		name := uniqueName(safeIdent(p.Name), used)
		decls = append(decls, p.Type.String()+" "+name)
		args = append(args, name)
	}
	return strings.Join(decls, ", "), strings.Join(args, ", ")
}

func uniqueName(name string, used map[string]int) string {
	used[name]++
	if n := used[name]; n > 1 {
		return fmt.Sprintf("%s_%d", name, n)
	}
	return name
}

var cppKeywords = map[string]bool{
	"class": true, "delete": true, "new": true, "this": true, "template": true,
	"typename": true, "operator": true, "private": true, "protected": true,
	"public": true, "virtual": true, "namespace": true, "friend": true,
	"explicit": true, "export": true, "throw": true, "try": true, "catch": true,
	"using": true, "bool": true, "true": true, "false": true, "mutable": true,
}

// safeIdent appends an underscore to C++ keywords that are valid C names.
func safeIdent(name string) string {
	if cppKeywords[name] {
		return name + "_"
	}
	return name
}

func joinNonEmpty(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}

var classTemplate = template.Must(template.New("class").Parse(`#ifndef {{.Guard}}
#define {{.Guard}}

#include "{{.BaseInclude}}"
{{- if not .Child}}
#include <memory>
#include <utility>
{{- end}}

// {{.ClassName}} class, auto-generated from {{.Header}}
class {{.ClassName}}{{if .Child}} : public {{.BaseClass}}{{end}} {
public:
{{- if .Child}}
    explicit {{.ClassName}}({{.CtorParams}})
        : {{.BaseClass}}() {
        // setRoot releases the handle installed by {{.BaseClass}}() before
        // taking ownership, so each handle is deleted exactly once.
        setRoot(std::shared_ptr<{{.HandleBase}}>(
            {{.CreateName}}({{.CtorArgs}}),
            []({{.HandleBase}}* obj) { {{.Deleter}}(obj); }
        ));
    }
{{- else}}
    explicit {{.ClassName}}({{.CtorParams}}) {
        setRoot(std::shared_ptr<{{.HandleBase}}>(
            {{.CreateName}}({{.CtorArgs}}),
            []({{.HandleBase}}* obj) { {{.Deleter}}(obj); }
        ));
    }
{{- end}}

    ~{{.ClassName}}() = default;
{{range .Methods}}
    {{if .Static}}static {{end}}{{.Return}} {{.Name}}({{.Params}}) {
        return {{.CName}}({{.Args}});
    }
{{- end}}
{{- if not .Child}}

    std::shared_ptr<{{.HandleBase}}> getRoot() const { return root_; }
    void setRoot(std::shared_ptr<{{.HandleBase}}> root) { root_ = std::move(root); }

private:
    std::shared_ptr<{{.HandleBase}}> root_;
{{- end}}
};

#endif // {{.Guard}}
`))
