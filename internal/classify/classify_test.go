package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/widgetgen/internal/binding"
	"github.com/mvp-joe/widgetgen/internal/decl"
)

// Test Plan for Classifier:
// - create(lv_obj_t* parent) is ChildOf the base class, without the parent in CtorParams
// - create(void) is Standalone; other first parameters are Standalone too
// - Missing create function yields ok=false
// - Methods keep declaration order, exclude create and foreign prefixes
// - Inherited names match either the C name or the stripped name
// - Classification is idempotent for the same inherited set
// - Leading parameters matching the owned handle are elided into Self; others
//   (including the generic handle on a non-generic type) give static methods
// - Handle and deleter follow the create return type
// - Enum typedefs become EnumBindings

var objPtr = decl.NamedType("lv_obj_t", 1)

func fn(name string, ret decl.TypeRef, params ...decl.Parameter) decl.Declaration {
	if params == nil {
		params = []decl.Parameter{}
	}
	return decl.Declaration{Name: name, Kind: decl.Function, Return: ret, Params: params, SourceFile: "/src/h.h"}
}

func param(name string, t decl.TypeRef) decl.Parameter {
	return decl.Parameter{Name: name, Type: t}
}

func buttonSet() *decl.Set {
	set := decl.NewSet("/src/lv_button.h")
	constChar := decl.NamedType("char", 1)
	constChar.Const = true
	set.Functions = []decl.Declaration{
		fn("lv_button_create", objPtr, param("parent", objPtr)),
		fn("lv_button_set_text", decl.NamedType("void", 0), param("obj", objPtr), param("txt", constChar)),
	}
	return set
}

func chartSet() *decl.Set {
	chart := decl.NamedType("lv_chart_t", 1)
	set := decl.NewSet("/src/lv_chart.h")
	set.Functions = []decl.Declaration{
		fn("lv_chart_create", chart),
		fn("lv_chart_set_type", decl.NamedType("void", 0), param("chart", chart), param("type", decl.NamedType("lv_chart_type_t", 0))),
		fn("lv_chart_get_point_count", decl.NamedType("uint32_t", 0), param("chart", chart)),
		fn("lv_chart_delete", decl.NamedType("void", 0), param("chart", chart)),
		fn("lv_chart_version", decl.NamedType("int", 0)),
		fn("lv_other_thing", decl.NamedType("void", 0)),
	}
	set.Typedefs = []decl.Declaration{
		{Name: "lv_chart_type_t", Kind: decl.Typedef, Enumerators: []decl.Enumerator{{Name: "LV_CHART_TYPE_LINE"}}},
		{Name: "lv_chart_t", Kind: decl.Typedef},
	}
	return set
}

func TestClassify_ChildOf(t *testing.T) {
	t.Parallel()

	m, ok := New(DefaultConvention(), nil).Classify(buttonSet(), "button")
	require.True(t, ok)

	assert.Equal(t, "Button", m.TypeName)
	assert.Equal(t, "button", m.LowerName)
	assert.Equal(t, binding.ChildOf("BaseClass"), m.Shape)
	assert.Empty(t, m.CtorParams)
	assert.Equal(t, objPtr, m.Handle)
	assert.Equal(t, "lv_obj_delete", m.Deleter)

	require.Len(t, m.Methods, 1)
	mb := m.Methods[0]
	assert.Equal(t, "set_text", mb.Name)
	assert.Equal(t, "lv_button_set_text", mb.CName)
	assert.True(t, mb.Self)
	require.Len(t, mb.Params, 1)
	assert.Equal(t, "txt", mb.Params[0].Name)
	assert.Equal(t, "const char*", mb.Params[0].Type.String())
}

func TestClassify_Standalone(t *testing.T) {
	t.Parallel()

	m, ok := New(DefaultConvention(), nil).Classify(chartSet(), "chart")
	require.True(t, ok)

	assert.Equal(t, binding.StandaloneShape(), m.Shape)
	assert.Equal(t, decl.NamedType("lv_chart_t", 1), m.Handle)
	assert.Equal(t, "lv_chart_delete", m.Deleter)
	assert.Equal(t, []string{"set_type", "get_point_count", "version"}, m.MethodNames())

	assert.True(t, m.Methods[0].Self)
	assert.True(t, m.Methods[1].Self)
	assert.Empty(t, m.Methods[1].Params)
	assert.False(t, m.Methods[2].Self)

	require.Len(t, m.Enums, 1)
	assert.Equal(t, "lv_chart_type_t", m.Enums[0].Name)
}

func TestClassify_StandaloneWithNonHandleFirstParam(t *testing.T) {
	t.Parallel()

	set := decl.NewSet("/src/lv_timer.h")
	timer := decl.NamedType("lv_timer_t", 1)
	set.Functions = []decl.Declaration{
		fn("lv_timer_create", timer, param("period", decl.NamedType("uint32_t", 0))),
		fn("lv_timer_del", decl.NamedType("void", 0), param("timer", timer)),
	}

	m, ok := New(DefaultConvention(), nil).Classify(set, "timer")
	require.True(t, ok)
	assert.False(t, m.Shape.IsChild())
	require.Len(t, m.CtorParams, 1)
	assert.Equal(t, "period", m.CtorParams[0].Name)
	assert.Equal(t, "lv_timer_del", m.Deleter)
	assert.Empty(t, m.Methods)
}

func TestClassify_NoCreate(t *testing.T) {
	t.Parallel()

	set := decl.NewSet("/src/lv_helpers.h")
	set.Functions = []decl.Declaration{fn("lv_helpers_clamp", decl.NamedType("int", 0))}

	m, ok := New(DefaultConvention(), nil).Classify(set, "helpers")
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestClassify_Inherited(t *testing.T) {
	t.Parallel()

	c := New(DefaultConvention(), []string{"get_point_count", "lv_chart_version"})

	first, ok := c.Classify(chartSet(), "chart")
	require.True(t, ok)
	assert.Equal(t, []string{"set_type"}, first.MethodNames())

	second, ok := c.Classify(chartSet(), "chart")
	require.True(t, ok)
	assert.Equal(t, first.MethodNames(), second.MethodNames())
}

func TestClassify_MethodsNeverIncludeCreate(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		set  *decl.Set
		root string
	}{
		{buttonSet(), "button"},
		{chartSet(), "chart"},
	} {
		m, ok := New(DefaultConvention(), nil).Classify(tc.set, tc.root)
		require.True(t, ok)
		for _, mb := range m.Methods {
			assert.NotEqual(t, m.Create.Name, mb.CName)
		}
	}
}

func TestClassify_DeleterMismatchFallsBack(t *testing.T) {
	t.Parallel()

	set := decl.NewSet("/src/lv_anim.h")
	anim := decl.NamedType("lv_anim_t", 1)
	set.Functions = []decl.Declaration{
		fn("lv_anim_create", anim),
		fn("lv_anim_delete", decl.NamedType("bool", 0), param("var", decl.NamedType("void", 1)), param("cb", decl.NamedType("int", 0))),
	}

	m, ok := New(DefaultConvention(), nil).Classify(set, "anim")
	require.True(t, ok)
	assert.Equal(t, "lv_obj_delete", m.Deleter)
	assert.Equal(t, []string{"delete"}, m.MethodNames())
	assert.False(t, m.Methods[0].Self)
}

func TestClassify_SelfMatchesOwnedHandle(t *testing.T) {
	t.Parallel()

	set := decl.NewSet("/src/lv_timer.h")
	timer := decl.NamedType("lv_timer_t", 1)
	set.Functions = []decl.Declaration{
		fn("lv_timer_create", timer),
		fn("lv_timer_pause", decl.NamedType("void", 0), param("timer", timer)),
		fn("lv_timer_attach", decl.NamedType("void", 0), param("obj", objPtr), param("period", decl.NamedType("uint32_t", 0))),
	}

	m, ok := New(DefaultConvention(), nil).Classify(set, "timer")
	require.True(t, ok)
	assert.Equal(t, timer, m.Handle)
	require.Equal(t, []string{"pause", "attach"}, m.MethodNames())

	pause, attach := m.Methods[0], m.Methods[1]
	assert.True(t, pause.Self)
	assert.Empty(t, pause.Params)

	// lv_obj_t* is the generic handle, not the handle this class owns.
	assert.False(t, attach.Self)
	require.Len(t, attach.Params, 2)
	assert.Equal(t, objPtr, attach.Params[0].Type)
}

func TestCreateName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "lv_button_matrix_create", New(DefaultConvention(), nil).CreateName("button_matrix"))
}
