package cfront

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sitter "github.com/tree-sitter/go-tree-sitter"
)

// Test Plan for the parser:
// - A well-formed header parses without errors and the root is translation_unit
// - __attribute__ and __cplusplus guards do not produce syntax errors
// - Strict mode turns a syntax error into *ParseError with file and line
// - Non-strict is the default and returns the tree with errors
// - ParseFile reports unreadable files as *FileReadError
// - A cancelled context is returned before parsing
// - Walk can prune subtrees

const wellFormed = `#ifndef LV_LABEL_H
#define LV_LABEL_H
#ifdef __cplusplus
extern "C" {
#endif
typedef struct _lv_obj_t lv_obj_t;
lv_obj_t * lv_label_create(lv_obj_t * parent) __attribute__((warn_unused_result));
void lv_label_set_text(lv_obj_t * obj, const char * text);
#ifdef __cplusplus
}
#endif
#endif
`

func TestParse_WellFormed(t *testing.T) {
	t.Parallel()

	unit, err := NewParser(DefaultOptions()).Parse(context.Background(), "/src/lv_label.h", []byte(wellFormed))
	require.NoError(t, err)
	defer unit.Close()

	assert.Equal(t, "translation_unit", unit.Root.Kind())
	assert.False(t, unit.Root.HasError())
	assert.Equal(t, "/src/lv_label.h", unit.Path)
}

func TestParse_StrictSyntaxError(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.Strict = true

	src := []byte("int a;\nvoid g(int x int y);\n")
	_, err := NewParser(opts).Parse(context.Background(), "/src/lv_bad.h", src)
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "/src/lv_bad.h", perr.File)
	assert.Equal(t, 2, perr.Line)
	assert.Greater(t, perr.Column, 0)
	assert.Contains(t, err.Error(), "/src/lv_bad.h:2:")
}

func TestParse_NonStrictKeepsTree(t *testing.T) {
	t.Parallel()

	assert.False(t, DefaultOptions().Strict)

	unit, err := NewParser(DefaultOptions()).Parse(context.Background(), "/src/lv_bad.h", []byte("int a;\nvoid g(int x int y);\n"))
	require.NoError(t, err)
	defer unit.Close()

	assert.True(t, unit.Root.HasError())
}

func TestParseFile_ReadError(t *testing.T) {
	t.Parallel()

	_, err := NewParser(DefaultOptions()).ParseFile(context.Background(), filepath.Join(t.TempDir(), "lv_missing.h"))
	require.Error(t, err)

	var rerr *FileReadError
	require.True(t, errors.As(err, &rerr))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseFile_CanonicalPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "lv_label.h"), wellFormed)

	unit, err := NewParser(DefaultOptions()).ParseFile(context.Background(), filepath.Join(dir, ".", "lv_label.h"))
	require.NoError(t, err)
	defer unit.Close()

	assert.Equal(t, path, unit.Path)
	file, line := unit.Origin(unit.Root)
	assert.Equal(t, path, file)
	assert.Equal(t, 1, line)
}

func TestParse_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser(DefaultOptions()).Parse(ctx, "/src/lv_label.h", []byte(wellFormed))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWalk_Prunes(t *testing.T) {
	t.Parallel()

	unit, err := NewParser(DefaultOptions()).Parse(context.Background(), "/src/lv_label.h", []byte(wellFormed))
	require.NoError(t, err)
	defer unit.Close()

	var all, pruned int
	Walk(unit.Root, func(n *sitter.Node) bool {
		all++
		return true
	})
	Walk(unit.Root, func(n *sitter.Node) bool {
		pruned++
		return n.Kind() != "preproc_ifdef"
	})

	assert.Greater(t, all, pruned)
}
