package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for HeaderDiscovery:
// - Default patterns find lv_*.h at any depth, including the root
// - *_private.h and .git are skipped
// - Non-prefixed headers and other extensions are skipped
// - Results are sorted
// - MatchAbs rejects paths outside the root
// - Invalid patterns are reported by New and Compile

func touch(t *testing.T, root string, rel string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("/* */\n"), 0644))
}

func TestDiscover_DefaultPatterns(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, rel := range []string{
		"lv_obj.h",
		"widgets/lv_slider.h",
		"widgets/lv_button.h",
		"widgets/lv_button_private.h",
		"widgets/deep/nested/lv_chart.h",
		"widgets/button.h",
		"widgets/lv_button.c",
		".git/lv_fake.h",
	} {
		touch(t, root, rel)
	}

	hd, err := New(root, DefaultInclude("lv"), DefaultIgnore())
	require.NoError(t, err)

	files, err := hd.Discover()
	require.NoError(t, err)

	var rels []string
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		rels = append(rels, filepath.ToSlash(rel))
	}

	assert.Equal(t, []string{
		"lv_obj.h",
		"widgets/deep/nested/lv_chart.h",
		"widgets/lv_button.h",
		"widgets/lv_slider.h",
	}, rels)
}

func TestMatchAbs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	hd, err := New(root, DefaultInclude("lv"), DefaultIgnore())
	require.NoError(t, err)

	assert.True(t, hd.MatchAbs(filepath.Join(root, "src", "lv_label.h")))
	assert.False(t, hd.MatchAbs(filepath.Join(root, "src", "lv_label_private.h")))
	assert.False(t, hd.MatchAbs(filepath.Join(filepath.Dir(root), "lv_label.h")))
}

func TestCustomPrefix(t *testing.T) {
	t.Parallel()

	hd, err := New(t.TempDir(), DefaultInclude("gui"), nil)
	require.NoError(t, err)

	assert.True(t, hd.Match("gui_window.h"))
	assert.True(t, hd.Match("a/b/gui_window.h"))
	assert.False(t, hd.Match("a/lv_window.h"))
}

func TestInvalidPatterns(t *testing.T) {
	t.Parallel()

	_, err := New(t.TempDir(), []string{"[a-"}, nil)
	assert.Error(t, err)
	assert.Error(t, Compile([]string{"**/*.h", "[a-"}))
	assert.NoError(t, Compile(DefaultInclude("lv")))
}
