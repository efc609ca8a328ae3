// Package discovery finds candidate headers under an input root.
package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// HeaderDiscovery walks a directory tree and returns the headers matching the
// include patterns and none of the ignore patterns.
type HeaderDiscovery struct {
	rootDir         string
	includePatterns []compiledPattern
	ignorePatterns  []compiledPattern
}

// DefaultInclude matches object headers: lv_*.h anywhere in the tree.
func DefaultInclude(prefix string) []string {
	return []string{"**/" + prefix + "_*.h"}
}

// DefaultIgnore skips private headers and VCS metadata.
func DefaultIgnore() []string {
	return []string{"**/*_private.h", ".git/**"}
}

// New compiles the patterns. Patterns are matched against slash-separated
// paths relative to rootDir.
func New(rootDir string, include, ignore []string) (*HeaderDiscovery, error) {
	hd := &HeaderDiscovery{rootDir: rootDir}

	var err error
	if hd.includePatterns, err = compile(include); err != nil {
		return nil, err
	}
	if hd.ignorePatterns, err = compile(ignore); err != nil {
		return nil, err
	}
	return hd, nil
}

// Compile checks that every pattern is a valid glob.
func Compile(patterns []string) error {
	_, err := compile(patterns)
	return err
}

func compile(patterns []string) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		out = append(out, compiledPattern{pattern: pattern, glob: g})
	}
	return out, nil
}

// Discover returns the candidate headers in lexical order.
func (hd *HeaderDiscovery) Discover() ([]string, error) {
	headers := []string{}

	err := filepath.Walk(hd.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(hd.rootDir, path)
		if err != nil {
			return err
		}

		if hd.Match(filepath.ToSlash(relPath)) {
			headers = append(headers, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(headers)
	return headers, nil
}

// Match reports whether a slash-separated relative path is a candidate.
func (hd *HeaderDiscovery) Match(relPath string) bool {
	if hd.shouldIgnore(relPath) {
		return false
	}
	return matchesAnyPattern(relPath, hd.includePatterns)
}

// MatchAbs is Match for an absolute path under the root.
func (hd *HeaderDiscovery) MatchAbs(path string) bool {
	rel, err := filepath.Rel(hd.rootDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return hd.Match(filepath.ToSlash(rel))
}

func (hd *HeaderDiscovery) shouldIgnore(relPath string) bool {
	if matchesAnyPattern(relPath, hd.ignorePatterns) {
		return true
	}
	// "node_modules" should also match "node_modules/**".
	return matchesAnyPattern(relPath+"/**", hd.ignorePatterns)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// A root-level file has no slash, so "**/lv_*.h" is retried as "lv_*.h".
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if strings.HasPrefix(cp.pattern, "**/") {
				simplified := strings.TrimPrefix(cp.pattern, "**/")
				if g, err := glob.Compile(simplified, '/'); err == nil && g.Match(path) {
					return true
				}
			}
		}
	}
	return false
}
