package cfront

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// maxIncludeDepth bounds recursive include inlining.
const maxIncludeDepth = 32

var quotedIncludeRe = regexp.MustCompile(`^\s*#\s*include\s+"([^"]+)"`)

// Segment maps a byte range of the parse copy back to the file it came from.
type Segment struct {
	Start int
	End   int
	File  string
	Line  int // line in File where the segment starts (1-based)
}

// ParseCopy is the synthetic text handed to the C parser together with its
// source map.
type ParseCopy struct {
	Source   []byte
	Segments []Segment
	// Inlined lists, per including file, the quoted includes pasted into the copy.
	Inlined map[string][]string
}

// Origin returns the file and line that produced the byte at offset.
func (pc *ParseCopy) Origin(offset int) (string, int) {
	for _, seg := range pc.Segments {
		if offset >= seg.Start && offset < seg.End {
			line := seg.Line + bytes.Count(pc.Source[seg.Start:offset], []byte("\n"))
			return seg.File, line
		}
	}
	if n := len(pc.Segments); n > 0 && offset >= pc.Segments[n-1].End {
		seg := pc.Segments[n-1]
		return seg.File, seg.Line + bytes.Count(pc.Source[seg.Start:seg.End], []byte("\n"))
	}
	return "", 0
}

// PrepareParseCopy builds the parse copy for the header at path. Erase macros
// and blocks guarded by undefined macros are blanked in place so byte offsets
// and line numbers stay aligned with the original text.
func PrepareParseCopy(path string, src []byte, opts Options) *ParseCopy {
	b := &copyBuilder{
		opts:    opts,
		seen:    map[string]bool{path: true},
		inlined: map[string][]string{},
		read:    os.ReadFile,
	}
	b.add(path, src, 0)
	return &ParseCopy{Source: b.buf.Bytes(), Segments: b.segments, Inlined: b.inlined}
}

type copyBuilder struct {
	opts     Options
	buf      bytes.Buffer
	segments []Segment
	seen     map[string]bool
	inlined  map[string][]string
	read     func(string) ([]byte, error)
}

func (b *copyBuilder) add(path string, src []byte, depth int) {
	text := BlankUndefinedBlocks(src, b.opts.UndefinedMacros)
	text = EraseMacros(text, b.opts.EraseMacros)

	segStart := b.buf.Len()
	segLine := 1
	lines := bytes.SplitAfter(text, []byte("\n"))
	for i, line := range lines {
		if b.opts.InlineIncludes && depth < maxIncludeDepth {
			if m := quotedIncludeRe.FindSubmatch(line); m != nil {
				if resolved, ok := b.resolve(filepath.Dir(path), string(m[1])); ok && !b.seen[resolved] {
					if data, err := b.read(resolved); err == nil {
						b.closeSegment(path, segStart, segLine)
						b.seen[resolved] = true
						b.inlined[path] = append(b.inlined[path], string(m[1]))
						b.add(resolved, data, depth+1)
						if b.buf.Len() > 0 && b.buf.Bytes()[b.buf.Len()-1] != '\n' {
							b.buf.WriteByte('\n')
							b.segments[len(b.segments)-1].End = b.buf.Len()
						}
						segStart = b.buf.Len()
						segLine = i + 2
						continue
					}
				}
			}
		}
		b.buf.Write(line)
	}
	b.closeSegment(path, segStart, segLine)
}

func (b *copyBuilder) closeSegment(path string, start, line int) {
	if b.buf.Len() <= start {
		return
	}
	b.segments = append(b.segments, Segment{Start: start, End: b.buf.Len(), File: path, Line: line})
}

// resolve looks a quoted include up next to the including file, then in the
// configured include paths.
func (b *copyBuilder) resolve(dir, name string) (string, bool) {
	candidates := append([]string{dir}, b.opts.IncludePaths...)
	for _, d := range candidates {
		p := filepath.Join(d, name)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return CanonicalPath(p), true
		}
	}
	return "", false
}

// EraseMacros blanks every invocation of the named macros, including a
// balanced parenthesised argument list when one follows. It stands in for
// predefining the macro to nothing.
func EraseMacros(src []byte, names []string) []byte {
	if len(names) == 0 {
		return src
	}
	out := append([]byte(nil), src...)
	for _, name := range names {
		if name == "" {
			continue
		}
		for from := 0; ; {
			idx := bytes.Index(out[from:], []byte(name))
			if idx < 0 {
				break
			}
			start := from + idx
			end := start + len(name)
			if (start > 0 && isIdentByte(out[start-1])) || (end < len(out) && isIdentByte(out[end])) {
				from = end
				continue
			}
			if close, ok := balancedArgs(out, end); ok {
				end = close
			}
			blank(out, start, end)
			from = end
		}
	}
	return out
}

// balancedArgs returns the offset just past a parenthesised group starting
// at or after pos (skipping blanks). ok is false when no group follows.
func balancedArgs(src []byte, pos int) (int, bool) {
	i := pos
	for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
		i++
	}
	if i >= len(src) || src[i] != '(' {
		return pos, false
	}
	depth := 0
	for ; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return pos, false
}

type condFrame struct {
	owner    bool // opened by a directive on an undefined macro
	blanking bool
}

// BlankUndefinedBlocks removes conditional blocks whose guard names a macro
// that is undefined for a C parse (typically __cplusplus). #ifdef X blocks
// are blanked up to #else/#endif; #ifndef X keeps the body and blanks the
// #else branch. Directives of owned blocks are blanked too.
func BlankUndefinedBlocks(src []byte, undefined []string) []byte {
	if len(undefined) == 0 {
		return src
	}
	isUndef := make(map[string]bool, len(undefined))
	for _, name := range undefined {
		isUndef[name] = true
	}

	out := append([]byte(nil), src...)
	var stack []condFrame
	blanking := func() bool {
		for _, f := range stack {
			if f.blanking {
				return true
			}
		}
		return false
	}

	offset := 0
	for _, line := range bytes.SplitAfter(src, []byte("\n")) {
		start, end := offset, offset+len(line)
		offset = end

		directive, arg := splitDirective(line)
		switch directive {
		case "ifdef", "if":
			name := arg
			if directive == "if" {
				name = definedName(arg)
			}
			if isUndef[name] {
				stack = append(stack, condFrame{owner: true, blanking: true})
				blank(out, start, end)
				continue
			}
			stack = append(stack, condFrame{})
		case "ifndef":
			if isUndef[arg] {
				stack = append(stack, condFrame{owner: true})
				blank(out, start, end)
				continue
			}
			stack = append(stack, condFrame{})
		case "else":
			if n := len(stack); n > 0 && stack[n-1].owner {
				stack[n-1].blanking = !stack[n-1].blanking
				blank(out, start, end)
				continue
			}
		case "elif":
			if n := len(stack); n > 0 && stack[n-1].owner {
				if stack[n-1].blanking {
					// The guarded branch is gone; the #elif becomes a plain #if
					// whose #endif is kept.
					stack[n-1] = condFrame{}
					if idx := bytes.Index(out[start:end], []byte("elif")); idx >= 0 {
						copy(out[start+idx:], []byte("if  "))
					}
				} else {
					stack[n-1].blanking = true
					blank(out, start, end)
				}
				continue
			}
		case "endif":
			if n := len(stack); n > 0 {
				top := stack[n-1]
				stack = stack[:n-1]
				if top.owner {
					blank(out, start, end)
					continue
				}
			}
		}
		if blanking() {
			blank(out, start, end)
		}
	}
	return out
}

// splitDirective returns the preprocessor directive name and its first
// argument for a line such as "#  ifdef FOO". Non-directive lines return "".
func splitDirective(line []byte) (string, string) {
	s := strings.TrimSpace(string(line))
	if !strings.HasPrefix(s, "#") {
		return "", ""
	}
	s = strings.TrimSpace(s[1:])
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return "", ""
	}
	name := fields[0]
	if strings.HasPrefix(name, "if") && strings.Contains(name, "(") {
		// "#if(defined X)"
		return "if", strings.TrimPrefix(s, "if")
	}
	return name, strings.TrimSpace(strings.TrimPrefix(s, name))
}

var definedRe = regexp.MustCompile(`^\(?\s*defined\s*\(?\s*(\w+)\s*\)?\s*\)?$`)

// definedName extracts X from "defined(X)" or "defined X". Compound
// conditions return "".
func definedName(expr string) string {
	if i := strings.Index(expr, "//"); i >= 0 {
		expr = expr[:i]
	}
	m := definedRe.FindStringSubmatch(strings.TrimSpace(expr))
	if m == nil {
		return ""
	}
	return m[1]
}

func blank(b []byte, start, end int) {
	for i := start; i < end && i < len(b); i++ {
		if b[i] != '\n' && b[i] != '\r' {
			b[i] = ' '
		}
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// CanonicalPath returns the absolute, cleaned form of path with symlinks
// resolved when possible.
func CanonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}
