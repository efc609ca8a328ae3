package report

import (
	"fmt"
	"io"
	"path/filepath"
)

// PrintTree renders the report as a type → declarations tree:
//
//	Button (lv_button.h) generated → Button.hpp
//	├── functions
//	│   ├── lv_button_create
//	...
func PrintTree(w io.Writer, rep *Report) error {
	if _, err := fmt.Fprintf(w, "run %s: %s\n", rep.RunID, rep.Summary()); err != nil {
		return err
	}

	for i, e := range rep.Entries {
		last := i == len(rep.Entries)-1
		branch, indent := "├── ", "│   "
		if last {
			branch, indent = "└── ", "    "
		}

		if _, err := fmt.Fprintf(w, "%s%s\n", branch, entryHeading(e)); err != nil {
			return err
		}

		groups := entryGroups(e)
		for j, g := range groups {
			if err := printGroup(w, indent, g, j == len(groups)-1); err != nil {
				return err
			}
		}
	}
	return nil
}

type group struct {
	title string
	lines []string
}

func entryHeading(e Entry) string {
	name := e.Type
	if name == "" {
		name = "?"
	}
	heading := fmt.Sprintf("%s (%s) %s", name, filepath.Base(e.File), e.Status)
	switch {
	case e.Artifact != "":
		heading += " → " + e.Artifact
	case e.Reason != "":
		heading += ": " + e.Reason
	}
	return heading
}

func entryGroups(e Entry) []group {
	titles := []struct {
		kind  DeclKind
		title string
	}{
		{KindFunction, "functions"},
		{KindTypedef, "typedefs"},
		{KindVariable, "variables"},
		{KindInclude, "includes"},
		{KindFailure, "failures"},
		{KindDiagnostic, "diagnostics"},
	}

	var groups []group
	for _, t := range titles {
		var lines []string
		for _, d := range e.Decls {
			if d.Kind != t.kind {
				continue
			}
			line := d.Name
			if d.Detail != "" {
				line = fmt.Sprintf("%s (line %d): %s", d.Name, d.Line, d.Detail)
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			groups = append(groups, group{title: t.title, lines: lines})
		}
	}
	return groups
}

func printGroup(w io.Writer, indent string, g group, last bool) error {
	branch, childIndent := "├── ", "│   "
	if last {
		branch, childIndent = "└── ", "    "
	}
	if _, err := fmt.Fprintf(w, "%s%s%s\n", indent, branch, g.title); err != nil {
		return err
	}
	for i, line := range g.lines {
		leaf := "├── "
		if i == len(g.lines)-1 {
			leaf = "└── "
		}
		if _, err := fmt.Fprintf(w, "%s%s%s%s\n", indent, childIndent, leaf, line); err != nil {
			return err
		}
	}
	return nil
}
