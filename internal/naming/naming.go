// Package naming converts between C snake_case roots, header file names and
// C++ class names.
package naming

import (
	"path/filepath"
	"strings"
	"unicode"
)

// UpperCamel converts a snake_case root to UpperCamelCase:
// "button_matrix" -> "ButtonMatrix".
func UpperCamel(root string) string {
	var b strings.Builder
	for _, word := range strings.Split(root, "_") {
		if word == "" {
			continue
		}
		r := []rune(strings.ToLower(word))
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// TypeRoot derives the type root from a header path:
// "src/widgets/lv_button.h" with prefix "lv" -> "button".
func TypeRoot(path, prefix string) string {
	base := strings.TrimSuffix(filepath.Base(path), ".h")
	return strings.ToLower(strings.TrimPrefix(base, prefix+"_"))
}

// IncludeGuard returns the guard macro for a class artifact: "BUTTON_HPP".
func IncludeGuard(className, ext string) string {
	return strings.ToUpper(className) + "_" + strings.ToUpper(ext)
}
