package ruby

import (
	"strings"
	"text/template"
)

// TemplateFuncs returns helpers available to output templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"pascalCase":   PascalCase,
		"constantName": ConstantName,
		"symbol":       Symbol,
		"comment":      Comment,
		"lower":        strings.ToLower,
		"upper":        strings.ToUpper,
		"join":         strings.Join,
		"trimSuffix":   strings.TrimSuffix,
	}
}

// Comment prefixes every line of s with "# ".
func Comment(s string) string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = "#"
			continue
		}
		lines[i] = "# " + line
	}
	return strings.Join(lines, "\n")
}
