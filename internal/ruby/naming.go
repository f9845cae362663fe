package ruby

import (
	"strings"
	"unicode"
)

// PascalCase joins the words of s with each word capitalized and the rest of
// the word lowercased: "testExample", "test-example" and "test_example" all
// become "TestExample".
func PascalCase(s string) string {
	var result strings.Builder
	for _, word := range splitWords(s) {
		result.WriteString(capitalize(word))
	}
	return result.String()
}

// ConstantName returns a valid Ruby constant for s.
func ConstantName(s string) string {
	result := PascalCase(s)
	if result == "" {
		return "X"
	}
	if unicode.IsDigit(rune(result[0])) {
		return "X" + result
	}
	return result
}

// splitWords breaks s on any non-alphanumeric rune and on case changes,
// keeping acronyms together: "HTTPServer" splits into "HTTP" and "Server".
func splitWords(s string) []string {
	var words []string
	var current []rune

	flush := func() {
		if len(current) > 0 {
			words = append(words, string(current))
			current = current[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush()
			continue
		}

		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			switch {
			case unicode.IsLower(prev) || unicode.IsDigit(prev):
				flush()
			case unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
				flush()
			}
		}

		current = append(current, r)
	}
	flush()

	return words
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	for i := 1; i < len(runes); i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

// Symbol renders name as a Ruby symbol literal, quoting it when it is not a
// bare identifier.
func Symbol(name string) string {
	if isIdentifier(name) {
		return ":" + name
	}
	var b strings.Builder
	b.WriteString(`:"`)
	for _, r := range name {
		switch r {
		case '"', '\\':
			b.WriteRune('\\')
			b.WriteRune(r)
		case '#':
			b.WriteString(`\#`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString(`"`)
	return b.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || (r < unicode.MaxASCII && unicode.IsLetter(r)):
		case i > 0 && r < unicode.MaxASCII && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}
