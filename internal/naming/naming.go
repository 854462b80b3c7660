// Package naming derives TypeScript identifiers from directory and file names.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TypeScript reserved words from Appendix B.
var reservedWords = map[string]bool{
	"break":      true,
	"case":       true,
	"catch":      true,
	"class":      true,
	"const":      true,
	"continue":   true,
	"debugger":   true,
	"default":    true,
	"delete":     true,
	"do":         true,
	"else":       true,
	"enum":       true,
	"export":     true,
	"extends":    true,
	"false":      true,
	"finally":    true,
	"for":        true,
	"function":   true,
	"if":         true,
	"implements": true,
	"import":     true,
	"in":         true,
	"instanceof": true,
	"interface":  true,
	"let":        true,
	"new":        true,
	"null":       true,
	"package":    true,
	"private":    true,
	"protected":  true,
	"public":     true,
	"return":     true,
	"static":     true,
	"super":      true,
	"switch":     true,
	"this":       true,
	"throw":      true,
	"true":       true,
	"try":        true,
	"type":       true,
	"typeof":     true,
	"var":        true,
	"void":       true,
	"while":      true,
	"with":       true,
	"yield":      true,
}

func isAlnum(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// Sanitize turns a directory name into a namespace identifier: everything
// outside [0-9A-Za-z] is dropped, the rest is lower-cased and the first
// letter capitalised. "user-profiles" becomes "Userprofiles".
func Sanitize(name string) string {
	lower := strings.ToLower(strings.Map(func(r rune) rune {
		if isAlnum(r) {
			return r
		}
		return -1
	}, name))
	if lower == "" {
		return ""
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// Variable returns a value identifier for name. Characters that cannot
// appear in an identifier are dropped and reserved words get a trailing
// underscore.
func Variable(name string) string {
	v := strings.Map(func(r rune) rune {
		if isAlnum(r) || r == '_' || r == '$' {
			return r
		}
		return -1
	}, name)
	if v == "" {
		return "_"
	}
	if unicode.IsDigit(rune(v[0])) {
		v = "_" + v
	}
	if reservedWords[v] {
		return v + "_"
	}
	return v
}

// TypeName joins the alphanumeric words of name in PascalCase:
// "response.201" becomes "Response201", "user_profile" becomes "UserProfile".
func TypeName(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return !isAlnum(r) })
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		if unicode.IsLetter(rune(w[0])) {
			b.WriteString(caser.String(w))
		} else {
			b.WriteString(w)
		}
	}
	out := b.String()
	if out == "" {
		return "_"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "_" + out
	}
	return out
}

// NeedsQuoting reports whether a property name must be quoted in a
// TypeScript object type.
func NeedsQuoting(name string) bool {
	if name == "" {
		return true
	}
	if unicode.IsDigit(rune(name[0])) {
		return true
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '$' {
			return true
		}
	}
	return false
}
