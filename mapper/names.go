package mapper

import (
	"strings"
	"unicode"
)

// splitWords breaks an identifier into words at case changes, digits
// boundaries, underscores, dashes and spaces. Runs of capitals stay
// together: "UserID" -> [User ID], "HTTPServer" -> [HTTP Server].
func splitWords(name string) []string {
	var words []string
	runes := []rune(name)
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, string(runes[start:end]))
		}
		start = -1
	}
	for i, r := range runes {
		if r == '_' || r == '-' || r == ' ' || r == '.' {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush(i)
			start = i
		case unicode.IsUpper(r) && unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush(i)
			start = i
		case unicode.IsDigit(r) != unicode.IsDigit(prev) && unicode.IsLetter(prev) && !unicode.IsUpper(prev):
			flush(i)
			start = i
		}
	}
	flush(len(runes))
	return words
}

func pascalCase(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func camelCase(name string) string {
	words := splitWords(name)
	if len(words) == 0 {
		return name
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(words[0]))
	for _, w := range words[1:] {
		b.WriteString(pascalCase(strings.ToLower(w)))
	}
	return b.String()
}

func joinLower(name, sep string) string {
	words := splitWords(name)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, sep)
}

func snakeCase(name string) string { return joinLower(name, "_") }

func dashCase(name string) string { return joinLower(name, "-") }

// looseName folds case and drops separators so that "start_date",
// "Start-Date" and "STARTDATE" compare equal.
func looseName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || r == '-' || r == ' ' || r == '.' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// NameVariants lists the spellings tried for a name, in order: as written,
// PascalCase, camelCase, lower case, snake_case and dash-case.
func NameVariants(name string) []string {
	if name == "" {
		return nil
	}
	return unique([]string{
		name,
		pascalCase(name),
		camelCase(name),
		strings.ToLower(name),
		snakeCase(name),
		dashCase(name),
	})
}

func unique(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
