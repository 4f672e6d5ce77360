// Package tagging turns the free-text tag field into a set of tag names.
package tagging

import (
	"sort"
	"strings"
)

// MaxTagLength bounds a single tag name.
const MaxTagLength = 50

// Parse splits input into unique, sorted tag names.
//
// Double quotes group words into one tag. Outside quotes the text is split on commas
// when it contains any, otherwise on whitespace:
//
//	`go web`          -> [go web]
//	`go, web dev`     -> [go "web dev"]
//	`"web dev" go`    -> [go "web dev"]
func Parse(input string) []string {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	if !strings.ContainsAny(input, `,"`) {
		return normalize(strings.Fields(input))
	}

	var (
		words     []string
		unquoted  strings.Builder
		quoted    strings.Builder
		openQuote bool
	)
	for _, r := range input {
		switch {
		case r == '"' && !openQuote:
			openQuote = true
			quoted.Reset()
		case r == '"' && openQuote:
			openQuote = false
			if w := strings.TrimSpace(quoted.String()); w != "" {
				words = append(words, w)
			}
		case openQuote:
			quoted.WriteRune(r)
		default:
			unquoted.WriteRune(r)
		}
	}
	if openQuote {
		// unterminated quote: the tail is ordinary text
		unquoted.WriteString(quoted.String())
	}

	rest := unquoted.String()
	if strings.Contains(rest, ",") {
		for _, part := range strings.Split(rest, ",") {
			words = append(words, strings.TrimSpace(part))
		}
	} else {
		words = append(words, strings.Fields(rest)...)
	}

	return normalize(words)
}

// Format renders names back into an editable string, quoting names with spaces or commas.
func Format(names []string) string {
	parts := make([]string, 0, len(names))
	useComma := false
	for _, n := range names {
		if strings.Contains(n, ",") {
			useComma = true
		}
	}
	for _, n := range names {
		if strings.ContainsAny(n, ` ,`) {
			n = `"` + n + `"`
		}
		parts = append(parts, n)
	}
	if useComma {
		return strings.Join(parts, ", ")
	}
	return strings.Join(parts, " ")
}

func normalize(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
