package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var columnSuffix = regexp.MustCompile(`(?is)^(.*?)((?:\(\d+\))?(?:\s+(?:ASC|DESC))?(?:\s+NULLS\s+(?:FIRST|LAST))?)$`)

// SplitTopLevel splits s on commas that are outside quoted literals and
// parentheses. Parts are trimmed and empty parts dropped. With
// backslashEscapes set, a backslash escapes the next character inside a
// single- or double-quoted literal (MySQL behaviour).
func SplitTopLevel(s string, backslashEscapes bool) []string {
	var (
		parts []string
		depth int
		quote byte
		start int
	)
	push := func(end int) {
		if p := strings.TrimSpace(s[start:end]); p != "" {
			parts = append(parts, p)
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch {
			case backslashEscapes && c == '\\' && (quote == '\'' || quote == '"'):
				i++
			case c == quote:
				if i+1 < len(s) && s[i+1] == quote {
					i++
				} else {
					quote = 0
				}
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '[':
			quote = ']'
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				push(i)
				start = i + 1
			}
		}
	}
	push(len(s))
	return parts
}

// QuoteColumnList re-quotes each column of a comma-joined index column list.
// Prefix lengths and sort order suffixes ("name(10)", "id DESC") are kept;
// expression parts starting with "(" are passed through.
func QuoteColumnList(list string, quote func(string) string) string {
	parts := SplitTopLevel(list, false)
	for i, p := range parts {
		if strings.HasPrefix(p, "(") {
			continue
		}
		m := columnSuffix.FindStringSubmatch(p)
		if m == nil || m[1] == "" {
			parts[i] = quote(p)
			continue
		}
		parts[i] = quote(m[1]) + m[2]
	}
	return strings.Join(parts, ", ")
}

// QuoteReference re-quotes the table and columns of a canonical
// "table(cols) ACTIONS" foreign key reference.
func QuoteReference(ref string, quote func(string) string) string {
	open := strings.IndexByte(ref, '(')
	closing := strings.IndexByte(ref, ')')
	if open <= 0 || closing < open {
		return ref
	}
	out := fmt.Sprintf("%s (%s)", quote(ref[:open]), QuoteColumnList(ref[open+1:closing], quote))
	if rest := strings.TrimSpace(ref[closing+1:]); rest != "" {
		out += " " + rest
	}
	return out
}
