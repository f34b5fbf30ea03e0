package normalize

import (
	"strings"
	"unicode"
)

// Tokenize splits a definition on whitespace that is outside quoted literals
// and parentheses, so "DECIMAL(10, 2)" and "'Smith, John'" stay whole. With
// backslashEscapes set, a backslash escapes the next character inside a
// single-quoted literal.
func Tokenize(raw string, backslashEscapes bool) []string {
	var (
		tokens []string
		cur    strings.Builder
		quote  rune
		depth  int
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case quote != 0:
			cur.WriteRune(r)
			if r == quote {
				// A doubled quote is an escaped quote inside the literal.
				if i+1 < len(runes) && runes[i+1] == quote && quote != ']' {
					cur.WriteRune(runes[i+1])
					i++
					continue
				}
				quote = 0
			} else if backslashEscapes && r == '\\' && quote == '\'' && i+1 < len(runes) {
				cur.WriteRune(runes[i+1])
				i++
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
			cur.WriteRune(r)
		case r == '[' && depth == 0:
			quote = ']'
			cur.WriteRune(r)
		case r == '(':
			depth++
			cur.WriteRune(r)
		case r == ')':
			if depth > 0 {
				depth--
			}
			cur.WriteRune(r)
		case unicode.IsSpace(r) && depth == 0:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// Unquote strips one layer of matching quotes (', ", ` or []) from s and
// collapses doubled quote characters inside it. Unquoted input is returned
// trimmed but otherwise unchanged.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return s
	}
	first, last := s[0], s[len(s)-1]
	switch {
	case first == '[' && last == ']':
		return strings.ReplaceAll(s[1:len(s)-1], "]]", "]")
	case (first == '\'' || first == '"' || first == '`') && first == last:
		q := string(first)
		return strings.ReplaceAll(s[1:len(s)-1], q+q, q)
	}
	return s
}

// keyword returns the upper-cased word part of a token, dropping any
// parenthesised suffix: "identity(1,1)" -> "IDENTITY".
func keyword(tok string) string {
	if i := strings.IndexByte(tok, '('); i > 0 {
		tok = tok[:i]
	}
	return strings.ToUpper(tok)
}
