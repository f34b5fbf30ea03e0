package parser

import (
	"regexp"
	"strings"

	"github.com/arwahdevops/dbcompare/internal/schema"
	"github.com/arwahdevops/dbcompare/internal/utils"
)

// statement is one ';'-terminated piece of a DDL script. text is the original
// source with leading comments removed; clean has every comment blanked out
// and is what the grammar inspects.
type statement struct {
	text  string
	clean string
}

type lexOptions struct {
	backslashEscapes bool // MySQL string escapes
	hashComments     bool // MySQL "# ..." line comments
	dollarQuotes     bool // PostgreSQL $tag$ ... $tag$ bodies
	bracketQuotes    bool // [identifier] quoting
	goBatches        bool // SQL Server "GO" batch separator lines
}

var goBatchLine = regexp.MustCompile(`(?im)^[ \t]*GO[ \t]*$`)

func lexOptionsFor(d schema.Dialect) lexOptions {
	switch d {
	case schema.MySQL:
		return lexOptions{backslashEscapes: true, hashComments: true}
	case schema.PostgreSQL:
		return lexOptions{dollarQuotes: true}
	case schema.SQLServer:
		return lexOptions{bracketQuotes: true, goBatches: true}
	case schema.SQLite:
		return lexOptions{bracketQuotes: true}
	default:
		return lexOptions{}
	}
}

// SplitDefinitions splits a CREATE TABLE body into its member definitions.
// Commas inside quoted literals or nested parentheses are not boundaries.
func SplitDefinitions(body string) []string {
	return utils.SplitTopLevel(body, false)
}

func splitStatements(ddl string, opts lexOptions) []statement {
	if opts.goBatches {
		ddl = goBatchLine.ReplaceAllString(ddl, ";")
	}
	var (
		out   []statement
		clean strings.Builder
		start = -1
	)
	mark := func(i int) {
		if start < 0 {
			start = i
		}
	}
	emit := func(end int) {
		if start >= 0 {
			c := strings.TrimSpace(clean.String())
			if c != "" {
				out = append(out, statement{text: strings.TrimSpace(ddl[start:end]), clean: c})
			}
		}
		clean.Reset()
		start = -1
	}

	for i := 0; i < len(ddl); {
		c := ddl[i]
		switch {
		case c == '-' && i+1 < len(ddl) && ddl[i+1] == '-', opts.hashComments && c == '#':
			end := strings.IndexByte(ddl[i:], '\n')
			if end < 0 {
				end = len(ddl)
			} else {
				end += i
			}
			clean.WriteByte(' ')
			i = end
		case c == '/' && i+1 < len(ddl) && ddl[i+1] == '*':
			end := strings.Index(ddl[i+2:], "*/")
			if end < 0 {
				end = len(ddl)
			} else {
				end = i + 2 + end + 2
			}
			clean.WriteByte(' ')
			i = end
		case c == ';':
			emit(i)
			i++
		case c == '\'' || c == '"' || c == '`' || (opts.bracketQuotes && c == '['):
			mark(i)
			end := scanQuoted(ddl, i, opts)
			clean.WriteString(ddl[i:end])
			i = end
		case opts.dollarQuotes && c == '$':
			tag, ok := dollarTag(ddl[i:])
			if !ok {
				mark(i)
				clean.WriteByte(c)
				i++
				continue
			}
			mark(i)
			end := strings.Index(ddl[i+len(tag):], tag)
			if end < 0 {
				end = len(ddl)
			} else {
				end = i + len(tag) + end + len(tag)
			}
			clean.WriteString(ddl[i:end])
			i = end
		default:
			if !isSpace(c) {
				mark(i)
			}
			clean.WriteByte(c)
			i++
		}
	}
	emit(len(ddl))
	return out
}

// scanQuoted returns the index just past the literal that opens at ddl[i].
// An unterminated literal runs to the end of the input.
func scanQuoted(ddl string, i int, opts lexOptions) int {
	open := ddl[i]
	closing := open
	if open == '[' {
		closing = ']'
	}
	for j := i + 1; j < len(ddl); j++ {
		c := ddl[j]
		if opts.backslashEscapes && c == '\\' && (open == '\'' || open == '"') {
			j++
			continue
		}
		if c == closing {
			if j+1 < len(ddl) && ddl[j+1] == closing {
				j++
				continue
			}
			return j + 1
		}
	}
	return len(ddl)
}

// dollarTag recognises $$ and $name$ openers. Positional parameters such as
// $1 are not tags.
func dollarTag(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	for j := 1; j < len(s); j++ {
		c := s[j]
		if c == '$' {
			return s[:j+1], true
		}
		isLetter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		if !isLetter && !(isDigit && j > 1) {
			return "", false
		}
	}
	return "", false
}

// matchParen returns the index of the parenthesis closing the one at open,
// or -1 when the input ends first.
func matchParen(s string, open int, opts lexOptions) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'' || c == '"' || c == '`' || (opts.bracketQuotes && c == '['):
			i = scanQuoted(s, i, opts) - 1
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}
