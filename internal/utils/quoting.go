package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lib/pq"

	"github.com/arwahdevops/dbcompare/internal/schema"
)

var (
	simpleLowerIdent = regexp.MustCompile(`^[a-z_][a-z0-9_$]*$`)
	simpleIdent      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// QuoteIdentifier quotes an identifier for the given dialect, escaping the
// quote character inside the name.
func QuoteIdentifier(name string, dialect schema.Dialect) string {
	switch dialect {
	case schema.MySQL:
		return fmt.Sprintf("`%s`", strings.ReplaceAll(name, "`", "``"))
	case schema.PostgreSQL:
		return pq.QuoteIdentifier(name)
	case schema.SQLServer:
		return fmt.Sprintf("[%s]", strings.ReplaceAll(name, "]", "]]"))
	default:
		// Oracle, Db2, SQLite and the document store all take ANSI double quotes.
		return fmt.Sprintf("\"%s\"", strings.ReplaceAll(name, "\"", "\"\""))
	}
}

// QuoteIdentifierIfNeeded leaves plain identifiers bare for dialects where
// quoting changes meaning (PostgreSQL folds unquoted names to lower case).
// MySQL names are always quoted.
func QuoteIdentifierIfNeeded(name string, dialect schema.Dialect) string {
	switch dialect {
	case schema.PostgreSQL:
		if simpleLowerIdent.MatchString(name) {
			return name
		}
	case schema.SQLite:
		if simpleIdent.MatchString(name) {
			return name
		}
	}
	return QuoteIdentifier(name, dialect)
}

// UnquoteIdentifier removes dialect specific quotes from an identifier and
// unescapes doubled quote characters. Input that is not quoted in a way the
// dialect accepts is returned trimmed.
func UnquoteIdentifier(quotedName string, dialect schema.Dialect) string {
	name := strings.TrimSpace(quotedName)
	if len(name) < 2 {
		return name
	}
	first, last := name[0], name[len(name)-1]
	for _, q := range acceptedQuotes(dialect) {
		if first == q.open && last == q.close {
			inner := name[1 : len(name)-1]
			esc := string(q.close)
			return strings.ReplaceAll(inner, esc+esc, esc)
		}
	}
	return name
}

// SplitQualifiedName splits "db"."schema"."table" style names on dots that
// are outside quotes and unquotes each part.
func SplitQualifiedName(name string, dialect schema.Dialect) []string {
	var (
		parts   []string
		cur     strings.Builder
		closing byte
	)
	quotes := acceptedQuotes(dialect)
	for i := 0; i < len(name); i++ {
		c := name[i]
		if closing != 0 {
			cur.WriteByte(c)
			if c == closing {
				if i+1 < len(name) && name[i+1] == closing {
					cur.WriteByte(name[i+1])
					i++
					continue
				}
				closing = 0
			}
			continue
		}
		if c == '.' {
			parts = append(parts, UnquoteIdentifier(cur.String(), dialect))
			cur.Reset()
			continue
		}
		for _, q := range quotes {
			if c == q.open {
				closing = q.close
				break
			}
		}
		cur.WriteByte(c)
	}
	parts = append(parts, UnquoteIdentifier(cur.String(), dialect))
	return parts
}

type quotePair struct{ open, close byte }

func acceptedQuotes(dialect schema.Dialect) []quotePair {
	switch dialect {
	case schema.MySQL:
		return []quotePair{{'`', '`'}, {'"', '"'}}
	case schema.SQLServer:
		return []quotePair{{'[', ']'}, {'"', '"'}}
	case schema.SQLite:
		return []quotePair{{'"', '"'}, {'`', '`'}, {'[', ']'}}
	default:
		return []quotePair{{'"', '"'}}
	}
}
