package normalize

import (
	"sort"
	"strings"

	"github.com/arwahdevops/dbcompare/internal/schema"
)

// Vocabulary carries the dialect specific keywords recognised when decomposing
// a column definition.
type Vocabulary struct {
	// StopWords end type accumulation in addition to the common keywords.
	StopWords []string
	// Flags are keywords recorded, lower-cased, in the attribute set.
	Flags []string
	// BackslashEscapes is set for dialects where '\' escapes inside string
	// literals.
	BackslashEscapes bool
}

var commonStopWords = []string{
	"UNSIGNED", "SIGNED", "ZEROFILL", "NOT", "NULL", "DEFAULT", "COMMENT", "CHARACTER",
	"CHARSET", "COLLATE", "AUTO_INCREMENT", "AUTOINCREMENT", "IDENTITY", "GENERATED",
	"AS", "UNIQUE", "PRIMARY", "KEY", "STORAGE", "MEMORY", "ON", "REFERENCES", "CHECK",
	"CONSTRAINT",
}

// detailState is the accumulator threaded through the token fold. Each step
// returns a new value; nothing is shared between calls to Details.
type detailState struct {
	typeParts []string
	typeDone  bool
	nullable  bool
	def       *string
	comment   *string
	extras    []string
	charset   *string
	collation *string
	attrs     []string
}

// Details decomposes a raw column definition (everything after the column
// name) into its structured form.
func Details(raw string, vocab Vocabulary) schema.ColumnDetails {
	stops := make(map[string]struct{}, len(commonStopWords)+len(vocab.StopWords))
	for _, w := range commonStopWords {
		stops[w] = struct{}{}
	}
	for _, w := range vocab.StopWords {
		stops[strings.ToUpper(w)] = struct{}{}
	}
	flags := make(map[string]struct{}, len(vocab.Flags))
	for _, w := range vocab.Flags {
		flags[strings.ToUpper(w)] = struct{}{}
		stops[strings.ToUpper(w)] = struct{}{}
	}

	tokens := Tokenize(raw, vocab.BackslashEscapes)
	st := detailState{nullable: true}
	for i := 0; i < len(tokens); {
		st, i = step(st, tokens, i, stops, flags)
	}
	return st.finish()
}

func step(st detailState, toks []string, i int, stops, flags map[string]struct{}) (detailState, int) {
	tok := toks[i]
	kw := keyword(tok)
	next := func(n int) string {
		if i+n < len(toks) {
			return toks[i+n]
		}
		return ""
	}
	nextKW := func(n int) string { return keyword(next(n)) }

	if !st.typeDone {
		_, isStop := stops[kw]
		// CHARACTER only ends the type when it introduces CHARACTER SET;
		// otherwise it is part of CHARACTER VARYING and friends.
		if kw == "CHARACTER" && nextKW(1) != "SET" {
			isStop = false
		}
		// A flag in first position is the type itself, as in MySQL BINARY(16).
		if _, isFlag := flags[kw]; isFlag && len(st.typeParts) == 0 {
			isStop = false
		}
		if !isStop {
			st.typeParts = appendCopy(st.typeParts, tok)
			return st, i + 1
		}
		st.typeDone = true
	}

	if _, ok := flags[kw]; ok {
		st.attrs = appendCopy(st.attrs, strings.ToLower(tok))
		return st, i + 1
	}

	switch kw {
	case "NOT":
		if nextKW(1) == "NULL" {
			st.nullable = false
			return st, i + 2
		}
		return st, i + 1
	case "NULL":
		st.nullable = true
		return st, i + 1
	case "DEFAULT":
		if v := next(1); v != "" {
			val := Unquote(v)
			st.def = &val
			return st, i + 2
		}
		return st, i + 1
	case "COMMENT":
		if v := next(1); v != "" {
			val := Unquote(v)
			st.comment = &val
			return st, i + 2
		}
		return st, i + 1
	case "CHARACTER":
		if nextKW(1) == "SET" && next(2) != "" {
			val := Unquote(next(2))
			st.charset = &val
			return st, i + 3
		}
		return st, i + 1
	case "CHARSET":
		if v := next(1); v != "" {
			val := Unquote(v)
			st.charset = &val
			return st, i + 2
		}
		return st, i + 1
	case "COLLATE":
		if v := next(1); v != "" {
			val := Unquote(v)
			st.collation = &val
			return st, i + 2
		}
		return st, i + 1
	case "AUTO_INCREMENT", "AUTOINCREMENT", "IDENTITY":
		st.extras = appendCopy(st.extras, strings.ToLower(tok))
		return st, i + 1
	case "GENERATED", "AS":
		// GENERATED {ALWAYS|BY DEFAULT [ON NULL]} AS {IDENTITY [(...)]|(expr) [STORED|VIRTUAL]}
		j := i + 1
		parts := []string{tok}
		for j < len(toks) {
			k := keyword(toks[j])
			if k == "ON" && j+1 < len(toks) && keyword(toks[j+1]) == "NULL" {
				parts = append(parts, toks[j], toks[j+1])
				j += 2
				continue
			}
			if k == "ALWAYS" || k == "BY" || k == "DEFAULT" || k == "AS" || k == "IDENTITY" ||
				k == "STORED" || k == "VIRTUAL" || k == "PERSISTED" || strings.HasPrefix(toks[j], "(") {
				parts = append(parts, toks[j])
				j++
				continue
			}
			break
		}
		st.extras = appendCopy(st.extras, strings.Join(parts, " "))
		return st, j
	case "ON":
		if nextKW(1) == "UPDATE" && next(2) != "" {
			st.extras = appendCopy(st.extras, "on update "+next(2))
			return st, i + 3
		}
		return st, i + 1
	case "PRIMARY":
		if nextKW(1) == "KEY" {
			st.attrs = appendCopy(st.attrs, "primary key")
			return st, i + 2
		}
		return st, i + 1
	case "KEY":
		st.attrs = appendCopy(st.attrs, "key")
		return st, i + 1
	case "UNIQUE":
		st.attrs = appendCopy(st.attrs, "unique")
		if nextKW(1) == "KEY" {
			return st, i + 2
		}
		return st, i + 1
	case "UNSIGNED", "SIGNED", "ZEROFILL":
		st.attrs = appendCopy(st.attrs, strings.ToLower(tok))
		return st, i + 1
	case "STORAGE":
		if v := next(1); v != "" {
			st.attrs = appendCopy(st.attrs, "storage "+strings.ToLower(v))
			return st, i + 2
		}
		return st, i + 1
	case "MEMORY":
		st.attrs = appendCopy(st.attrs, "memory")
		return st, i + 1
	case "REFERENCES":
		// Inline foreign key: skip the target and any ON DELETE/UPDATE actions.
		j := i + 2
		for j < len(toks) && keyword(toks[j]) == "ON" && j+1 < len(toks) &&
			(keyword(toks[j+1]) == "DELETE" || keyword(toks[j+1]) == "UPDATE") {
			j += 2
			for j < len(toks) {
				k := keyword(toks[j])
				if k == "CASCADE" || k == "RESTRICT" || k == "SET" || k == "NO" || k == "ACTION" {
					j++
					continue
				}
				if k == "NULL" || k == "DEFAULT" {
					if keyword(toks[j-1]) == "SET" {
						j++
						continue
					}
				}
				break
			}
		}
		return st, j
	case "CHECK":
		if strings.Contains(tok, "(") {
			return st, i + 1
		}
		return st, i + 2
	case "CONSTRAINT":
		return st, i + 2
	}
	return st, i + 1
}

func (st detailState) finish() schema.ColumnDetails {
	d := schema.ColumnDetails{
		Type:      strings.Join(st.typeParts, " "),
		Nullable:  st.nullable,
		Default:   st.def,
		Comment:   st.comment,
		Charset:   st.charset,
		Collation: st.collation,
	}
	if len(st.extras) > 0 {
		extra := strings.Join(st.extras, " ")
		d.Extra = &extra
	}
	d.Attributes = attributeSet(st.attrs)
	return d
}

func attributeSet(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

func appendCopy(s []string, v string) []string {
	out := make([]string, len(s), len(s)+1)
	copy(out, s)
	return append(out, v)
}
