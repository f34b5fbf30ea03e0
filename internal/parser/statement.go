package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/arwahdevops/dbcompare/internal/normalize"
	"github.com/arwahdevops/dbcompare/internal/schema"
	"github.com/arwahdevops/dbcompare/internal/utils"
)

var (
	createTableHeader = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(?:(?:GLOBAL|LOCAL)\s+)?(?:(?:TEMPORARY|TEMP)\s+)?(?:UNLOGGED\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?`)

	constraintPrefix = regexp.MustCompile("(?is)^CONSTRAINT\\s+(`[^`]+`|\"[^\"]+\"|\\[[^\\]]+\\]|[^\\s(]+)\\s*(.*)$")
	primaryKeyDef    = regexp.MustCompile(`(?is)^PRIMARY\s+KEY\b\s*(.*)$`)
	uniqueDef        = regexp.MustCompile(`(?is)^UNIQUE(?:\s+(?:KEY|INDEX))?\b\s*(.*)$`)
	foreignKeyDef    = regexp.MustCompile(`(?is)^FOREIGN\s+KEY\b\s*(.*)$`)
	keyDef           = regexp.MustCompile(`(?is)^(?:(?:FULLTEXT|SPATIAL)\s+)?(?:KEY|INDEX)\b\s*(.*)$`)
	skippedMember    = regexp.MustCompile(`(?is)^(?:CHECK|EXCLUDE|PERIOD\s+FOR|LIKE)\b`)
	referencesClause = regexp.MustCompile(`(?is)^REFERENCES\s+`)
)

// ParseStatement parses the first CREATE TABLE statement in stmt.
func (g *grammar) ParseStatement(stmt string) (*schema.Table, bool) {
	for _, st := range splitStatements(stmt, g.lex) {
		if t, ok := g.parseStatement(st); ok {
			return t, true
		}
	}
	return nil, false
}

func (g *grammar) parseStatement(st statement) (*schema.Table, bool) {
	loc := createTableHeader.FindStringIndex(st.clean)
	if loc == nil {
		return nil, false
	}
	rest := st.clean[loc[1]:]
	nameEnd := g.identifierEnd(rest)
	if nameEnd == 0 {
		return nil, false
	}
	parts := utils.SplitQualifiedName(rest[:nameEnd], g.kind)
	name := parts[len(parts)-1]
	if name == "" {
		return nil, false
	}

	table := schema.NewTable(name)
	table.RawSQL = st.text + ";"

	after := strings.TrimLeft(rest[nameEnd:], " \t\r\n")
	if !strings.HasPrefix(after, "(") {
		// CREATE TABLE ... AS SELECT / LIKE: nothing structural to extract.
		return table, true
	}
	open := len(rest) - len(after)
	body := rest[open+1:]
	if closeIdx := matchParen(rest, open, g.lex); closeIdx >= 0 {
		body = rest[open+1 : closeIdx]
	}

	counters := &nameCounters{}
	for _, member := range utils.SplitTopLevel(body, g.lex.backslashEscapes) {
		g.addMember(table, member, counters)
	}
	return table, true
}

// identifierEnd returns the length of the (possibly qualified, possibly
// quoted) identifier at the start of s.
func (g *grammar) identifierEnd(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '`' || (g.lex.bracketQuotes && c == '['):
			i = scanQuoted(s, i, g.lex) - 1
		case c == '(' || isSpace(c):
			return i
		}
	}
	return len(s)
}

type nameCounters struct {
	key, unique, fk int
}

func (g *grammar) addMember(t *schema.Table, member string, n *nameCounters) {
	def := member
	constraintName := ""
	if m := constraintPrefix.FindStringSubmatch(def); m != nil {
		constraintName = utils.UnquoteIdentifier(m[1], g.kind)
		def = m[2]
	}

	switch {
	case skippedMember.MatchString(def):
		return
	case primaryKeyDef.MatchString(def):
		rest := primaryKeyDef.FindStringSubmatch(def)[1]
		if _, cols, _, ok := g.nameAndColumns(rest); ok {
			t.AddIndex(&schema.Index{Name: schema.PrimaryIndexName, Kind: schema.IndexPrimary, Columns: cols, Constraint: constraintName, Inline: true})
			return
		}
	case uniqueDef.MatchString(def):
		rest := uniqueDef.FindStringSubmatch(def)[1]
		if name, cols, _, ok := g.nameAndColumns(rest); ok {
			name = firstNonEmpty(name, constraintName)
			if name == "" {
				name = n.next(t, "unique_", &n.unique)
			}
			t.AddIndex(&schema.Index{Name: name, Kind: schema.IndexUnique, Columns: cols, Constraint: constraintName, Inline: true})
			return
		}
	case foreignKeyDef.MatchString(def):
		rest := foreignKeyDef.FindStringSubmatch(def)[1]
		if name, cols, tail, ok := g.nameAndColumns(rest); ok {
			name = firstNonEmpty(constraintName, name)
			if name == "" {
				name = n.next(t, "fk_", &n.fk)
			}
			t.AddIndex(&schema.Index{Name: name, Kind: schema.IndexForeign, Columns: cols, References: g.references(tail), Constraint: constraintName, Inline: true})
			return
		}
	case keyDef.MatchString(def) && constraintName == "":
		rest := keyDef.FindStringSubmatch(def)[1]
		if name, cols, _, ok := g.nameAndColumns(rest); ok {
			if name == "" {
				name = n.next(t, "auto_key_", &n.key)
			}
			t.AddIndex(&schema.Index{Name: name, Kind: schema.IndexKey, Columns: cols, Inline: true})
			return
		}
	}
	if constraintName != "" {
		// A named constraint we do not model (CHECK, DEFAULT, ...).
		return
	}
	g.addColumn(t, member)
}

func (g *grammar) addColumn(t *schema.Table, member string) {
	tokens := normalize.Tokenize(member, g.lex.backslashEscapes)
	if len(tokens) == 0 {
		return
	}
	name := utils.UnquoteIdentifier(tokens[0], g.kind)
	if name == "" {
		return
	}
	raw := strings.TrimSpace(member[len(tokens[0]):])
	col := &schema.Column{
		Name:       name,
		Raw:        raw,
		Normalized: normalize.Definition(raw),
		Details:    normalize.Details(raw, g.vocab),
	}
	t.AddColumn(col)

	if _, hasPK := t.Primary(); !hasPK && hasAttribute(col.Details.Attributes, "primary key") {
		t.AddIndex(&schema.Index{Name: schema.PrimaryIndexName, Kind: schema.IndexPrimary, Columns: name, Inline: true})
	}
}

// nameAndColumns reads "[name] [USING x] (cols) tail" and returns the
// unquoted name, the canonical column list and whatever follows the list.
func (g *grammar) nameAndColumns(rest string) (name, cols, tail string, ok bool) {
	open := -1
	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if c == '"' || c == '`' || (g.lex.bracketQuotes && c == '[') {
			i = scanQuoted(rest, i, g.lex) - 1
			continue
		}
		if c == '(' {
			open = i
			break
		}
	}
	if open < 0 {
		return "", "", "", false
	}
	if before := normalize.Tokenize(rest[:open], g.lex.backslashEscapes); len(before) > 0 {
		switch strings.ToUpper(before[0]) {
		case "USING", "CLUSTERED", "NONCLUSTERED":
		default:
			name = utils.UnquoteIdentifier(before[0], g.kind)
		}
	}
	closeIdx := matchParen(rest, open, g.lex)
	inner := rest[open+1:]
	if closeIdx >= 0 {
		inner = rest[open+1 : closeIdx]
		tail = strings.TrimSpace(rest[closeIdx+1:])
	}
	return name, g.columnList(inner), tail, true
}

// columnList canonicalises an index column list: identifiers unquoted,
// prefix lengths and ordering suffixes kept, parts joined with ", ".
func (g *grammar) columnList(inner string) string {
	parts := utils.SplitTopLevel(inner, g.lex.backslashEscapes)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.HasPrefix(p, "(") {
			out = append(out, strings.Join(strings.Fields(p), " "))
			continue
		}
		toks := normalize.Tokenize(p, g.lex.backslashEscapes)
		head := toks[0]
		suffix := ""
		if c := head[0]; c == '"' || c == '`' || (g.lex.bracketQuotes && c == '[') {
			end := scanQuoted(head, 0, g.lex)
			head, suffix = head[:end], head[end:]
		} else if i := strings.IndexByte(head, '('); i > 0 {
			head, suffix = head[:i], head[i:]
		}
		col := utils.UnquoteIdentifier(head, g.kind) + suffix
		if len(toks) > 1 {
			col += " " + strings.ToUpper(strings.Join(toks[1:], " "))
		}
		out = append(out, col)
	}
	return strings.Join(out, ", ")
}

// references canonicalises a REFERENCES clause to "table(cols) ACTIONS".
func (g *grammar) references(tail string) string {
	loc := referencesClause.FindStringIndex(tail)
	if loc == nil {
		return strings.Join(strings.Fields(tail), " ")
	}
	rest := tail[loc[1]:]
	end := g.identifierEnd(rest)
	parts := utils.SplitQualifiedName(rest[:end], g.kind)
	target := parts[len(parts)-1]
	after := strings.TrimSpace(rest[end:])
	cols := ""
	if strings.HasPrefix(after, "(") {
		if closeIdx := matchParen(after, 0, g.lex); closeIdx >= 0 {
			cols = g.columnList(after[1:closeIdx])
			after = strings.TrimSpace(after[closeIdx+1:])
		}
	}
	ref := fmt.Sprintf("%s(%s)", target, cols)
	if actions := strings.Join(strings.Fields(strings.ToUpper(after)), " "); actions != "" {
		ref += " " + actions
	}
	return ref
}

// next synthesises prefix<n>, skipping names already used in the table.
func (n *nameCounters) next(t *schema.Table, prefix string, counter *int) string {
	for {
		*counter++
		name := fmt.Sprintf("%s%d", prefix, *counter)
		if _, taken := t.Indexes[name]; !taken {
			return name
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func hasAttribute(attrs []string, want string) bool {
	for _, a := range attrs {
		if a == want {
			return true
		}
	}
	return false
}
