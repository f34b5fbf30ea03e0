package parser

import (
	"fmt"
	"strings"

	"github.com/arwahdevops/dbcompare/internal/schema"
	"github.com/arwahdevops/dbcompare/internal/utils"
)

// BuildCreateTableSQL renders t as a CREATE TABLE statement. Plain KEY
// indexes become separate CREATE INDEX statements for dialects that do not
// accept them inside the table body.
func (g *grammar) BuildCreateTableSQL(t *schema.Table) string {
	quote := func(s string) string { return utils.QuoteIdentifier(s, g.kind) }
	quoteCols := func(list string) string { return utils.QuoteColumnList(list, quote) }

	var members []string
	for _, c := range t.OrderedColumns() {
		members = append(members, strings.TrimSpace(quote(c.Name)+" "+c.Raw))
	}

	var trailing []string
	for _, ix := range t.OrderedIndexes() {
		switch ix.Kind {
		case schema.IndexPrimary:
			if hasAttribute(columnAttributes(t, ix.Columns), "primary key") {
				continue
			}
			pk := fmt.Sprintf("PRIMARY KEY (%s)", quoteCols(ix.Columns))
			if ix.Constraint != "" {
				pk = fmt.Sprintf("CONSTRAINT %s %s", quote(ix.Constraint), pk)
			}
			members = append(members, pk)
		case schema.IndexUnique:
			if g.kind == schema.MySQL {
				members = append(members, fmt.Sprintf("UNIQUE KEY %s (%s)", quote(ix.Name), quoteCols(ix.Columns)))
			} else {
				members = append(members, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", quote(ix.Name), quoteCols(ix.Columns)))
			}
		case schema.IndexForeign:
			fk := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s)", quote(ix.Name), quoteCols(ix.Columns))
			if ix.References != "" {
				fk += " REFERENCES " + utils.QuoteReference(ix.References, quote)
			}
			members = append(members, fk)
		default:
			if g.inlineIndexes {
				kw := "KEY"
				if g.kind == schema.SQLServer {
					kw = "INDEX"
				}
				members = append(members, fmt.Sprintf("%s %s (%s)", kw, quote(ix.Name), quoteCols(ix.Columns)))
			} else {
				trailing = append(trailing, fmt.Sprintf("CREATE INDEX %s ON %s (%s);", quote(ix.Name), quote(t.Name), quoteCols(ix.Columns)))
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", quote(t.Name))
	for i, m := range members {
		b.WriteString("  ")
		b.WriteString(m)
		if i < len(members)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(");")
	for _, s := range trailing {
		b.WriteString("\n")
		b.WriteString(s)
	}
	return b.String()
}

// columnAttributes returns the attributes of a single-column list, used to
// avoid restating an inline PRIMARY KEY.
func columnAttributes(t *schema.Table, cols string) []string {
	if c, ok := t.Columns[cols]; ok {
		return c.Details.Attributes
	}
	return nil
}
