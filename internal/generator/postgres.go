package generator

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/arwahdevops/dbcompare/internal/differ"
	"github.com/arwahdevops/dbcompare/internal/normalize"
	"github.com/arwahdevops/dbcompare/internal/schema"
	"github.com/arwahdevops/dbcompare/internal/utils"
)

type postgresRules struct{}

func (postgresRules) quote(name string) string {
	return utils.QuoteIdentifierIfNeeded(name, schema.PostgreSQL)
}

func (r postgresRules) cols(list string) string {
	return utils.QuoteColumnList(list, r.quote)
}

func (r postgresRules) dropTable(table string) []string {
	return []string{fmt.Sprintf("DROP TABLE IF EXISTS %s;", r.quote(table))}
}

func (r postgresRules) addColumn(table string, c *schema.Column) []string {
	return []string{strings.TrimSpace(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", r.quote(table), r.quote(c.Name), c.Raw)) + ";"}
}

func (r postgresRules) dropColumn(table string, c *schema.Column) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", r.quote(table), r.quote(c.Name))}
}

// modifyColumn emits one ALTER COLUMN per changed aspect. Changes that only
// show up in the raw text (definition, extra, attributes, charset) restate
// type, nullability and default from the target definition.
func (r postgresRules) modifyColumn(table string, ch differ.ColumnChange) []string {
	target := ch.RightColumn
	if target == nil {
		target = &schema.Column{Name: ch.Name, Raw: ch.Right}
	}
	d := target.Details
	alter := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s", r.quote(table), r.quote(ch.Name))

	changed := func(field string) bool {
		_, ok := ch.Changes[field]
		return ok
	}
	restate := changed(differ.FieldDefinition) || changed(differ.FieldExtra) ||
		changed(differ.FieldAttributes) || changed(differ.FieldCharset)

	var out []string
	if (changed(differ.FieldType) || changed(differ.FieldCollation) || restate) && d.Type != "" {
		stmt := fmt.Sprintf("%s TYPE %s", alter, d.Type)
		if changed(differ.FieldCollation) {
			if coll := normalize.Deref(normalize.Value(d.Collation)); coll != "" {
				stmt += " COLLATE " + pq.QuoteIdentifier(coll)
			}
		}
		out = append(out, stmt+";")
	}
	if changed(differ.FieldNullable) || restate {
		if d.Nullable {
			out = append(out, alter+" DROP NOT NULL;")
		} else {
			out = append(out, alter+" SET NOT NULL;")
		}
	}
	if changed(differ.FieldDefault) || restate {
		if def := normalize.Value(d.Default); def != nil {
			out = append(out, fmt.Sprintf("%s SET DEFAULT %s;", alter, defaultLiteral(*def)))
		} else {
			out = append(out, alter+" DROP DEFAULT;")
		}
	}
	if changed(differ.FieldComment) {
		comment := "NULL"
		if c := normalize.Value(d.Comment); c != nil {
			comment = pq.QuoteLiteral(*c)
		}
		out = append(out, fmt.Sprintf("COMMENT ON COLUMN %s.%s IS %s;", r.quote(table), r.quote(ch.Name), comment))
	}
	return out
}

// defaultLiteral quotes v unless it is a number, boolean or expression.
func defaultLiteral(v string) string {
	if normalize.IsNumericLiteral(v) || normalize.IsBooleanLiteral(v) || normalize.IsExpression(v) {
		return v
	}
	return pq.QuoteLiteral(v)
}

func (r postgresRules) addIndex(table string, ix *schema.Index) []string {
	t := r.quote(table)
	switch ix.Kind {
	case schema.IndexPrimary:
		if ix.Constraint != "" {
			return []string{fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s PRIMARY KEY (%s);", t, pq.QuoteIdentifier(ix.Constraint), r.cols(ix.Columns))}
		}
		return []string{fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s);", t, r.cols(ix.Columns))}
	case schema.IndexUnique:
		return []string{fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s UNIQUE (%s);", t, r.quote(ix.Name), r.cols(ix.Columns))}
	case schema.IndexForeign:
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s)", t, r.quote(ix.Name), r.cols(ix.Columns))
		if ix.References != "" {
			stmt += " REFERENCES " + utils.QuoteReference(ix.References, r.quote)
		}
		return []string{stmt + ";"}
	default:
		return []string{fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", r.quote(ix.Name), t, r.cols(ix.Columns))}
	}
}

func (r postgresRules) dropIndex(table string, ix *schema.Index) []string {
	t := r.quote(table)
	switch ix.Kind {
	case schema.IndexPrimary:
		name := ix.Constraint
		if name == "" {
			name = table + "_pkey"
		}
		return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;", t, pq.QuoteIdentifier(name))}
	case schema.IndexUnique, schema.IndexForeign:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT IF EXISTS %s;", t, r.quote(ix.Name))}
	default:
		return []string{fmt.Sprintf("DROP INDEX IF EXISTS %s;", r.quote(ix.Name))}
	}
}
