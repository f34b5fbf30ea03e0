package generator

import (
	"fmt"
	"strings"

	"github.com/arwahdevops/dbcompare/internal/differ"
	"github.com/arwahdevops/dbcompare/internal/schema"
	"github.com/arwahdevops/dbcompare/internal/utils"
)

type mysqlRules struct{}

func (mysqlRules) quote(name string) string {
	return utils.QuoteIdentifier(name, schema.MySQL)
}

func (r mysqlRules) cols(list string) string {
	return utils.QuoteColumnList(list, r.quote)
}

func (r mysqlRules) dropTable(table string) []string {
	return []string{fmt.Sprintf("DROP TABLE IF EXISTS %s;", r.quote(table))}
}

func (r mysqlRules) addColumn(table string, c *schema.Column) []string {
	return []string{strings.TrimSpace(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", r.quote(table), r.quote(c.Name), c.Raw)) + ";"}
}

func (r mysqlRules) dropColumn(table string, c *schema.Column) []string {
	return []string{fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", r.quote(table), r.quote(c.Name))}
}

// modifyColumn restates the whole target definition; MySQL has no partial
// column alteration for most fields.
func (r mysqlRules) modifyColumn(table string, ch differ.ColumnChange) []string {
	return []string{strings.TrimSpace(fmt.Sprintf("ALTER TABLE %s MODIFY COLUMN %s %s", r.quote(table), r.quote(ch.Name), ch.Right)) + ";"}
}

func (r mysqlRules) addIndex(table string, ix *schema.Index) []string {
	t := r.quote(table)
	switch ix.Kind {
	case schema.IndexPrimary:
		return []string{fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s);", t, r.cols(ix.Columns))}
	case schema.IndexUnique:
		return []string{fmt.Sprintf("ALTER TABLE %s ADD UNIQUE KEY %s (%s);", t, r.quote(ix.Name), r.cols(ix.Columns))}
	case schema.IndexForeign:
		stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s)", t, r.quote(ix.Name), r.cols(ix.Columns))
		if ix.References != "" {
			stmt += " REFERENCES " + utils.QuoteReference(ix.References, r.quote)
		}
		return []string{stmt + ";"}
	default:
		return []string{fmt.Sprintf("ALTER TABLE %s ADD KEY %s (%s);", t, r.quote(ix.Name), r.cols(ix.Columns))}
	}
}

func (r mysqlRules) dropIndex(table string, ix *schema.Index) []string {
	t := r.quote(table)
	switch ix.Kind {
	case schema.IndexPrimary:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP PRIMARY KEY;", t)}
	case schema.IndexForeign:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s;", t, r.quote(ix.Name))}
	default:
		return []string{fmt.Sprintf("ALTER TABLE %s DROP KEY %s;", t, r.quote(ix.Name))}
	}
}
