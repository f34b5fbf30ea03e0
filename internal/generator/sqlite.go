package generator

import (
	"fmt"
	"strings"

	"github.com/arwahdevops/dbcompare/internal/differ"
	"github.com/arwahdevops/dbcompare/internal/schema"
	"github.com/arwahdevops/dbcompare/internal/utils"
)

// sqliteRules covers what ALTER TABLE can express in SQLite. Removing or
// changing a column, and touching primary or foreign keys, needs a table
// rebuild; those cases become comment placeholders.
type sqliteRules struct{}

func (sqliteRules) quote(name string) string {
	return utils.QuoteIdentifierIfNeeded(name, schema.SQLite)
}

func (r sqliteRules) cols(list string) string {
	return utils.QuoteColumnList(list, r.quote)
}

func (r sqliteRules) dropTable(table string) []string {
	return []string{fmt.Sprintf("DROP TABLE IF EXISTS %s;", r.quote(table))}
}

func (r sqliteRules) addColumn(table string, c *schema.Column) []string {
	return []string{strings.TrimSpace(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", r.quote(table), r.quote(c.Name), c.Raw)) + ";"}
}

func (r sqliteRules) dropColumn(table string, c *schema.Column) []string {
	return []string{fmt.Sprintf("-- SQLite cannot remove column %s with ALTER TABLE; rebuild table %s manually", r.quote(c.Name), r.quote(table))}
}

func (r sqliteRules) modifyColumn(table string, ch differ.ColumnChange) []string {
	return []string{
		fmt.Sprintf("-- SQLite cannot alter column %s with ALTER TABLE; rebuild table %s manually", r.quote(ch.Name), r.quote(table)),
		fmt.Sprintf("--   current: %s", oneLine(ch.Left)),
		fmt.Sprintf("--   wanted:  %s", oneLine(ch.Right)),
	}
}

func (r sqliteRules) addIndex(table string, ix *schema.Index) []string {
	switch ix.Kind {
	case schema.IndexUnique:
		return []string{fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (%s);", r.quote(ix.Name), r.quote(table), r.cols(ix.Columns))}
	case schema.IndexKey:
		return []string{fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s);", r.quote(ix.Name), r.quote(table), r.cols(ix.Columns))}
	default:
		return []string{fmt.Sprintf("-- SQLite cannot add %s (%s) with ALTER TABLE; rebuild table %s manually", ix.Kind, ix.Columns, r.quote(table))}
	}
}

func (r sqliteRules) dropIndex(table string, ix *schema.Index) []string {
	switch {
	case ix.Kind == schema.IndexUnique && ix.Inline:
		// Backed by an sqlite_autoindex_* index that DROP INDEX refuses to touch.
		return []string{fmt.Sprintf("-- SQLite cannot remove %s %s with ALTER TABLE; rebuild table %s manually", ix.Kind, r.quote(ix.Name), r.quote(table))}
	case ix.Kind == schema.IndexUnique || ix.Kind == schema.IndexKey:
		return []string{fmt.Sprintf("DROP INDEX IF EXISTS %s;", r.quote(ix.Name))}
	default:
		return []string{fmt.Sprintf("-- SQLite cannot remove %s %s with ALTER TABLE; rebuild table %s manually", ix.Kind, r.quote(ix.Name), r.quote(table))}
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
