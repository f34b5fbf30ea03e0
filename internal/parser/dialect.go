package parser

import (
	"errors"
	"fmt"

	"github.com/arwahdevops/dbcompare/internal/normalize"
	"github.com/arwahdevops/dbcompare/internal/schema"
)

// ErrUnknownDialect is returned by For for dialects without a grammar.
var ErrUnknownDialect = errors.New("unknown dialect")

// Dialect is one SQL grammar variant. ParseStatement turns a single CREATE
// TABLE statement into a Table and reports false for anything else.
// BuildCreateTableSQL reconstructs DDL for tables that arrived without it.
type Dialect interface {
	Kind() schema.Dialect
	ParseStatement(stmt string) (*schema.Table, bool)
	BuildCreateTableSQL(t *schema.Table) string
}

// For returns the grammar for d.
func For(d schema.Dialect) (Dialect, error) {
	switch d {
	case schema.MySQL:
		return mysqlGrammar(), nil
	case schema.PostgreSQL:
		return postgresGrammar(), nil
	case schema.Oracle:
		return oracleGrammar(), nil
	case schema.SQLServer:
		return sqlServerGrammar(), nil
	case schema.SQLite:
		return sqliteGrammar(), nil
	case schema.MongoDB:
		return documentGrammar(), nil
	case schema.Db2:
		return db2Grammar(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, d)
}

// grammar is the shared CREATE TABLE engine, configured per dialect.
type grammar struct {
	kind  schema.Dialect
	lex   lexOptions
	vocab normalize.Vocabulary
	// inlineIndexes is set for dialects whose CREATE TABLE body accepts plain
	// KEY/INDEX members.
	inlineIndexes bool
}

func (g *grammar) Kind() schema.Dialect { return g.kind }

func mysqlGrammar() *grammar {
	return &grammar{
		kind: schema.MySQL,
		lex:  lexOptionsFor(schema.MySQL),
		vocab: normalize.Vocabulary{
			StopWords:        []string{"VISIBLE", "SRID", "COLUMN_FORMAT", "ENGINE_ATTRIBUTE"},
			Flags:            []string{"INVISIBLE", "BINARY"},
			BackslashEscapes: true,
		},
		inlineIndexes: true,
	}
}

func postgresGrammar() *grammar {
	return &grammar{
		kind: schema.PostgreSQL,
		lex:  lexOptionsFor(schema.PostgreSQL),
		vocab: normalize.Vocabulary{
			StopWords: []string{"DEFERRABLE", "INITIALLY", "COMPRESSION"},
		},
	}
}

func oracleGrammar() *grammar {
	return &grammar{
		kind: schema.Oracle,
		lex:  lexOptionsFor(schema.Oracle),
		vocab: normalize.Vocabulary{
			StopWords: []string{"ENABLE", "VISIBLE", "SORT", "ENCRYPT"},
			Flags:     []string{"DISABLE", "INVISIBLE"},
		},
	}
}

func sqlServerGrammar() *grammar {
	return &grammar{
		kind: schema.SQLServer,
		lex:  lexOptionsFor(schema.SQLServer),
		vocab: normalize.Vocabulary{
			StopWords: []string{"CLUSTERED", "NONCLUSTERED", "MASKED"},
			Flags:     []string{"ROWGUIDCOL", "SPARSE", "FILESTREAM"},
		},
		inlineIndexes: true,
	}
}

func sqliteGrammar() *grammar {
	return &grammar{
		kind: schema.SQLite,
		lex:  lexOptionsFor(schema.SQLite),
		vocab: normalize.Vocabulary{
			StopWords: []string{"ASC", "DESC"},
		},
	}
}

// documentGrammar covers the pseudo DDL emitted for document stores, where
// each sampled field becomes a column.
func documentGrammar() *grammar {
	return &grammar{
		kind: schema.MongoDB,
		lex:  lexOptionsFor(schema.MongoDB),
	}
}

func db2Grammar() *grammar {
	return &grammar{
		kind: schema.Db2,
		lex:  lexOptionsFor(schema.Db2),
		vocab: normalize.Vocabulary{
			StopWords: []string{"WITH", "INLINE"},
			Flags:     []string{"IMPLICITLY", "HIDDEN"},
		},
	}
}
