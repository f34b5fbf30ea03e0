// Package generator renders a schema diff as a dialect specific SQL script.
// Scripts are meant for review; nothing here executes SQL.
package generator

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arwahdevops/dbcompare/internal/differ"
	"github.com/arwahdevops/dbcompare/internal/parser"
	"github.com/arwahdevops/dbcompare/internal/schema"
)

// UnsupportedDialectError is returned by New for dialects without sync rules.
type UnsupportedDialectError struct {
	Dialect schema.Dialect
}

func (e *UnsupportedDialectError) Error() string {
	return fmt.Sprintf("no sync SQL generator for dialect %q", string(e.Dialect))
}

// rules is the per-dialect statement vocabulary. Every method returns zero or
// more complete statements (or "--" comment lines).
type rules interface {
	dropTable(table string) []string
	addColumn(table string, c *schema.Column) []string
	dropColumn(table string, c *schema.Column) []string
	modifyColumn(table string, ch differ.ColumnChange) []string
	addIndex(table string, ix *schema.Index) []string
	dropIndex(table string, ix *schema.Index) []string
}

type Generator struct {
	dialect         schema.Dialect
	rules           rules
	grammar         parser.Dialect
	logger          *zap.Logger
	caseInsensitive bool
}

type Option func(*Generator)

func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithCaseInsensitiveNames makes the internal diff fold table and column
// names. Off by default.
func WithCaseInsensitiveNames(v bool) Option {
	return func(g *Generator) { g.caseInsensitive = v }
}

// New returns the generator for d.
func New(d schema.Dialect, opts ...Option) (*Generator, error) {
	var r rules
	switch d {
	case schema.MySQL:
		r = mysqlRules{}
	case schema.PostgreSQL:
		r = postgresRules{}
	case schema.SQLite:
		r = sqliteRules{}
	default:
		return nil, &UnsupportedDialectError{Dialect: d}
	}
	grammar, err := parser.For(d)
	if err != nil {
		return nil, err
	}
	g := &Generator{dialect: d, rules: r, grammar: grammar, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.Named("generator").With(zap.String("dialect", d.String()))
	return g, nil
}

func (g *Generator) Dialect() schema.Dialect { return g.dialect }

// Generate diffs source against target and returns the script that turns
// source into target.
func (g *Generator) Generate(source, target *schema.Schema) string {
	diff := differ.New(g.logger, g.caseInsensitive).Diff(source, target)
	return g.Build(diff, target).String()
}

// GenerateSyncSQL builds a generator for d and runs it once.
func GenerateSyncSQL(source, target *schema.Schema, d schema.Dialect) (string, error) {
	g, err := New(d)
	if err != nil {
		return "", err
	}
	return g.Generate(source, target), nil
}

// Block is the group of statements emitted for one table.
type Block struct {
	Table      string
	Statements []string
}

// Script is an ordered list of table blocks.
type Script struct {
	Blocks []Block
}

// String renders the script with a blank line after each table block.
func (s *Script) String() string {
	var b strings.Builder
	for _, blk := range s.Blocks {
		for _, stmt := range blk.Statements {
			b.WriteString(stmt)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// StatementCount counts executable statements, skipping comment lines.
func (s *Script) StatementCount() int {
	n := 0
	for _, blk := range s.Blocks {
		for _, stmt := range blk.Statements {
			for _, line := range strings.Split(stmt, "\n") {
				line = strings.TrimSpace(line)
				if line != "" && !strings.HasPrefix(line, "--") && strings.HasSuffix(line, ";") {
					n++
				}
			}
		}
	}
	return n
}

// Build walks diff in emission order: added tables, removed tables, then
// each modified table. target supplies the DDL of added tables.
func (g *Generator) Build(diff *differ.ObjectDiff, target *schema.Schema) *Script {
	script := &Script{}
	for _, name := range diff.AddedTables {
		var t *schema.Table
		if target != nil {
			t = target.Tables[name]
		}
		script.Blocks = append(script.Blocks, Block{Table: name, Statements: g.createTable(name, t)})
	}
	for _, name := range diff.RemovedTables {
		script.Blocks = append(script.Blocks, Block{Table: name, Statements: g.rules.dropTable(name)})
	}
	for _, name := range diff.ModifiedTableNames() {
		if stmts := g.alterTable(name, diff.ModifiedTables[name]); len(stmts) > 0 {
			script.Blocks = append(script.Blocks, Block{Table: name, Statements: stmts})
		}
	}
	g.logger.Debug("Sync script built",
		zap.Int("blocks", len(script.Blocks)),
		zap.Int("statements", script.StatementCount()))
	return script
}

func (g *Generator) createTable(name string, t *schema.Table) []string {
	out := []string{"-- Create table: " + name}
	switch {
	case t == nil:
		g.logger.Warn("Added table missing from target schema", zap.String("table", name))
	case strings.TrimSpace(t.RawSQL) != "":
		out = append(out, strings.TrimSpace(t.RawSQL))
	default:
		out = append(out, g.grammar.BuildCreateTableSQL(t))
	}
	return out
}

func (g *Generator) alterTable(table string, td *differ.TableDiff) []string {
	var out []string
	if cols := td.Columns; cols != nil {
		for _, c := range cols.Added {
			out = append(out, g.rules.addColumn(table, c)...)
		}
		for _, c := range cols.Removed {
			out = append(out, g.rules.dropColumn(table, c)...)
		}
		for _, ch := range cols.Modified {
			out = append(out, g.rules.modifyColumn(table, ch)...)
		}
	}
	if ixs := td.Indexes; ixs != nil {
		for _, ix := range ixs.Added {
			out = append(out, g.rules.addIndex(table, ix)...)
		}
		for _, ix := range ixs.Removed {
			out = append(out, g.rules.dropIndex(table, ix)...)
		}
		for _, ch := range ixs.Modified {
			out = append(out, g.rules.dropIndex(table, ch.Left)...)
			out = append(out, g.rules.addIndex(table, ch.Right)...)
		}
	}
	return out
}
