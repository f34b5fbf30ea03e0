// Package parser turns CREATE TABLE DDL into schema.Schema values. Parsing is
// best effort: statements other than CREATE TABLE are skipped and malformed
// members are dropped, so Parse never fails on its input.
package parser

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/arwahdevops/dbcompare/internal/schema"
)

// Parser parses DDL for a single dialect.
type Parser struct {
	dialect Dialect
	lex     lexOptions
	logger  *zap.Logger
}

func New(d schema.Dialect, logger *zap.Logger) (*Parser, error) {
	g, err := For(d)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		dialect: g,
		lex:     lexOptionsFor(d),
		logger:  logger.Named("parser").With(zap.String("dialect", d.String())),
	}, nil
}

// Dialect exposes the grammar the parser was built with.
func (p *Parser) Dialect() Dialect { return p.dialect }

// Parse extracts every CREATE TABLE statement from ddl.
func (p *Parser) Parse(ddl string) *schema.Schema {
	start := time.Now()
	out := schema.NewSchema(p.dialect.Kind())
	skipped := 0
	for _, st := range splitStatements(ddl, p.lex) {
		table, ok := p.dialect.ParseStatement(st.text)
		if !ok {
			skipped++
			continue
		}
		if _, dup := out.Tables[table.Name]; dup {
			p.logger.Warn("Table defined more than once; keeping the last definition", zap.String("table", table.Name))
		}
		out.AddTable(table)
	}
	p.logger.Debug("Parsed DDL",
		zap.Int("tables", out.Len()),
		zap.Int("skipped_statements", skipped),
		zap.Duration("duration", time.Since(start)))
	return out
}

// ParseFile reads and parses a DDL file. When the file cannot be read the
// returned schema is empty (never nil) and the error is an *IOError.
func (p *Parser) ParseFile(path string) (*schema.Schema, error) {
	log := p.logger.With(zap.String("path", path))
	text, encoding, err := readDDLFile(path)
	if err != nil {
		log.Warn("Could not read DDL file; continuing with an empty schema", zap.Error(err))
		return schema.NewSchema(p.dialect.Kind()), err
	}
	if encoding != "utf-8" {
		log.Info("DDL file decoded with fallback encoding", zap.String("encoding", encoding))
	}
	return p.Parse(text), nil
}

// Parse is a convenience wrapper that builds a throwaway Parser. It only
// fails for an unknown dialect.
func Parse(ddl string, d schema.Dialect) (*schema.Schema, error) {
	p, err := New(d, nil)
	if err != nil {
		return nil, err
	}
	return p.Parse(ddl), nil
}

// ParseFile is the file counterpart of Parse.
func ParseFile(path string, d schema.Dialect) (*schema.Schema, error) {
	p, err := New(d, nil)
	if err != nil {
		return nil, err
	}
	return p.ParseFile(path)
}

// IsIOError reports whether err is, or wraps, an *IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}
