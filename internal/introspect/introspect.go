// Package introspect reads CREATE TABLE DDL out of a live database so it can
// be handed to the parser like a dump file.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arwahdevops/dbcompare/internal/db"
	"github.com/arwahdevops/dbcompare/internal/schema"
	"github.com/arwahdevops/dbcompare/internal/utils"
)

// Introspector produces DDL text for every user table of one connection.
type Introspector struct {
	conn   *db.Connector
	logger *zap.Logger
}

func New(conn *db.Connector, logger *zap.Logger) *Introspector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Introspector{
		conn:   conn,
		logger: logger.Named("introspect").With(zap.String("dialect", conn.Dialect.String())),
	}
}

// FetchDDL returns one CREATE TABLE statement per table, each terminated by
// ";" and separated by a blank line.
func (i *Introspector) FetchDDL(ctx context.Context) (string, error) {
	start := time.Now()
	var (
		stmts []string
		err   error
	)
	switch i.conn.Dialect {
	case schema.MySQL:
		stmts, err = i.fetchMySQL(ctx)
	case schema.PostgreSQL:
		stmts, err = i.fetchPostgres(ctx)
	case schema.SQLite:
		stmts, err = i.fetchSQLite(ctx)
	default:
		return "", fmt.Errorf("introspection is not supported for dialect %s", i.conn.Dialect)
	}
	if err != nil {
		return "", err
	}
	i.logger.Info("Fetched table definitions",
		zap.Int("tables", len(stmts)),
		zap.Duration("duration", time.Since(start)))
	return strings.Join(stmts, "\n\n"), nil
}

func (i *Introspector) fetchMySQL(ctx context.Context) ([]string, error) {
	gdb := i.conn.DB.WithContext(ctx)
	var tables []string
	err := gdb.Raw(`SELECT TABLE_NAME FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`).Scan(&tables).Error
	if err != nil {
		return nil, fmt.Errorf("mysql list tables failed: %w", err)
	}

	stmts := make([]string, 0, len(tables))
	for _, table := range tables {
		var name, ddl string
		q := "SHOW CREATE TABLE " + utils.QuoteIdentifier(table, schema.MySQL)
		if err := gdb.Raw(q).Row().Scan(&name, &ddl); err != nil {
			return nil, fmt.Errorf("mysql SHOW CREATE TABLE failed for '%s': %w", table, err)
		}
		if ddl == "" {
			i.logger.Warn("SHOW CREATE TABLE returned no definition", zap.String("table", table))
			continue
		}
		stmts = append(stmts, terminate(ddl))
	}
	return stmts, nil
}

func (i *Introspector) fetchSQLite(ctx context.Context) ([]string, error) {
	var rows []struct {
		Name string         `gorm:"column:name"`
		SQL  sql.NullString `gorm:"column:sql"`
	}
	err := i.conn.DB.WithContext(ctx).Raw(`SELECT name, sql FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("sqlite read sqlite_master failed: %w", err)
	}
	stmts := make([]string, 0, len(rows))
	for _, r := range rows {
		if !r.SQL.Valid || strings.TrimSpace(r.SQL.String) == "" {
			i.logger.Debug("Skipping table without stored SQL", zap.String("table", r.Name))
			continue
		}
		stmts = append(stmts, terminate(r.SQL.String))
	}
	return stmts, nil
}

type pgColumn struct {
	TableName     string         `gorm:"column:table_name"`
	ColumnName    string         `gorm:"column:column_name"`
	DataType      string         `gorm:"column:data_type"`
	IsNullable    string         `gorm:"column:is_nullable"`
	ColumnDefault sql.NullString `gorm:"column:column_default"`
	CollationName sql.NullString `gorm:"column:collation_name"`
}

type pgConstraint struct {
	TableName      string `gorm:"column:table_name"`
	ConstraintName string `gorm:"column:constraint_name"`
	Definition     string `gorm:"column:definition"`
}

// fetchPostgres rebuilds CREATE TABLE statements for the current schema.
// Column types come from format_type so modifiers like varchar(255) and
// numeric(10,2) survive; keys come from pg_get_constraintdef. Plain
// (non-constraint) indexes are not part of the result.
func (i *Introspector) fetchPostgres(ctx context.Context) ([]string, error) {
	gdb := i.conn.DB.WithContext(ctx)

	var cols []pgColumn
	err := gdb.Raw(`
	SELECT c.table_name, c.column_name,
		format_type(a.atttypid, a.atttypmod) AS data_type,
		c.is_nullable, c.column_default, c.collation_name
	FROM information_schema.columns c
	JOIN information_schema.tables t
		ON t.table_schema = c.table_schema AND t.table_name = c.table_name AND t.table_type = 'BASE TABLE'
	JOIN pg_catalog.pg_class cls
		ON cls.relname = c.table_name
		AND cls.relnamespace = (SELECT oid FROM pg_catalog.pg_namespace WHERE nspname = c.table_schema)
	JOIN pg_catalog.pg_attribute a
		ON a.attrelid = cls.oid AND a.attname = c.column_name
	WHERE c.table_schema = current_schema()
	ORDER BY c.table_name, c.ordinal_position`).Scan(&cols).Error
	if err != nil {
		return nil, fmt.Errorf("postgres read columns failed: %w", err)
	}

	var cons []pgConstraint
	err = gdb.Raw(`
	SELECT cls.relname AS table_name, con.conname AS constraint_name,
		pg_get_constraintdef(con.oid) AS definition
	FROM pg_catalog.pg_constraint con
	JOIN pg_catalog.pg_class cls ON cls.oid = con.conrelid
	WHERE cls.relnamespace = (SELECT oid FROM pg_catalog.pg_namespace WHERE nspname = current_schema())
		AND con.contype IN ('p', 'u', 'f')
	ORDER BY cls.relname, con.contype, con.conname`).Scan(&cons).Error
	if err != nil {
		return nil, fmt.Errorf("postgres read constraints failed: %w", err)
	}

	return buildPostgresDDL(cols, cons), nil
}

func buildPostgresDDL(cols []pgColumn, cons []pgConstraint) []string {
	var order []string
	members := make(map[string][]string)
	for _, c := range cols {
		if _, seen := members[c.TableName]; !seen {
			order = append(order, c.TableName)
		}
		def := utils.QuoteIdentifierIfNeeded(c.ColumnName, schema.PostgreSQL) + " " + c.DataType
		if c.CollationName.Valid && c.CollationName.String != "" {
			def += " COLLATE " + utils.QuoteIdentifier(c.CollationName.String, schema.PostgreSQL)
		}
		if strings.EqualFold(c.IsNullable, "NO") {
			def += " NOT NULL"
		}
		if c.ColumnDefault.Valid {
			def += " DEFAULT " + c.ColumnDefault.String
		}
		members[c.TableName] = append(members[c.TableName], def)
	}
	for _, con := range cons {
		if _, ok := members[con.TableName]; !ok {
			continue
		}
		members[con.TableName] = append(members[con.TableName],
			"CONSTRAINT "+utils.QuoteIdentifierIfNeeded(con.ConstraintName, schema.PostgreSQL)+" "+con.Definition)
	}

	stmts := make([]string, 0, len(order))
	for _, table := range order {
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE %s (\n  %s\n);",
			utils.QuoteIdentifierIfNeeded(table, schema.PostgreSQL),
			strings.Join(members[table], ",\n  ")))
	}
	return stmts
}

func terminate(stmt string) string {
	stmt = strings.TrimRight(strings.TrimSpace(stmt), ";")
	return stmt + ";"
}
