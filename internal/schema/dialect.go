package schema

import (
	"fmt"
	"strings"
)

// Dialect identifies the SQL product a schema was parsed under.
type Dialect string

const (
	MySQL      Dialect = "mysql"
	PostgreSQL Dialect = "postgresql"
	Oracle     Dialect = "oracle"
	SQLServer  Dialect = "sqlserver"
	SQLite     Dialect = "sqlite"
	MongoDB    Dialect = "mongodb"
	Db2        Dialect = "db2"
)

// Dialects lists every dialect the parser understands, in a stable order.
var Dialects = []Dialect{MySQL, PostgreSQL, Oracle, SQLServer, SQLite, MongoDB, Db2}

var dialectAliases = map[string]Dialect{
	"mysql":      MySQL,
	"mariadb":    MySQL,
	"postgresql": PostgreSQL,
	"postgres":   PostgreSQL,
	"pg":         PostgreSQL,
	"oracle":     Oracle,
	"sqlserver":  SQLServer,
	"mssql":      SQLServer,
	"sqlite":     SQLite,
	"sqlite3":    SQLite,
	"mongodb":    MongoDB,
	"mongo":      MongoDB,
	"db2":        Db2,
}

// ParseDialect resolves a user supplied dialect name, accepting common aliases.
func ParseDialect(s string) (Dialect, error) {
	d, ok := dialectAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("unknown dialect %q", s)
	}
	return d, nil
}

func (d Dialect) String() string { return string(d) }

// DriverName returns the name used by the database/gorm layer for this dialect.
func (d Dialect) DriverName() string {
	if d == PostgreSQL {
		return "postgres"
	}
	return string(d)
}
