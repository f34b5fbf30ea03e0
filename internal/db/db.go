package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/arwahdevops/dbcompare/internal/logger"
	"github.com/arwahdevops/dbcompare/internal/schema"
)

// Connector is a read-only handle on a live database used for schema
// introspection.
type Connector struct {
	DB      *gorm.DB
	Dialect schema.Dialect
}

func New(dialect schema.Dialect, dsn string, gl gormlogger.Interface) (*Connector, error) {
	var dialector gorm.Dialector
	switch dialect {
	case schema.MySQL:
		dialector = mysql.Open(dsn)
	case schema.PostgreSQL:
		dialector = postgres.Open(dsn)
	case schema.SQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported dialect for live connection: %s", dialect)
	}
	if gl == nil {
		gl = logger.GetGormLogger()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gl,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database (%s): %w", dialect, err)
	}
	return &Connector{DB: db, Dialect: dialect}, nil
}

// Optimize sizes the pool. Introspection is sequential, so a small pool is
// enough; SQLite always gets a single connection.
func (c *Connector) Optimize(poolSize int, maxLifetime time.Duration) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB for optimization: %w", err)
	}
	if poolSize <= 0 {
		poolSize = 2
	}
	if maxLifetime <= 0 {
		maxLifetime = time.Hour
	}
	switch c.Dialect {
	case schema.SQLite:
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetConnMaxLifetime(0)
	default:
		sqlDB.SetMaxIdleConns(poolSize)
		sqlDB.SetMaxOpenConns(poolSize)
		sqlDB.SetConnMaxLifetime(maxLifetime)
	}
	return nil
}

func (c *Connector) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB for ping: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}

func (c *Connector) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB handle to close: %w", err)
	}
	logger.Log.Debug("Closing database connection pool", zap.String("dialect", c.Dialect.String()))
	return sqlDB.Close()
}
