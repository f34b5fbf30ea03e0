package db

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arwahdevops/dbcompare/internal/config"
	"github.com/arwahdevops/dbcompare/internal/logger"
	"github.com/arwahdevops/dbcompare/internal/metrics"
	"github.com/arwahdevops/dbcompare/internal/schema"
)

// BuildDSN builds the driver specific data source name. For SQLite DBName is
// the database file path.
func BuildDSN(dialect schema.Dialect, cfg config.DatabaseConfig, username, password string) (string, error) {
	sslmode := strings.ToLower(cfg.SSLMode)
	switch dialect {
	case schema.MySQL:
		tls := "false"
		switch sslmode {
		case "", "disable":
		case "allow", "prefer":
			tls = "preferred"
		case "verify-ca", "verify-full":
			tls = "true"
		default:
			tls = "skip-verify"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&timeout=10s&readTimeout=60s&tls=%s",
			username, password, cfg.Host, cfg.Port, cfg.DBName, tls), nil
	case schema.PostgreSQL:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(username, password),
			Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Path:     "/" + cfg.DBName,
			RawQuery: url.Values{"sslmode": {sslmode}, "connect_timeout": {"10"}}.Encode(),
		}
		return u.String(), nil
	case schema.SQLite:
		// Read-only: introspection never writes.
		return fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", cfg.DBName), nil
	default:
		return "", fmt.Errorf("cannot build DSN: unsupported dialect %s", dialect)
	}
}

// RetryOptions controls ConnectWithRetry.
type RetryOptions struct {
	MaxRetries    int
	RetryInterval time.Duration
	Label         string // "left" or "right", used in logs and metrics
	Metrics       *metrics.Store
}

// ConnectWithRetry opens and pings a connection, retrying up to MaxRetries
// times. It gives up early when ctx is cancelled.
func ConnectWithRetry(ctx context.Context, dialect schema.Dialect, dsn string, opts RetryOptions) (*Connector, error) {
	log := logger.Log.With(zap.String("side", opts.Label), zap.String("dialect", dialect.String()))
	var lastErr error

	for i := 0; i <= opts.MaxRetries; i++ {
		if i > 0 {
			log.Warn("Retrying database connection",
				zap.Int("attempt", i+1),
				zap.Int("max_attempts", opts.MaxRetries+1),
				zap.Duration("wait_interval", opts.RetryInterval),
				zap.NamedError("previous_error", lastErr))
			timer := time.NewTimer(opts.RetryInterval)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				opts.Metrics.RecordError("connection_cancelled", opts.Label)
				return nil, fmt.Errorf("context cancelled while waiting to reconnect to %s DB (attempt %d): %w; last error: %v", opts.Label, i+1, ctx.Err(), lastErr)
			}
		}

		start := time.Now()
		conn, err := New(dialect, dsn, logger.GetGormLogger())
		if err != nil {
			lastErr = fmt.Errorf("connect attempt %d/%d failed for %s: %w", i+1, opts.MaxRetries+1, opts.Label, err)
			continue
		}
		if err := conn.Ping(ctx); err != nil {
			lastErr = fmt.Errorf("ping attempt %d/%d failed for %s: %w", i+1, opts.MaxRetries+1, opts.Label, err)
			_ = conn.Close()
			continue
		}
		log.Info("Database connection successful", zap.Duration("connect_duration", time.Since(start)))
		return conn, nil
	}

	opts.Metrics.RecordError("connection_failed", opts.Label)
	return nil, fmt.Errorf("failed to connect to %s DB after %d attempts: %w", opts.Label, opts.MaxRetries+1, lastErr)
}
