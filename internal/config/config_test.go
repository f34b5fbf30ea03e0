package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LEFT_FILE", "left.sql")
	t.Setenv("RIGHT_FILE", "right.sql")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "mysql", cfg.Dialect)
	assert.True(t, cfg.CaseInsensitiveNames)
	assert.Equal(t, ApplyToLeft, cfg.ApplyTo)
	assert.Equal(t, 2*time.Minute, cfg.IntrospectTimeout)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, "left.sql", cfg.Left.File)
	assert.Equal(t, "username", cfg.Left.UsernameKey)
	assert.Equal(t, "password", cfg.Right.PasswordKey)
	assert.False(t, cfg.Left.IsLive())
}

func TestLoadLiveSide(t *testing.T) {
	t.Setenv("DIALECT", "postgres")
	t.Setenv("APPLY_TO", "RIGHT")
	t.Setenv("LEFT_DB_HOST", "db.internal")
	t.Setenv("LEFT_DB_PORT", "5432")
	t.Setenv("LEFT_DB_USER", "app")
	t.Setenv("LEFT_DB_DBNAME", "shop")
	t.Setenv("LEFT_DB_SSLMODE", "require")
	t.Setenv("RIGHT_DIALECT", "postgresql")
	t.Setenv("RIGHT_FILE", "-")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ApplyToRight, cfg.ApplyTo)
	assert.True(t, cfg.Left.IsLive())
	assert.Equal(t, "db.internal", cfg.Left.DB.Host)
	assert.Equal(t, 5432, cfg.Left.DB.Port)
	assert.Equal(t, "postgres", cfg.Left.EffectiveDialect(cfg.Dialect))
	assert.Equal(t, "postgresql", cfg.Right.EffectiveDialect(cfg.Dialect))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DIALECT", "cobol")
	t.Setenv("LEFT_FILE", "left.sql")
	t.Setenv("RIGHT_FILE", "right.sql")

	_, err := Load()
	require.Error(t, err)

	cfg, err := Load(func(c *Config) { c.Dialect = "sqlite" }, func(c *Config) { c.ApplyTo = ApplyToRight })
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Dialect)
	assert.Equal(t, ApplyToRight, cfg.ApplyTo)

	_, err = Load(func(c *Config) { c.ApplyTo = "both" })
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Dialect:           "mysql",
			ApplyTo:           ApplyToLeft,
			MetricsPort:       9091,
			IntrospectTimeout: time.Minute,
			Left:              SourceConfig{File: "a.sql"},
			Right:             SourceConfig{File: "b.sql"},
		}
	}
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"Valid", func(*Config) {}, ""},
		{"Unknown Dialect", func(c *Config) { c.Dialect = "cobol" }, "invalid DIALECT"},
		{"Bad Apply To", func(c *Config) { c.ApplyTo = "both" }, "invalid apply-to side"},
		{"Bad Metrics Port", func(c *Config) { c.MetricsPort = 70000 }, "invalid metrics port"},
		{"Negative Retries", func(c *Config) { c.MaxRetries = -1 }, "max retries cannot be negative"},
		{"Zero Timeout", func(c *Config) { c.IntrospectTimeout = 0 }, "introspect timeout must be positive"},
		{"Unknown Side Dialect", func(c *Config) { c.Right.Dialect = "x" }, "invalid dialect for right side"},
		{
			"Live Missing Host",
			func(c *Config) { c.Left = SourceConfig{DB: DatabaseConfig{DBName: "shop", Port: 3306, SSLMode: "disable"}} },
			"left side: database host is required",
		},
		{
			"Live Bad SSL",
			func(c *Config) {
				c.Left = SourceConfig{DB: DatabaseConfig{Host: "h", DBName: "shop", Port: 3306, SSLMode: "sometimes"}}
			},
			"invalid SSL mode for left DB",
		},
		{
			"Live Oracle",
			func(c *Config) { c.Right = SourceConfig{Dialect: "oracle", DB: DatabaseConfig{Host: "h", Port: 1521, DBName: "x"}} },
			"live introspection is not supported",
		},
		{
			"Live SQLite Needs No Host",
			func(c *Config) { c.Right = SourceConfig{Dialect: "sqlite", DB: DatabaseConfig{DBName: "/tmp/app.db"}} },
			"",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := Validate(cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
