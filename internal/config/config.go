package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"

	"github.com/arwahdevops/dbcompare/internal/schema"
)

// ApplyTo names the side the generated script is meant to run against.
type ApplyTo string

const (
	ApplyToLeft  ApplyTo = "left"  // script turns left into right (default)
	ApplyToRight ApplyTo = "right" // script turns right into left
)

type Config struct {
	// Comparison settings
	Dialect              string        `env:"DIALECT" envDefault:"mysql"`
	CaseInsensitiveNames bool          `env:"CASE_INSENSITIVE_NAMES" envDefault:"true"`
	ApplyTo              ApplyTo       `env:"APPLY_TO" envDefault:"left"`
	OutputPath           string        `env:"OUTPUT_PATH"` // empty = stdout
	TableFilterFile      string        `env:"TABLE_FILTER_FILE"`
	IntrospectTimeout    time.Duration `env:"INTROSPECT_TIMEOUT" envDefault:"2m"`

	// Retry logic for live connections
	MaxRetries    int           `env:"MAX_RETRIES" envDefault:"3"`
	RetryInterval time.Duration `env:"RETRY_INTERVAL" envDefault:"5s"`

	// Observability & Debugging
	EnableJsonLogging bool `env:"ENABLE_JSON_LOGGING" envDefault:"false"`
	DebugMode         bool `env:"DEBUG_MODE" envDefault:"false"`
	EnablePprof       bool `env:"ENABLE_PPROF" envDefault:"false"`
	MetricsPort       int  `env:"METRICS_PORT" envDefault:"9091"` // /metrics, /healthz, /readyz, /v1/*

	// Vault
	VaultEnabled    bool   `env:"VAULT_ENABLED" envDefault:"false"`
	VaultAddr       string `env:"VAULT_ADDR" envDefault:"https://127.0.0.1:8200"`
	VaultToken      string `env:"VAULT_TOKEN"`
	VaultCACert     string `env:"VAULT_CACERT"`
	VaultSkipVerify bool   `env:"VAULT_SKIP_VERIFY" envDefault:"false"`

	Left  SourceConfig `envPrefix:"LEFT_"`
	Right SourceConfig `envPrefix:"RIGHT_"`
}

// SourceConfig describes where one side of the comparison comes from: a DDL
// file (or "-" for stdin), a JSON table map (*.json), or a live database.
type SourceConfig struct {
	File    string `env:"FILE"`
	Dialect string `env:"DIALECT"` // defaults to Config.Dialect

	DB DatabaseConfig `envPrefix:"DB_"`

	SecretPath  string `env:"SECRET_PATH"`
	UsernameKey string `env:"USERNAME_KEY" envDefault:"username"`
	PasswordKey string `env:"PASSWORD_KEY" envDefault:"password"`
}

type DatabaseConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT"`
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	DBName   string `env:"DBNAME"`
	SSLMode  string `env:"SSLMODE" envDefault:"disable"`
}

// IsLive reports whether the side is introspected from a database rather than
// read from a file.
func (s SourceConfig) IsLive() bool {
	return s.File == "" && s.DB.DBName != ""
}

// EffectiveDialect returns the side's dialect, falling back to fallback.
func (s SourceConfig) EffectiveDialect(fallback string) string {
	if s.Dialect != "" {
		return s.Dialect
	}
	return fallback
}

// Load parses the environment, applies each override in order (CLI flags in
// practice) and validates the result.
func Load(overrides ...func(*Config)) (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config parsing error: %w", err)
	}
	for _, o := range overrides {
		o(cfg)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks a loaded (and possibly flag-overridden) configuration.
func Validate(cfg *Config) error {
	if _, err := schema.ParseDialect(cfg.Dialect); err != nil {
		return fmt.Errorf("invalid DIALECT: %w. Valid options: %v", err, dialectNames())
	}

	switch ApplyTo(strings.ToLower(string(cfg.ApplyTo))) {
	case ApplyToLeft, ApplyToRight:
		cfg.ApplyTo = ApplyTo(strings.ToLower(string(cfg.ApplyTo)))
	default:
		return fmt.Errorf("invalid apply-to side: %s. Valid options: %s, %s", cfg.ApplyTo, ApplyToLeft, ApplyToRight)
	}

	validatePort := func(port int, name string) error {
		if port < 1 || port > 65535 {
			return fmt.Errorf("invalid %s port: %d", name, port)
		}
		return nil
	}
	if err := validatePort(cfg.MetricsPort, "metrics"); err != nil {
		return err
	}

	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if cfg.IntrospectTimeout <= 0 {
		return fmt.Errorf("introspect timeout must be positive")
	}

	validSSL := map[string]bool{
		"disable":     true,
		"allow":       true,
		"prefer":      true,
		"require":     true,
		"verify-ca":   true,
		"verify-full": true,
	}
	for label, side := range map[string]SourceConfig{"left": cfg.Left, "right": cfg.Right} {
		d, err := schema.ParseDialect(side.EffectiveDialect(cfg.Dialect))
		if err != nil {
			return fmt.Errorf("invalid dialect for %s side: %w", label, err)
		}
		if !side.IsLive() {
			continue
		}
		if !isLiveDialect(d) {
			return fmt.Errorf("%s side: live introspection is not supported for dialect %s", label, d)
		}
		if d != schema.SQLite {
			if side.DB.Host == "" {
				return fmt.Errorf("%s side: database host is required for live introspection", label)
			}
			if err := validatePort(side.DB.Port, label+" database"); err != nil {
				return err
			}
			if !validSSL[strings.ToLower(side.DB.SSLMode)] {
				return fmt.Errorf("invalid SSL mode for %s DB: %s", label, side.DB.SSLMode)
			}
		}
	}
	return nil
}

func isLiveDialect(d schema.Dialect) bool {
	switch d {
	case schema.MySQL, schema.PostgreSQL, schema.SQLite:
		return true
	}
	return false
}

func dialectNames() []string {
	names := make([]string, 0, len(schema.Dialects))
	for _, d := range schema.Dialects {
		names = append(names, d.String())
	}
	sort.Strings(names) // Sort for consistent error messages
	return names
}
