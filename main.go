package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arwahdevops/dbcompare/internal/compare"
	"github.com/arwahdevops/dbcompare/internal/config"
	"github.com/arwahdevops/dbcompare/internal/differ"
	"github.com/arwahdevops/dbcompare/internal/filter"
	"github.com/arwahdevops/dbcompare/internal/logger"
	"github.com/arwahdevops/dbcompare/internal/metrics"
	"github.com/arwahdevops/dbcompare/internal/secrets"
	"github.com/arwahdevops/dbcompare/internal/server"
)

// Exit codes.
const (
	exitOK          = 0
	exitFatal       = 1
	exitDifferent   = 2
	exitSideMissing = 3
)

var (
	dialectOverride string
	leftOverride    string
	rightOverride   string
	caseInsensitive bool
	applyToOverride string
	outputOverride  string
	filterOverride  string
	diffFormat      string
)

// exitError carries a non-zero exit code that is not a failure.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

var rootCmd = &cobra.Command{
	Use:   "dbcompare",
	Short: "Compare CREATE TABLE schemas and generate sync SQL",
	Long: `dbcompare parses CREATE TABLE DDL (from dump files, JSON table maps or live
databases), reports the structural differences between a left and a right
schema, and renders the ALTER script that turns one into the other.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Print the structural differences between the left and right schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCompare(cmd, false)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Write the SQL script that turns one side into the other",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runCompare(cmd, true)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (/v1/diff, /v1/sync, /metrics, /healthz, /readyz)",
	RunE:  runServe,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dialectOverride, "dialect", "", "Override DIALECT (mysql, postgresql, oracle, sqlserver, sqlite, mongodb, db2)")
	pf.StringVar(&leftOverride, "left", "", "Override LEFT_FILE (DDL file, *.json table map, or - for stdin)")
	pf.StringVar(&rightOverride, "right", "", "Override RIGHT_FILE (DDL file, *.json table map, or - for stdin)")
	pf.BoolVar(&caseInsensitive, "case-insensitive", true, "Override CASE_INSENSITIVE_NAMES")
	pf.StringVar(&applyToOverride, "apply-to", "", "Override APPLY_TO (left or right)")
	pf.StringVar(&outputOverride, "output", "", "Override OUTPUT_PATH (default stdout)")
	pf.StringVar(&filterOverride, "filter", "", "Override TABLE_FILTER_FILE (TOML with do-tables / ignore-tables)")
	diffCmd.Flags().StringVar(&diffFormat, "format", "text", "Output format for diff: text or json")

	rootCmd.AddCommand(diffCmd, syncCmd, serveCmd)
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	_ = logger.Log.Sync()
	if err == nil {
		os.Exit(exitOK)
	}
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(exitFatal)
}

// setup loads .env, initializes the logger and builds the final config with
// CLI overrides applied.
func setup(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Overload(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		stdlog.Printf("Warning: Could not load .env file: %v. Relying on environment variables.\n", err)
	}

	preCfg := &struct {
		EnableJsonLogging bool `env:"ENABLE_JSON_LOGGING" envDefault:"false"`
		DebugMode         bool `env:"DEBUG_MODE" envDefault:"false"`
	}{}
	if err := env.Parse(preCfg); err != nil {
		return nil, fmt.Errorf("failed to parse pre-configuration for logger: %w", err)
	}
	if err := logger.Init(preCfg.DebugMode, preCfg.EnableJsonLogging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.Load(func(cfg *config.Config) { applyCliOverrides(cmd, cfg) })
	if err != nil {
		return nil, err
	}
	logLoadedConfig(cfg)
	return cfg, nil
}

func applyCliOverrides(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	override := func(name string, dst *string, val string) {
		if flags.Changed(name) {
			logger.Log.Debug("Overriding config with CLI flag", zap.String("flag", name), zap.String("env_value", *dst), zap.String("cli_value", val))
			*dst = val
		}
	}
	override("dialect", &cfg.Dialect, dialectOverride)
	override("left", &cfg.Left.File, leftOverride)
	override("right", &cfg.Right.File, rightOverride)
	override("output", &cfg.OutputPath, outputOverride)
	override("filter", &cfg.TableFilterFile, filterOverride)
	if flags.Changed("apply-to") {
		cfg.ApplyTo = config.ApplyTo(strings.ToLower(applyToOverride))
	}
	if flags.Changed("case-insensitive") {
		cfg.CaseInsensitiveNames = caseInsensitive
	}
}

func logLoadedConfig(cfg *config.Config) {
	passwordSource := func(sc config.SourceConfig) string {
		switch {
		case !sc.IsLive():
			return "n/a"
		case sc.DB.Password != "":
			return "env var"
		case cfg.VaultEnabled && sc.SecretPath != "":
			return "vault"
		default:
			return "not set"
		}
	}
	logger.Log.Info("Final configuration in use",
		zap.String("dialect", cfg.Dialect),
		zap.Bool("case_insensitive_names", cfg.CaseInsensitiveNames),
		zap.String("apply_to", string(cfg.ApplyTo)),
		zap.String("output_path", cfg.OutputPath),
		zap.String("table_filter_file", cfg.TableFilterFile),
		zap.String("left_file", cfg.Left.File), zap.Bool("left_live", cfg.Left.IsLive()), zap.String("left_host", cfg.Left.DB.Host), zap.String("left_dbname", cfg.Left.DB.DBName), zap.String("left_password_source", passwordSource(cfg.Left)),
		zap.String("right_file", cfg.Right.File), zap.Bool("right_live", cfg.Right.IsLive()), zap.String("right_host", cfg.Right.DB.Host), zap.String("right_dbname", cfg.Right.DB.DBName), zap.String("right_password_source", passwordSource(cfg.Right)),
		zap.Duration("introspect_timeout", cfg.IntrospectTimeout),
		zap.Int("max_retries", cfg.MaxRetries), zap.Duration("retry_interval", cfg.RetryInterval),
		zap.Bool("vault_enabled", cfg.VaultEnabled), zap.Bool("vault_token_present", cfg.VaultToken != ""),
		zap.Bool("debug_mode", cfg.DebugMode), zap.Bool("json_logging", cfg.EnableJsonLogging),
	)
}

func loadFilter(cfg *config.Config) (*filter.Filter, error) {
	if cfg.TableFilterFile == "" {
		return nil, nil
	}
	return filter.LoadFile(cfg.TableFilterFile)
}

func secretManagers(cfg *config.Config) ([]secrets.SecretManager, error) {
	vaultMgr, err := secrets.NewVaultManager(cfg, logger.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Vault secret manager: %w", err)
	}
	managers := make([]secrets.SecretManager, 0, 1)
	if vaultMgr.IsEnabled() {
		managers = append(managers, vaultMgr)
	}
	return managers, nil
}

func runCompare(cmd *cobra.Command, sync bool) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if !sync && diffFormat != "text" && diffFormat != "json" {
		return fmt.Errorf("invalid --format %q, must be text or json", diffFormat)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f, err := loadFilter(cfg)
	if err != nil {
		return err
	}
	managers, err := secretManagers(cfg)
	if err != nil {
		return err
	}
	left, err := compare.SourceFromConfig("left", cfg.Left, cfg.Dialect)
	if err != nil {
		return err
	}
	right, err := compare.SourceFromConfig("right", cfg.Right, cfg.Dialect)
	if err != nil {
		return err
	}
	if (left.Path == "" && left.Live == nil) || (right.Path == "" && right.Live == nil) {
		return errors.New("both sides need a source: use --left/--right, LEFT_FILE/RIGHT_FILE or LEFT_DB_*/RIGHT_DB_*")
	}

	c := compare.New(compare.Options{
		CaseInsensitiveNames: cfg.CaseInsensitiveNames,
		ApplyTo:              cfg.ApplyTo,
		Filter:               f,
		IntrospectTimeout:    cfg.IntrospectTimeout,
		MaxRetries:           cfg.MaxRetries,
		RetryInterval:        cfg.RetryInterval,
		SecretManagers:       managers,
		Metrics:              metrics.NewMetricsStore(),
	}, logger.Log)

	var res *compare.Result
	if sync {
		res, err = c.Sync(ctx, left, right)
	} else {
		res, err = c.Diff(ctx, left, right)
	}
	if err != nil {
		return err
	}

	out, closeOut, err := openOutput(cfg.OutputPath)
	if err != nil {
		return err
	}
	defer closeOut()

	if sync {
		_, err = io.WriteString(out, res.SQL)
	} else {
		err = writeDiff(out, res.Diff, diffFormat)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	switch {
	case res.Degraded():
		logger.Log.Warn("Comparison ran with an empty side because a source could not be read", zap.Error(res.LoadErr))
		return &exitError{code: exitSideMissing}
	case !sync && !res.Diff.IsEmpty():
		return &exitError{code: exitDifferent}
	}
	return nil
}

func writeDiff(w io.Writer, d *differ.ObjectDiff, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	return differ.WriteText(w, d)
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	return f, func() {
		if err := f.Close(); err != nil {
			logger.Log.Error("Error closing output file", zap.String("path", path), zap.Error(err))
		}
	}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	f, err := loadFilter(cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, metrics.NewMetricsStore(), f, logger.Log).Run(ctx)
}
