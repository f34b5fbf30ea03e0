// Package compare is the I/O boundary around the pure parse, diff and
// generate pipeline. It loads both sides (files, stdin, table maps, inline
// DDL or live databases), filters them, diffs them and optionally renders the
// sync script.
package compare

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arwahdevops/dbcompare/internal/config"
	"github.com/arwahdevops/dbcompare/internal/db"
	"github.com/arwahdevops/dbcompare/internal/differ"
	"github.com/arwahdevops/dbcompare/internal/filter"
	"github.com/arwahdevops/dbcompare/internal/generator"
	"github.com/arwahdevops/dbcompare/internal/introspect"
	"github.com/arwahdevops/dbcompare/internal/metrics"
	"github.com/arwahdevops/dbcompare/internal/parser"
	"github.com/arwahdevops/dbcompare/internal/schema"
	"github.com/arwahdevops/dbcompare/internal/secrets"
)

// CrossDialectComparisonError is returned when the two sides are declared in
// different dialects.
type CrossDialectComparisonError struct {
	Left  schema.Dialect
	Right schema.Dialect
}

func (e *CrossDialectComparisonError) Error() string {
	return fmt.Sprintf("cannot compare a %s schema with a %s schema", e.Left, e.Right)
}

// StdinPath selects standard input as a side's DDL source.
const StdinPath = "-"

// Source describes one side of a comparison. Exactly one of Live, Path or DDL
// is used, in that order of precedence.
type Source struct {
	Label   string
	Dialect schema.Dialect
	Path    string
	DDL     string
	Live    *config.SourceConfig
}

// SourceFromConfig converts a configured side.
func SourceFromConfig(label string, sc config.SourceConfig, fallback string) (Source, error) {
	d, err := schema.ParseDialect(sc.EffectiveDialect(fallback))
	if err != nil {
		return Source{}, fmt.Errorf("%s side: %w", label, err)
	}
	src := Source{Label: label, Dialect: d, Path: sc.File}
	if sc.IsLive() {
		live := sc
		src.Live = &live
	}
	return src, nil
}

type Options struct {
	CaseInsensitiveNames bool
	ApplyTo              config.ApplyTo
	Filter               *filter.Filter
	IntrospectTimeout    time.Duration
	MaxRetries           int
	RetryInterval        time.Duration
	SecretManagers       []secrets.SecretManager
	Metrics              *metrics.Store
	Stdin                io.Reader
}

// Result is the outcome of one comparison.
type Result struct {
	Dialect schema.Dialect
	Left    *schema.Schema
	Right   *schema.Schema
	Diff    *differ.ObjectDiff

	// Script and SQL are only set by Sync.
	Script *generator.Script
	SQL    string

	// LoadErr holds the *parser.IOError of every side that could not be read.
	// Such sides were compared as empty schemas.
	LoadErr error
}

// Degraded reports whether at least one side was replaced by an empty schema.
func (r *Result) Degraded() bool { return r.LoadErr != nil }

type Comparer struct {
	opts   Options
	logger *zap.Logger
}

func New(opts Options, logger *zap.Logger) *Comparer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ApplyTo == "" {
		opts.ApplyTo = config.ApplyToLeft
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	return &Comparer{opts: opts, logger: logger.Named("compare")}
}

// Diff loads both sides and computes their structural difference.
func (c *Comparer) Diff(ctx context.Context, left, right Source) (res *Result, err error) {
	done := c.opts.Metrics.StartComparison(left.Dialect.String())
	defer func() { done(outcome(res, err)) }()

	res, err = c.load(ctx, left, right)
	if err != nil {
		return nil, err
	}
	res.Diff = differ.New(c.logger, c.opts.CaseInsensitiveNames).Diff(res.Left, res.Right)
	c.opts.Metrics.ObserveDiff(res.Diff.Counts())
	return res, nil
}

// Sync is Diff followed by script generation. The script runs against the
// side named by Options.ApplyTo and turns it into the other side.
func (c *Comparer) Sync(ctx context.Context, left, right Source) (res *Result, err error) {
	done := c.opts.Metrics.StartComparison(left.Dialect.String())
	defer func() { done(outcome(res, err)) }()

	gen, err := c.generatorFor(left, right)
	if err != nil {
		return nil, err
	}
	res, err = c.load(ctx, left, right)
	if err != nil {
		return nil, err
	}

	d := differ.New(c.logger, c.opts.CaseInsensitiveNames)
	res.Diff = d.Diff(res.Left, res.Right)
	c.opts.Metrics.ObserveDiff(res.Diff.Counts())

	if c.opts.ApplyTo == config.ApplyToRight {
		res.Script = gen.Build(d.Diff(res.Right, res.Left), res.Left)
	} else {
		res.Script = gen.Build(res.Diff, res.Right)
	}
	res.SQL = res.Script.String()
	c.opts.Metrics.ObserveStatements(gen.Dialect().String(), res.Script.StatementCount())
	c.logger.Info("Generated sync script",
		zap.String("apply_to", string(c.opts.ApplyTo)),
		zap.Int("tables", len(res.Script.Blocks)),
		zap.Int("statements", res.Script.StatementCount()))
	return res, nil
}

func outcome(res *Result, err error) string {
	switch {
	case err != nil:
		return "failed"
	case res == nil || res.Diff.IsEmpty():
		return "identical"
	default:
		return "different"
	}
}

func (c *Comparer) generatorFor(left, right Source) (*generator.Generator, error) {
	if err := checkDialects(left, right); err != nil {
		c.opts.Metrics.RecordError("cross_dialect", "both")
		return nil, err
	}
	gen, err := generator.New(left.Dialect,
		generator.WithLogger(c.logger),
		generator.WithCaseInsensitiveNames(c.opts.CaseInsensitiveNames))
	if err != nil {
		c.opts.Metrics.RecordError("unsupported_dialect", "both")
		return nil, err
	}
	return gen, nil
}

func checkDialects(left, right Source) error {
	if left.Dialect != right.Dialect {
		return &CrossDialectComparisonError{Left: left.Dialect, Right: right.Dialect}
	}
	return nil
}

// load reads both sides concurrently, then applies the table filter.
func (c *Comparer) load(ctx context.Context, left, right Source) (*Result, error) {
	if err := checkDialects(left, right); err != nil {
		c.opts.Metrics.RecordError("cross_dialect", "both")
		return nil, err
	}
	if left.Live == nil && right.Live == nil && left.Path == StdinPath && right.Path == StdinPath {
		return nil, fmt.Errorf("only one side can be read from standard input")
	}

	if c.opts.IntrospectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.IntrospectTimeout)
		defer cancel()
	}

	res := &Result{Dialect: left.Dialect}
	var (
		mu      sync.Mutex
		loadErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, side := range []struct {
		src Source
		dst **schema.Schema
	}{{left, &res.Left}, {right, &res.Right}} {
		side := side
		g.Go(func() error {
			start := time.Now()
			s, err := c.loadSide(gctx, side.src)
			if err != nil {
				if !parser.IsIOError(err) {
					return err
				}
				c.opts.Metrics.RecordError("io", side.src.Label)
				mu.Lock()
				loadErr = multierr.Append(loadErr, fmt.Errorf("%s side: %w", side.src.Label, err))
				mu.Unlock()
			}
			*side.dst = s
			c.opts.Metrics.ObserveLoad(side.src.Label, s.Len(), time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	res.LoadErr = loadErr

	if dropped := c.opts.Filter.Apply(res.Left); len(dropped) > 0 {
		c.logger.Debug("Filtered tables", zap.String("side", left.Label), zap.Strings("tables", dropped))
	}
	if dropped := c.opts.Filter.Apply(res.Right); len(dropped) > 0 {
		c.logger.Debug("Filtered tables", zap.String("side", right.Label), zap.Strings("tables", dropped))
	}
	return res, nil
}

// loadSide never returns a nil schema together with an *parser.IOError; the
// schema is empty instead.
func (c *Comparer) loadSide(ctx context.Context, src Source) (*schema.Schema, error) {
	log := c.logger.With(zap.String("side", src.Label), zap.String("dialect", src.Dialect.String()))
	p, err := parser.New(src.Dialect, c.logger)
	if err != nil {
		return nil, err
	}

	switch {
	case src.Live != nil:
		ddl, err := c.fetchLive(ctx, src)
		if err != nil {
			return nil, err
		}
		return p.Parse(ddl), nil
	case src.Path == StdinPath:
		data, err := io.ReadAll(c.opts.Stdin)
		if err != nil {
			return schema.NewSchema(src.Dialect), &parser.IOError{Path: "<stdin>", Err: err}
		}
		return p.Parse(string(data)), nil
	case strings.EqualFold(filepath.Ext(src.Path), ".json"):
		f, err := os.Open(src.Path)
		if err != nil {
			log.Warn("Could not open table map; continuing with an empty schema", zap.Error(err))
			return schema.NewSchema(src.Dialect), &parser.IOError{Path: src.Path, Err: err}
		}
		defer f.Close()
		s, err := parser.DecodeTableMap(f, src.Dialect)
		if err != nil {
			return nil, fmt.Errorf("%s side: %w", src.Label, err)
		}
		return s, nil
	case src.Path != "":
		return p.ParseFile(src.Path)
	default:
		return p.Parse(src.DDL), nil
	}
}

func (c *Comparer) fetchLive(ctx context.Context, src Source) (string, error) {
	creds := &secrets.Credentials{}
	if src.Dialect != schema.SQLite {
		var err error
		creds, err = secrets.Resolve(ctx, *src.Live, src.Label, c.opts.SecretManagers, c.logger)
		if err != nil {
			c.opts.Metrics.RecordError("credentials", src.Label)
			return "", err
		}
	}
	dsn, err := db.BuildDSN(src.Dialect, src.Live.DB, creds.Username, creds.Password)
	if err != nil {
		return "", err
	}
	conn, err := db.ConnectWithRetry(ctx, src.Dialect, dsn, db.RetryOptions{
		MaxRetries:    c.opts.MaxRetries,
		RetryInterval: c.opts.RetryInterval,
		Label:         src.Label,
		Metrics:       c.opts.Metrics,
	})
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			c.logger.Warn("Error closing database connection", zap.String("side", src.Label), zap.Error(cerr))
		}
	}()
	if err := conn.Optimize(2, time.Hour); err != nil {
		c.logger.Warn("Failed to size connection pool", zap.String("side", src.Label), zap.Error(err))
	}

	ddl, err := introspect.New(conn, c.logger).FetchDDL(ctx)
	if err != nil {
		c.opts.Metrics.RecordError("introspect", src.Label)
		return "", fmt.Errorf("%s side: %w", src.Label, err)
	}
	return ddl, nil
}
