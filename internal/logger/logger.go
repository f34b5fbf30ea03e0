package logger

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

// Log is the process wide logger. It is a no-op logger until Init runs so
// packages can log unconditionally.
var Log = zap.NewNop()

var gormLogger gormlogger.Interface

// GormLogger routes gorm's query and error logging to zap, redacting
// credentials from SQL text.
type GormLogger struct {
	*zap.Logger
	LogLevel      gormlogger.LogLevel
	SlowThreshold time.Duration
	redactors     []*regexp.Regexp
}

var sensitiveWords = []string{"password", "token", "secret", "apikey", "credential"}

// Init builds the global logger. debug switches to a development encoder at
// debug level; jsonOutput selects the JSON encoder.
func Init(debug bool, jsonOutput bool) error {
	var config zap.Config
	var encoderConfig zapcore.EncoderConfig

	if debug {
		config = zap.NewDevelopmentConfig()
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config = zap.NewProductionConfig()
		encoderConfig = zap.NewProductionEncoderConfig()
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
		config.DisableCaller = true
	}

	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.LevelKey = "level"
	encoderConfig.NameKey = "logger"
	encoderConfig.MessageKey = "msg"
	encoderConfig.StacktraceKey = "stacktrace"
	if !config.DisableCaller {
		encoderConfig.CallerKey = "caller"
	}
	if jsonOutput {
		// Colour codes do not belong in JSON.
		encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
		config.Encoding = "json"
	} else {
		config.Encoding = "console"
	}
	config.EncoderConfig = encoderConfig
	config.DisableStacktrace = !debug
	// Logs go to stderr so scripts written to stdout stay clean.
	config.OutputPaths = []string{"stderr"}

	built, err := config.Build()
	if err != nil {
		return fmt.Errorf("failed to build zap logger: %w", err)
	}
	Log = built
	gormLogger = NewGormLogger(Log, debug)

	Log.Debug("Logger initialized",
		zap.Bool("debug_mode", debug),
		zap.Bool("json_output", jsonOutput),
		zap.String("log_level", config.Level.Level().String()),
	)
	return nil
}

// NewGormLogger wraps base for gorm. In debug mode every statement is traced.
func NewGormLogger(base *zap.Logger, debug bool) *GormLogger {
	if base == nil {
		base = zap.NewNop()
	}
	level := gormlogger.Warn
	if debug {
		level = gormlogger.Info
	}
	redactors := make([]*regexp.Regexp, 0, len(sensitiveWords))
	for _, w := range sensitiveWords {
		redactors = append(redactors, regexp.MustCompile(fmt.Sprintf(`(?i)(%s\s*[:=]\s*)('.*?'|".*?"|\S+)`, regexp.QuoteMeta(w))))
	}
	return &GormLogger{
		Logger:        base.Named("gorm"),
		LogLevel:      level,
		SlowThreshold: 200 * time.Millisecond,
		redactors:     redactors,
	}
}

// GetGormLogger returns the gorm adapter built by Init, or a quiet one when
// Init has not run (tests).
func GetGormLogger() gormlogger.Interface {
	if gormLogger == nil {
		return NewGormLogger(Log, false)
	}
	return gormLogger
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	newLogger := *l
	newLogger.LogLevel = level
	return &newLogger
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Info {
		l.Logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Warn {
		l.Logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormlogger.Error {
		l.Logger.Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs introspection queries. Errors and slow queries are reported at
// Warn level and above; everything else only when gorm is at Info.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("duration", elapsed.Round(time.Millisecond)),
		zap.String("sql", l.Redact(sql)),
	}
	if rows > -1 {
		fields = append(fields, zap.Int64("rows", rows))
	}

	switch {
	case err != nil && l.LogLevel >= gormlogger.Error && !strings.Contains(err.Error(), "record not found"):
		l.Logger.Error("SQL Error", append(fields, zap.Error(err))...)
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.LogLevel >= gormlogger.Warn:
		l.Logger.Warn("Slow Query", append(fields, zap.Duration("threshold", l.SlowThreshold))...)
	case l.LogLevel >= gormlogger.Info:
		l.Logger.Debug("SQL Query", fields...)
	}
}

// Redact masks values assigned to credential-like keys in sql.
func (l *GormLogger) Redact(sql string) string {
	for _, re := range l.redactors {
		sql = re.ReplaceAllString(sql, `${1}***REDACTED***`)
	}
	return sql
}
