package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestRedact(t *testing.T) {
	l := NewGormLogger(zap.NewNop(), false)
	testCases := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"password='hunter2' AND x=1", "password=***REDACTED*** AND x=1"},
		{`token: "abc def"`, `token: ***REDACTED***`},
		{"SECRET=xyz", "SECRET=***REDACTED***"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.want, l.Redact(tc.in))
	}
}

func TestTraceLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewGormLogger(zap.New(core), false)
	fc := func() (string, int64) { return "SHOW CREATE TABLE `t`", 1 }

	l.Trace(context.Background(), time.Now(), fc, nil)
	assert.Equal(t, 0, logs.Len(), "plain queries are not traced at warn level")

	l.Trace(context.Background(), time.Now(), fc, errors.New("boom"))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "SQL Error", logs.All()[0].Message)

	l.Trace(context.Background(), time.Now().Add(-time.Second), fc, nil)
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "Slow Query", logs.All()[1].Message)

	debug := l.LogMode(gormlogger.Info)
	debug.Trace(context.Background(), time.Now(), fc, nil)
	require.Equal(t, 3, logs.Len())
	assert.Equal(t, "SQL Query", logs.All()[2].Message)

	silent := l.LogMode(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), fc, errors.New("ignored"))
	assert.Equal(t, 3, logs.Len())
}

func TestGetGormLoggerBeforeInit(t *testing.T) {
	assert.NotNil(t, GetGormLogger())
}
