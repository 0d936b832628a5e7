package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedZap(t *testing.T) (*ZapLogger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	return NewZapLogger(zap.New(core).Sugar()), logs
}

func TestZapLogger_LevelsAndFields(t *testing.T) {
	log, logs := newObservedZap(t)
	ctx := context.Background()

	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	entries := logs.All()
	require.Len(t, entries, 3)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "inf", entries[0].Message)
	assert.EqualValues(t, 2, entries[0].ContextMap()["b"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestZapLogger_With(t *testing.T) {
	log, logs := newObservedZap(t)

	log.With("module", "users").Info(context.Background(), "hello", "user_id", "u1")

	entries := logs.FilterMessage("hello").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "users", fields["module"])
	assert.Equal(t, "u1", fields["user_id"])
}

func TestNew_SelectsBackend(t *testing.T) {
	l, flush, err := New(BackendZap, true)
	require.NoError(t, err)
	defer flush()
	_, ok := l.(*ZapLogger)
	assert.True(t, ok)

	l, flush, err = New(BackendSlog, false)
	require.NoError(t, err)
	defer flush()
	_, ok = l.(*SlogLogger)
	assert.True(t, ok)
}

func TestZapLogger_RedactsSecrets(t *testing.T) {
	log, logs := newObservedZap(t)

	log.With("token", "abc.def.ghi").Error(context.Background(), "refresh failed",
		"user_id", "u1", "new_password", "hunter2")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, redacted, fields["token"])
	assert.Equal(t, redacted, fields["new_password"])
	assert.Equal(t, "u1", fields["user_id"])
}
