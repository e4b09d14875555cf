package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

func TestWithContext_FromContext(t *testing.T) {
	logger := zap.NewNop()
	ctx := WithContext(context.Background(), logger)

	assert.Same(t, logger, FromContext(ctx))
}

func TestFromContext_MissingReturnsNop(t *testing.T) {
	got := FromContext(context.Background())
	require.NotNil(t, got)
	// Must be safe to use.
	got.Info("no-op")
}

func TestWithRequestID(t *testing.T) {
	logger, logs := newObservedLogger()

	ctx, enriched := WithRequestID(context.Background(), logger, "req-123")
	enriched.Info("hello")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "req-123", logs.All()[0].ContextMap()["request_id"])
}

func TestWithPartnerID(t *testing.T) {
	logger, logs := newObservedLogger()

	ctx, enriched := WithPartnerID(context.Background(), logger, "partner-9")
	enriched.Info("scoped")

	assert.Equal(t, "partner-9", GetPartnerID(ctx))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "partner-9", logs.All()[0].ContextMap()["partner_id"])
}

func TestWithActorID(t *testing.T) {
	logger, logs := newObservedLogger()

	ctx, enriched := WithActorID(context.Background(), logger, "actor-7")
	enriched.Info("acted")

	assert.Equal(t, "actor-7", GetActorID(ctx))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "actor-7", logs.All()[0].ContextMap()["actor_id"])
}

func TestGetters_EmptyContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetPartnerID(ctx))
	assert.Empty(t, GetActorID(ctx))
}

func TestContextLogger_InjectsContextFields(t *testing.T) {
	logger, logs := newObservedLogger()

	ctx := WithContext(context.Background(), logger)
	ctx, _ = WithRequestID(ctx, logger, "req-42")
	ctx, _ = WithActorID(ctx, logger, "actor-1")

	L(ctx).Info("computed")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0].ContextMap()
	assert.Equal(t, "req-42", entry["request_id"])
	assert.Equal(t, "actor-1", entry["actor_id"])
}

func TestContextLogger_With(t *testing.T) {
	logger, logs := newObservedLogger()

	WithLogger(context.Background(), logger).
		With(zap.String("component", "settlement")).
		Info("ready")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "settlement", logs.All()[0].ContextMap()["component"])
}

func TestContextLogger_NilLoggerSafe(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background()}
	// Must not panic.
	cl.Info("ok")
	cl.Error("still ok")
}

func TestWithTraceContext_NoSpanUnchanged(t *testing.T) {
	logger := zap.NewNop()
	got := WithTraceContext(context.Background(), logger)
	assert.Same(t, logger, got)
}
