package httpcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/fastygo/taskflow/pkg/logger"
)

func TestAttach_PinsRequestID(t *testing.T) {
	adapter := NewAdapter(time.Second)
	var ctx fasthttp.RequestCtx

	first, cancel := adapter.Attach(&ctx)
	defer cancel()
	second, cancel2 := adapter.Attach(&ctx)
	defer cancel2()

	id := string(ctx.Response.Header.Peek("X-Request-ID"))
	require.NotEmpty(t, id)

	core, logs := observer.New(zap.InfoLevel)
	base := zap.New(core)
	logger.WithRequestID(first, base).Info("one")
	logger.WithRequestID(second, base).Info("two")

	entries := logs.All()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, id, e.ContextMap()["request_id"])
	}

	deadline, ok := first.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 100*time.Millisecond)
}

func TestAttach_HonoursCallerRequestID(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("X-Request-ID", "abc-123")

	_, cancel := NewAdapter(0).Attach(&ctx)
	defer cancel()
	assert.Equal(t, "abc-123", string(ctx.Response.Header.Peek("X-Request-ID")))
}

func TestAttach_ClientIP(t *testing.T) {
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")

	stdCtx, cancel := NewAdapter(0).Attach(&ctx)
	defer cancel()
	assert.Equal(t, "203.0.113.7", ClientIP(stdCtx))

	assert.Empty(t, ClientIP(context.Background()))
}
