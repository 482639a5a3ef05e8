package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fasthttp/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
)

type stubAuth struct {
	tokens map[string]*domain.Session
	seen   string
	err    error
}

func (s *stubAuth) Authenticate(_ context.Context, token string) (*domain.Session, error) {
	s.seen = token
	if s.err != nil {
		return nil, s.err
	}
	if session, ok := s.tokens[token]; ok {
		return session, nil
	}
	return nil, domain.ErrInvalidToken
}

func TestJWTAuth(t *testing.T) {
	auth := &stubAuth{tokens: map[string]*domain.Session{"good": {UserID: "u1"}}}
	var reached *domain.Session
	handler := JWTAuth(auth, nil, nil)(func(ctx *fasthttp.RequestCtx) {
		reached, _ = SessionFrom(ctx)
	})

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("Authorization", "bearer good")
	handler(&ctx)
	require.NotNil(t, reached)
	assert.Equal(t, "u1", reached.UserID)
	assert.Equal(t, "good", auth.seen)

	for _, header := range []string{"", "Bearer bad"} {
		reached = nil
		var ctx fasthttp.RequestCtx
		if header != "" {
			ctx.Request.Header.Set("Authorization", header)
		}
		handler(&ctx)
		assert.Nil(t, reached)
		assert.Equal(t, fasthttp.StatusUnauthorized, ctx.Response.StatusCode())

		var env transport.Envelope
		require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
		assert.Equal(t, "error", env.Status)
		assert.Equal(t, "UNAUTHORIZED", env.Code)
	}
}

func TestJWTAuth_StoreFailure(t *testing.T) {
	auth := &stubAuth{err: fmt.Errorf("check token revocation: %w", errors.New("redis: connection refused"))}
	called := false
	handler := JWTAuth(auth, nil, nil)(func(ctx *fasthttp.RequestCtx) { called = true })

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.Set("Authorization", "Bearer good")
	handler(&ctx)

	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	var env transport.Envelope
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), &env))
	assert.Equal(t, "INTERNAL", env.Code)
	assert.NotContains(t, env.Error, "redis")
}

func TestSessionFrom_Missing(t *testing.T) {
	var ctx fasthttp.RequestCtx
	_, ok := SessionFrom(&ctx)
	assert.False(t, ok)
}

func TestCORS(t *testing.T) {
	called := false
	handler := CORS([]string{"http://localhost:5173"})(func(ctx *fasthttp.RequestCtx) { called = true })

	var allowed fasthttp.RequestCtx
	allowed.Request.Header.Set("Origin", "http://localhost:5173")
	handler(&allowed)
	assert.True(t, called)
	assert.Equal(t, "http://localhost:5173", string(allowed.Response.Header.Peek("Access-Control-Allow-Origin")))

	var foreign fasthttp.RequestCtx
	foreign.Request.Header.Set("Origin", "https://evil.example")
	handler(&foreign)
	assert.Empty(t, foreign.Response.Header.Peek("Access-Control-Allow-Origin"))

	called = false
	var preflight fasthttp.RequestCtx
	preflight.Request.Header.SetMethod(fasthttp.MethodOptions)
	preflight.Request.Header.Set("Origin", "http://localhost:5173")
	preflight.Request.Header.Set("Access-Control-Request-Method", "PUT")
	handler(&preflight)
	assert.False(t, called)
	assert.Equal(t, fasthttp.StatusNoContent, preflight.Response.StatusCode())
	assert.Contains(t, string(preflight.Response.Header.Peek("Access-Control-Allow-Methods")), "PUT")
}

type recordedRequest struct {
	method, route string
	status        int
}

type recordingObserver struct {
	seen []recordedRequest
}

func (r *recordingObserver) ObserveRequest(method, route string, status int, _ time.Duration) {
	r.seen = append(r.seen, recordedRequest{method: method, route: route, status: status})
}

func TestMetrics_LabelsByRoutePattern(t *testing.T) {
	obs := &recordingObserver{}
	handler := Metrics(obs)(func(ctx *fasthttp.RequestCtx) {
		ctx.SetUserValue(router.MatchedRoutePathParam, "/tasks/{id}")
		ctx.SetStatusCode(fasthttp.StatusNoContent)
	})

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod("DELETE")
	handler(&ctx)

	unmatched := Metrics(obs)(func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	})
	var other fasthttp.RequestCtx
	unmatched(&other)

	require.Len(t, obs.seen, 2)
	assert.Equal(t, recordedRequest{method: "DELETE", route: "/tasks/{id}", status: 204}, obs.seen[0])
	assert.Equal(t, recordedRequest{method: "GET", route: "unmatched", status: 404}, obs.seen[1])
}
