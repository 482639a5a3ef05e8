package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/fastygo/taskflow/pkg/logger"
)

const (
	headerRequestID    = "X-Request-ID"
	headerForwardedFor = "X-Forwarded-For"
)

type clientIPKey struct{}

// Adapter turns a fasthttp request into a stdlib context bounded by the
// request timeout and carrying the request id and client address.
type Adapter struct {
	timeout time.Duration
}

func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach derives the context for one request. The request id is pinned on
// the request, so middleware and handlers attaching separately log under
// the same id.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)
	if ctx == nil {
		return appLogger.ContextWithRequestID(stdCtx, uuid.NewString()), cancel
	}

	reqID := RequestID(ctx)
	ctx.Response.Header.Set(headerRequestID, reqID)
	stdCtx = appLogger.ContextWithRequestID(stdCtx, reqID)
	stdCtx = context.WithValue(stdCtx, clientIPKey{}, remoteIP(ctx))
	return stdCtx, cancel
}

// RequestID returns the caller supplied request id or assigns a new one.
func RequestID(ctx *fasthttp.RequestCtx) string {
	if header := strings.TrimSpace(string(ctx.Request.Header.Peek(headerRequestID))); header != "" {
		return header
	}
	id := uuid.NewString()
	ctx.Request.Header.Set(headerRequestID, id)
	return id
}

// ClientIP returns the address recorded by Attach, or "" outside a request.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// remoteIP prefers the first X-Forwarded-For hop set by a proxy.
func remoteIP(ctx *fasthttp.RequestCtx) string {
	if fwd := string(ctx.Request.Header.Peek(headerForwardedFor)); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	return ctx.RemoteIP().String()
}
