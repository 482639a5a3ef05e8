package middleware

import (
	"context"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	"github.com/fastygo/taskflow/pkg/logger"
)

const sessionKey = "session"

// Authenticator resolves bearer tokens; satisfied by the auth use case.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.Session, error)
}

// JWTAuth rejects requests without a valid, unrevoked bearer token and
// stores the caller on the request for downstream handlers.
func JWTAuth(auth Authenticator, adapter *httpcontext.Adapter, log *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				unauthorized(ctx, "missing bearer token")
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			session, err := auth.Authenticate(stdCtx, tokenString)
			cancel()
			if err != nil {
				if !domain.IsDomainError(err, domain.ErrCodeUnauthorized) {
					logger.WithRequestID(stdCtx, log).Error("token verification failed", zap.Error(err))
					writeFailure(ctx, fasthttp.StatusInternalServerError, domain.ErrCodeInternal, "internal server error")
					return
				}
				log.Debug("rejected bearer token", zap.Error(err))
				unauthorized(ctx, "invalid or expired token")
				return
			}

			ctx.SetUserValue(sessionKey, session)
			next(ctx)
		}
	}
}

// SessionFrom returns the caller stored by JWTAuth.
func SessionFrom(ctx *fasthttp.RequestCtx) (*domain.Session, bool) {
	session, ok := ctx.UserValue(sessionKey).(*domain.Session)
	return session, ok && session != nil
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("Authorization")))
	if header == "" {
		return ""
	}
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return header
}

func unauthorized(ctx *fasthttp.RequestCtx, message string) {
	writeFailure(ctx, fasthttp.StatusUnauthorized, domain.ErrCodeUnauthorized, message)
}

func writeFailure(ctx *fasthttp.RequestCtx, status int, code domain.ErrorCode, message string) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(transport.Failure(string(code), message).Bytes())
}
