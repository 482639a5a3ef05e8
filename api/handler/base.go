package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/domain"
	"github.com/fastygo/taskflow/internal/middleware"
	"github.com/fastygo/taskflow/pkg/httpcontext"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	return h.adapter.Attach(ctx)
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload transport.Envelope) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(payload.Bytes())
}

func (h baseHandler) respondSuccess(ctx *fasthttp.RequestCtx, status int, data interface{}) {
	h.respondJSON(ctx, status, transport.Success(data))
}

func (h baseHandler) respondMessage(ctx *fasthttp.RequestCtx, message string) {
	h.respondSuccess(ctx, http.StatusOK, transport.MessageResponse{Message: message})
}

// respondError maps domain errors to HTTP statuses. Anything else is logged
// and reported as a generic internal error.
func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, err error) {
	status, code := mapError(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", httpcontext.RequestID(ctx)),
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("path", ctx.Path()),
			zap.Error(err))
		message = "internal server error"
	} else if dErr := asDomainError(err); dErr != nil {
		message = dErr.Message
	}
	h.respondJSON(ctx, status, transport.Failure(code, message))
}

func (h baseHandler) badRequest(ctx *fasthttp.RequestCtx, message string) {
	h.respondJSON(ctx, http.StatusBadRequest, transport.Failure(string(domain.ErrCodeInvalid), message))
}

// decode reads a JSON body into dst and answers 400 when it is malformed.
func (h baseHandler) decode(ctx *fasthttp.RequestCtx, dst any) bool {
	if err := json.Unmarshal(ctx.PostBody(), dst); err != nil {
		h.badRequest(ctx, "invalid payload")
		return false
	}
	return true
}

// session returns the authenticated caller, answering 401 when absent.
func (h baseHandler) session(ctx *fasthttp.RequestCtx) (*domain.Session, bool) {
	session, ok := middleware.SessionFrom(ctx)
	if !ok {
		h.respondJSON(ctx, http.StatusUnauthorized, transport.Failure(string(domain.ErrCodeUnauthorized), "unauthorized"))
		return nil, false
	}
	return session, true
}

var statusByCode = map[domain.ErrorCode]int{
	domain.ErrCodeUnauthorized: http.StatusUnauthorized,
	domain.ErrCodeForbidden:    http.StatusForbidden,
	domain.ErrCodeInvalid:      http.StatusBadRequest,
	domain.ErrCodeNotFound:     http.StatusNotFound,
	domain.ErrCodeConflict:     http.StatusConflict,
}

func mapError(err error) (int, string) {
	code := domain.CodeOf(err)
	if status, ok := statusByCode[code]; ok {
		return status, string(code)
	}
	return http.StatusInternalServerError, string(domain.ErrCodeInternal)
}

func asDomainError(err error) *domain.Error {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return dErr
	}
	return nil
}
