package handler

import (
	"net/http"
	"net/url"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	authUC "github.com/fastygo/taskflow/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc        *authUC.UseCase
	clientURL string
}

// NewAuthHandler builds the auth endpoints. clientURL is the frontend base
// federated sign-in redirects back to.
func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger, clientURL string) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
		clientURL:   clientURL,
	}
}

// @Summary Register a password account
// @Tags users
// @Router /users/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	summary, err := h.uc.Register(stdCtx, req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, summary)
}

// @Summary Exchange credentials for an access token
// @Tags users
// @Router /users/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	token, err := h.uc.Login(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, token)
}

// @Summary Revoke the presented token
// @Tags users
// @Router /users/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	session, ok := h.session(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Logout(stdCtx, session); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondMessage(ctx, "logged out")
}

// @Summary Revoke every token of the caller
// @Tags users
// @Router /users/logout-all [post]
func (h *AuthHandler) LogoutAll(ctx *fasthttp.RequestCtx) {
	session, ok := h.session(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.LogoutAll(stdCtx, session); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondMessage(ctx, "all sessions revoked")
}

// @Summary Start Google sign-in
// @Tags auth
// @Router /auth/google [get]
func (h *AuthHandler) GoogleStart(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	target, err := h.uc.BeginFederated(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.Redirect(target, fasthttp.StatusFound)
}

// @Summary Google sign-in callback
// @Tags auth
// @Router /auth/google/callback [get]
func (h *AuthHandler) GoogleCallback(ctx *fasthttp.RequestCtx) {
	args := ctx.QueryArgs()
	if len(args.Peek("error")) > 0 {
		h.logger.Info("federated sign-in cancelled", zap.ByteString("error", args.Peek("error")))
		ctx.Redirect(h.clientURL+"/login?error=oauth", fasthttp.StatusFound)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	token, err := h.uc.CompleteFederated(stdCtx, string(args.Peek("state")), string(args.Peek("code")))
	if err != nil {
		h.logger.Warn("federated sign-in failed",
			zap.String("request_id", httpcontext.RequestID(ctx)),
			zap.Error(err))
		ctx.Redirect(h.clientURL+"/login?error=oauth", fasthttp.StatusFound)
		return
	}
	ctx.Redirect(h.clientURL+"/oauth-success?token="+url.QueryEscape(token.AccessToken), fasthttp.StatusFound)
}
