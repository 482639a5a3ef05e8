package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskflow/api/transport"
	"github.com/fastygo/taskflow/pkg/httpcontext"
	profileUC "github.com/fastygo/taskflow/usecase/profile"
)

type ProfileHandler struct {
	baseHandler
	uc *profileUC.UseCase
}

func NewProfileHandler(uc *profileUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

type currentUserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// @Summary Current user
// @Tags users
// @Router /users/current [get]
func (h *ProfileHandler) Current(ctx *fasthttp.RequestCtx) {
	session, ok := h.session(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.GetProfile(stdCtx, session.UserID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, currentUserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
}

// @Summary Change password
// @Tags users
// @Router /users/change-password [put]
func (h *ProfileHandler) ChangePassword(ctx *fasthttp.RequestCtx) {
	session, ok := h.session(ctx)
	if !ok {
		return
	}
	var req transport.ChangePasswordRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.ChangePassword(stdCtx, session.UserID, req.Current(), req.New()); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondMessage(ctx, "password updated")
}

// @Summary Delete account and owned tasks
// @Tags users
// @Router /users/delete-user [delete]
func (h *ProfileHandler) DeleteUser(ctx *fasthttp.RequestCtx) {
	session, ok := h.session(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.DeleteAccount(stdCtx, session); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondMessage(ctx, "user deleted")
}
