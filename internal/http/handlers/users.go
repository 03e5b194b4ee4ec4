package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/accounthub/internal/account"
	"github.com/geocoder89/accounthub/internal/domain/user"
	"github.com/geocoder89/accounthub/internal/http/middlewares"
	"github.com/geocoder89/accounthub/internal/observability"
)

// AccountService is what the users endpoints need from internal/account.
type AccountService interface {
	Register(ctx context.Context, form user.RegistrationForm) (string, error)
	Login(ctx context.Context, form user.LoginForm) (string, error)
	GetProfile(ctx context.Context, userID string) (user.User, error)
	UpdateProfile(ctx context.Context, userID string, form user.ProfileForm) (user.User, error)
	DeleteProfile(ctx context.Context, userID string) error
}

type UsersHandler struct {
	svc     AccountService
	log     *slog.Logger
	prom    *observability.Prom
	timeout time.Duration
}

// NewUsersHandler wires the account endpoints. prom may be nil.
func NewUsersHandler(svc AccountService, log *slog.Logger, prom *observability.Prom) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{svc: svc, log: log, prom: prom, timeout: 5 * time.Second}
}

type tokenResponse struct {
	Token string `json:"token"`
}

type updateResponse struct {
	Message string    `json:"msg"`
	User    user.User `json:"user"`
}

type deleteResponse struct {
	Message string `json:"message"`
}

func (h *UsersHandler) Register(ctx *gin.Context) {
	var form user.RegistrationForm
	if !BindJSON(ctx, &form) {
		h.prom.ObserveAuth("register", "invalid")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	token, err := h.svc.Register(cctx, form)
	if err != nil {
		h.prom.ObserveAuth("register", outcome(err))
		h.respondErr(ctx, err)
		return
	}

	h.prom.ObserveAuth("register", "ok")
	ctx.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (h *UsersHandler) Login(ctx *gin.Context) {
	var form user.LoginForm
	if !BindJSON(ctx, &form) {
		h.prom.ObserveAuth("login", "invalid")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	token, err := h.svc.Login(cctx, form)
	if err != nil {
		h.prom.ObserveAuth("login", outcome(err))
		h.respondErr(ctx, err)
		return
	}

	h.prom.ObserveAuth("login", "ok")
	ctx.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (h *UsersHandler) GetProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, middlewares.MsgNoToken)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.svc.GetProfile(cctx, userID)
	if err != nil {
		h.respondErr(ctx, err)
		return
	}

	ctx.Header("Cache-Control", "private, no-cache")
	RespondJSONWithETag(ctx, http.StatusOK, u)
}

func (h *UsersHandler) UpdateProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, middlewares.MsgNoToken)
		return
	}

	var form user.ProfileForm
	if !BindJSON(ctx, &form) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	u, err := h.svc.UpdateProfile(cctx, userID, form)
	if err != nil {
		h.respondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, updateResponse{Message: "Profile updated successfully", User: u})
}

func (h *UsersHandler) DeleteProfile(ctx *gin.Context) {
	userID, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, middlewares.MsgNoToken)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.svc.DeleteProfile(cctx, userID); err != nil {
		h.respondErr(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, deleteResponse{Message: "User account deleted successfully"})
}

// respondErr is the single place account errors become HTTP responses.
func (h *UsersHandler) respondErr(ctx *gin.Context, err error) {
	var verr *user.ValidationError

	switch {
	case errors.As(err, &verr):
		RespondBadRequest(ctx, MsgInvalidInput, verr.Fields)
	case errors.Is(err, user.ErrEmailTaken):
		RespondError(ctx, http.StatusBadRequest, "user_exists", MsgUserExists, nil)
	case errors.Is(err, account.ErrInvalidCredentials):
		RespondError(ctx, http.StatusBadRequest, "invalid_credentials", MsgInvalidCredentials, nil)
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, MsgUserNotFound)
	default:
		h.log.ErrorContext(ctx.Request.Context(), "account request failed",
			"route", ctx.FullPath(),
			"err", err,
		)
		RespondInternal(ctx)
	}
}

func outcome(err error) string {
	var verr *user.ValidationError

	switch {
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, user.ErrEmailTaken):
		return "conflict"
	case errors.Is(err, account.ErrInvalidCredentials):
		return "invalid_credentials"
	default:
		return "error"
	}
}
