package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/accounthub/internal/domain/user"
)

// ErrorBody is every error response. The request id rides in the
// X-Request-Id header, never in the body.
type ErrorBody struct {
	Message string            `json:"msg"`
	Code    string            `json:"code"`
	Errors  []user.FieldError `json:"errors,omitempty"`
}

const (
	MsgUserExists         = "User already exists"
	MsgInvalidCredentials = "Invalid credentials"
	MsgUserNotFound       = "User not found"
	MsgServerError        = "Server error"
	MsgInvalidInput       = "Invalid input"
)

func RespondError(ctx *gin.Context, status int, code, message string, fields []user.FieldError) {
	ctx.AbortWithStatusJSON(status, ErrorBody{
		Message: message,
		Code:    code,
		Errors:  fields,
	})
}

func RespondBadRequest(ctx *gin.Context, message string, fields []user.FieldError) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, fields)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, "not_found", message, nil)
}

func RespondUnauthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, "unauthorized", message, nil)
}

func RespondInternal(ctx *gin.Context) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", MsgServerError, nil)
}
