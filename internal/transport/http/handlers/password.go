package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/samsoft00/gold-standard/internal/usecase"
)

// PasswordHandler exposes the password reset flow: requesting a link,
// validating it, and confirming the new password.
type PasswordHandler struct {
	passwords *usecase.PasswordService
	isTestEnv bool
}

// NewPasswordHandler constructs PasswordHandler.
func NewPasswordHandler(passwords *usecase.PasswordService, isTestEnv bool) *PasswordHandler {
	return &PasswordHandler{passwords: passwords, isTestEnv: isTestEnv}
}

// RegisterRoutes binds password reset routes, applying optional middleware ahead of the request handler.
func (h *PasswordHandler) RegisterRoutes(r *gin.RouterGroup, requestMiddlewares ...gin.HandlerFunc) {
	if len(requestMiddlewares) > 0 {
		chain := append([]gin.HandlerFunc{}, requestMiddlewares...)
		chain = append(chain, h.requestReset)
		r.POST("/reset-password", chain...)
	} else {
		r.POST("/reset-password", h.requestReset)
	}

	r.GET("/reset-password/:reset_token", h.validateResetToken)
	r.POST("/reset-password/:reset_token/confirm", h.confirmReset)
}

// requestReset always answers 200 so the endpoint cannot be used to probe
// which emails have accounts.
func (h *PasswordHandler) requestReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, http.StatusBadRequest, "email is required"))
		return
	}

	token, err := h.passwords.RequestReset(c.Request.Context(), strings.TrimSpace(req.Email), c.ClientIP())
	if err != nil {
		if errors.Is(err, usecase.ErrIdentityNotFound) || errors.Is(err, usecase.ErrAccountDisabled) {
			respond(c, http.StatusOK, "if the email exists, a reset link has been sent", nil)
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, http.StatusInternalServerError, "failed to process reset request"))
		return
	}

	var data any
	if h.isTestEnv {
		data = ResetRequestData{ResetToken: token}
	}

	respond(c, http.StatusOK, "if the email exists, a reset link has been sent", data)
}

var resetTokenErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidResetToken, Status: http.StatusBadRequest, Message: "reset link is invalid"},
	{Err: usecase.ErrExpiredResetToken, Status: http.StatusBadRequest, Message: "reset link has expired"},
	{Err: usecase.ErrAccountDisabled, Status: http.StatusUnauthorized, Message: "account disabled"},
}

func (h *PasswordHandler) validateResetToken(c *gin.Context) {
	token := c.Param("reset_token")

	admin, err := h.passwords.ValidateResetToken(c.Request.Context(), token)
	if err != nil {
		RespondWithMappedError(c, err, resetTokenErrorCases, http.StatusInternalServerError, "failed to validate reset link")
		return
	}

	respond(c, http.StatusOK, "reset link is valid", newAdminSummary(admin))
}

func (h *PasswordHandler) confirmReset(c *gin.Context) {
	token := c.Param("reset_token")

	var req ConfirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, http.StatusBadRequest, "password and confirm password are required"))
		return
	}

	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, http.StatusBadRequest, "password and confirm password must match"))
		return
	}

	if err := h.passwords.ResetPassword(c.Request.Context(), token, req.Password); err != nil {
		RespondWithMappedError(c, err, resetTokenErrorCases, http.StatusInternalServerError, "failed to reset password")
		return
	}

	respond(c, http.StatusOK, "password has been reset", nil)
}
