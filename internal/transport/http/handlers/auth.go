package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/samsoft00/gold-standard/internal/transport/http/middleware"
	"github.com/samsoft00/gold-standard/internal/usecase"
)

// AuthHandler exposes login, logout, and password change endpoints.
type AuthHandler struct {
	auth              *usecase.AuthService
	passwords         *usecase.PasswordService
	sessionTTLSeconds int
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, passwords *usecase.PasswordService, sessionTTLSeconds int) *AuthHandler {
	return &AuthHandler{
		auth:              auth,
		passwords:         passwords,
		sessionTTLSeconds: sessionTTLSeconds,
	}
}

// RegisterRoutes binds authentication routes, applying optional middleware ahead of the login handler.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares ...gin.HandlerFunc) {
	if len(loginMiddlewares) > 0 {
		chain := append([]gin.HandlerFunc{}, loginMiddlewares...)
		chain = append(chain, h.login)
		r.POST("/login", chain...)
	} else {
		r.POST("/login", h.login)
	}

	r.POST("/logout", middleware.RequireAuth(h.auth), h.logout)
	r.POST("/update-password", middleware.RequireAuth(h.auth), h.updatePassword)
	r.GET("/me", middleware.RequireAuth(h.auth), h.me)
}

var loginErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"},
	{Err: usecase.ErrAccountDisabled, Status: http.StatusUnauthorized, Message: "account disabled"},
	{Err: usecase.ErrTooManyAttempts, Status: http.StatusTooManyRequests, Message: "too many login attempts, slow down"},
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, http.StatusBadRequest, "email and password are required"))
		return
	}

	token, admin, err := h.auth.Login(c.Request.Context(), strings.TrimSpace(req.Email), req.Password, c.ClientIP())
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases, http.StatusInternalServerError, "login failed")
		return
	}

	respond(c, http.StatusOK, "login successful", LoginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: h.sessionTTLSeconds,
		Admin:     newAdminSummary(admin),
	})
}

func (h *AuthHandler) logout(c *gin.Context) {
	token, ok := middleware.GetBearerToken(c)
	if !ok || token == "" {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, http.StatusUnauthorized, "authentication required"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidSessionToken, Status: http.StatusUnauthorized, Message: "invalid session token"},
			{Err: usecase.ErrRevocationUnavailable, Status: http.StatusServiceUnavailable, Message: "logout temporarily unavailable"},
		}, http.StatusInternalServerError, "logout failed")
		return
	}

	respond(c, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) updatePassword(c *gin.Context) {
	adminID, ok := middleware.GetAuthenticatedAdminID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, http.StatusUnauthorized, "authentication required"))
		return
	}

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, http.StatusBadRequest, "current, new, and confirm passwords are required"))
		return
	}

	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, http.StatusBadRequest, "password and confirm password must match"))
		return
	}

	if err := h.passwords.ChangePassword(c.Request.Context(), adminID, req.CurrentPassword, req.Password); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "current password is incorrect"},
			{Err: usecase.ErrAccountDisabled, Status: http.StatusUnauthorized, Message: "account disabled"},
			{Err: usecase.ErrIdentityNotFound, Status: http.StatusNotFound, Message: "admin not found"},
		}, http.StatusInternalServerError, "failed to update password")
		return
	}

	// The session that changed the password stays valid; clients re-login at
	// their own pace.
	respond(c, http.StatusOK, "password updated", nil)
}

func (h *AuthHandler) me(c *gin.Context) {
	admin, ok := middleware.GetAuthenticatedAdmin(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, http.StatusUnauthorized, "authentication required"))
		return
	}

	respond(c, http.StatusOK, "success", newAdminSummary(admin))
}
