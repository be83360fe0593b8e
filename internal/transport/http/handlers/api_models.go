package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/samsoft00/gold-standard/internal/core/domain"
)

// APIResponse is the uniform success envelope returned by every endpoint.
type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
}

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	TraceID    string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, status int, message string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		StatusCode: status,
		Message:    message,
		TraceID:    traceIDStr,
	}
}

// respond writes the success envelope with the given payload.
func respond(c *gin.Context, status int, message string, data any) {
	if message == "" {
		message = statusMessage(status)
	}
	c.JSON(status, APIResponse{
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// AdminSummary describes the admin view returned by the API. Credential
// fields never appear here.
type AdminSummary struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	IsDisabled  bool       `json:"is_disabled"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	LastLoginIP *string    `json:"last_login_ip,omitempty"`
}

func newAdminSummary(admin domain.Admin) AdminSummary {
	return AdminSummary{
		ID:          admin.ID,
		Email:       admin.Email,
		IsDisabled:  admin.IsDisabled,
		CreatedAt:   admin.CreatedAt,
		LastLoginAt: admin.LastLoginAt,
		LastLoginIP: admin.LastLoginIP,
	}
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse describes the response returned for a successful login.
type LoginResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	ExpiresIn int          `json:"expires_in"`
	Admin     AdminSummary `json:"admin"`
}

// UpdatePasswordRequest defines the payload for the password change endpoint.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// ResetRequest defines the payload for requesting a password reset link.
type ResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// ResetRequestData carries the test-environment-only reset token echo.
type ResetRequestData struct {
	ResetToken string `json:"reset_token,omitempty"`
}

// ConfirmResetRequest defines the payload for completing a password reset.
type ConfirmResetRequest struct {
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// InviteRequest defines the payload for inviting a new administrator.
type InviteRequest struct {
	Email string `json:"email" binding:"required"`
}

// InviteResponse describes the response for a freshly created invite.
type InviteResponse struct {
	Admin       AdminSummary `json:"admin"`
	InviteToken string       `json:"invite_token,omitempty"`
}

// AcceptInviteRequest defines the payload for accepting an invite. The invite
// token itself travels in the URL path.
type AcceptInviteRequest struct {
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// HealthResponse describes the liveness payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse describes the readiness payload with per-dependency state.
type ReadinessResponse struct {
	Status       string            `json:"status"`
	StartedAt    time.Time         `json:"started_at"`
	Dependencies map[string]string `json:"dependencies"`
}

// statusMessage maps a status code to its default envelope message.
func statusMessage(status int) string {
	switch status {
	case http.StatusOK:
		return "success"
	case http.StatusCreated:
		return "created"
	default:
		return http.StatusText(status)
	}
}
