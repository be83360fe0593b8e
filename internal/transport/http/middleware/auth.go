package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/samsoft00/gold-standard/internal/core/domain"
	"github.com/samsoft00/gold-standard/internal/usecase"
)

// ErrorResponse mirrors the handler package's error body so middleware
// rejections look the same on the wire.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	TraceID    string `json:"trace_id,omitempty"`
}

// bearerTokenKey stores the raw bearer token so logout can revoke the exact
// credential that authenticated the request.
const bearerTokenKey = "bearer_token"

func abortAuth(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		StatusCode: status,
		Message:    message,
		TraceID:    GetTraceID(c),
	})
}

// bearerFromHeader pulls the token out of "Bearer <token>". The empty string
// means the header was absent or malformed; the second return carries the
// message to reject with.
func bearerFromHeader(c *gin.Context) (string, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", "missing authorization header"
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", "invalid authorization format: expected 'Bearer <token>'"
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return "", "missing session token"
	}
	return token, ""
}

// RequireAuth validates the Authorization header against the full session
// token pipeline: signature, expiry, revocation, and a live identity check.
func RequireAuth(authService *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, rejection := bearerFromHeader(c)
		if rejection != "" {
			abortAuth(c, http.StatusUnauthorized, rejection)
			return
		}

		admin, claims, err := authService.ParseSessionToken(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrExpiredSessionToken):
				abortAuth(c, http.StatusUnauthorized, "session token expired")
			case errors.Is(err, usecase.ErrSessionRevoked):
				abortAuth(c, http.StatusUnauthorized, "session revoked")
			case errors.Is(err, usecase.ErrInvalidSessionToken):
				abortAuth(c, http.StatusUnauthorized, "invalid session token")
			case errors.Is(err, usecase.ErrIdentityNotFound):
				abortAuth(c, http.StatusNotFound, "admin not found")
			case errors.Is(err, usecase.ErrAccountDisabled):
				abortAuth(c, http.StatusUnauthorized, "account disabled")
			case errors.Is(err, usecase.ErrRevocationUnavailable):
				abortAuth(c, http.StatusServiceUnavailable, "authentication temporarily unavailable")
			default:
				abortAuth(c, http.StatusInternalServerError, "authentication failed")
			}
			return
		}

		c.Set(AdminIDKey, admin.ID)
		c.Set(AdminKey, admin)
		c.Set("claims", claims)
		c.Set(bearerTokenKey, token)

		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.AdminID = admin.ID
		}

		c.Next()
	}
}

// GetAuthenticatedAdminID reads the admin id RequireAuth stored on the context.
func GetAuthenticatedAdminID(c *gin.Context) (string, bool) {
	id, ok := c.Value(AdminIDKey).(string)
	return id, ok && id != ""
}

// GetAuthenticatedAdmin reads the sanitized admin record stored by RequireAuth.
func GetAuthenticatedAdmin(c *gin.Context) (domain.Admin, bool) {
	admin, ok := c.Value(AdminKey).(domain.Admin)
	return admin, ok
}

// GetBearerToken reads the raw session token that authenticated the request.
func GetBearerToken(c *gin.Context) (string, bool) {
	token, ok := c.Value(bearerTokenKey).(string)
	return token, ok && token != ""
}
