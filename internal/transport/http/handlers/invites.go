package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/samsoft00/gold-standard/internal/transport/http/middleware"
	"github.com/samsoft00/gold-standard/internal/usecase"
)

// InviteHandler exposes the administrator invite lifecycle endpoints.
type InviteHandler struct {
	invites   *usecase.InviteService
	auth      *usecase.AuthService
	isTestEnv bool
}

// NewInviteHandler constructs InviteHandler.
func NewInviteHandler(invites *usecase.InviteService, auth *usecase.AuthService, isTestEnv bool) *InviteHandler {
	return &InviteHandler{invites: invites, auth: auth, isTestEnv: isTestEnv}
}

// RegisterRoutes binds invite routes. Creating invites requires an
// authenticated admin; validating and accepting them happens pre-login.
func (h *InviteHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/admins", middleware.RequireAuth(h.auth), h.inviteAdmin)
	r.GET("/admins/validate-link/:token", h.validateInvite)
	r.POST("/admins/accept-invite/:token", h.acceptInvite)
}

var inviteErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidEmail, Status: http.StatusBadRequest, Message: "a valid email address is required"},
	{Err: usecase.ErrAdminExists, Status: http.StatusConflict, Message: "an administrator with this email already exists"},
	{Err: usecase.ErrInvalidInviteToken, Status: http.StatusBadRequest, Message: "invite link is invalid"},
	{Err: usecase.ErrExpiredInviteToken, Status: http.StatusBadRequest, Message: "invite link has expired"},
	{Err: usecase.ErrInviteAlreadyAccepted, Status: http.StatusConflict, Message: "this invite has already been accepted"},
	{Err: usecase.ErrAccountDisabled, Status: http.StatusUnauthorized, Message: "account disabled"},
}

func (h *InviteHandler) inviteAdmin(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, http.StatusBadRequest, "email is required"))
		return
	}

	admin, token, err := h.invites.InviteAdmin(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		RespondWithMappedError(c, err, inviteErrorCases, http.StatusInternalServerError, "failed to invite admin")
		return
	}

	resp := InviteResponse{Admin: newAdminSummary(admin)}
	if h.isTestEnv {
		resp.InviteToken = token
	}

	respond(c, http.StatusCreated, "invite sent", resp)
}

func (h *InviteHandler) validateInvite(c *gin.Context) {
	token := c.Param("token")

	admin, err := h.invites.ValidateInvite(c.Request.Context(), token)
	if err != nil {
		RespondWithMappedError(c, err, inviteErrorCases, http.StatusInternalServerError, "failed to validate invite link")
		return
	}

	respond(c, http.StatusOK, "invite link is valid", newAdminSummary(admin))
}

func (h *InviteHandler) acceptInvite(c *gin.Context) {
	token := c.Param("token")

	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, http.StatusBadRequest, "password and confirm password are required"))
		return
	}

	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, http.StatusBadRequest, "password and confirm password must match"))
		return
	}

	admin, err := h.invites.AcceptInvite(c.Request.Context(), token, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, inviteErrorCases, http.StatusInternalServerError, "failed to accept invite")
		return
	}

	respond(c, http.StatusOK, "invite accepted", newAdminSummary(admin))
}
