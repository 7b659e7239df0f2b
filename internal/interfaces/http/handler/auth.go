package handler

import (
	"github.com/gin-gonic/gin"
	resellerapp "github.com/ispbill/backend/internal/application/reseller"
	"github.com/ispbill/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	BaseHandler
	authService *resellerapp.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *resellerapp.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login authenticates a staff account and returns an access token
func (h *AuthHandler) Login(c *gin.Context) {
	var req resellerapp.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// SetPasswordRequest carries a new password for an account
type SetPasswordRequest struct {
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// SetPassword stores a new password hash for a reseller account
func (h *AuthHandler) SetPassword(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	resellerID, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reseller ID format")
		return
	}

	var req SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	if err := h.authService.SetPassword(c.Request.Context(), tenantID, resellerID, req.Password); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Me returns the claims of the authenticated caller
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	h.Success(c, gin.H{
		"reseller_id": claims.ResellerID,
		"tenant_id":   claims.TenantID,
		"name":        claims.Name,
		"role":        claims.Role,
	})
}
