package handler

import (
	"github.com/gin-gonic/gin"
	resellerapp "github.com/ispbill/backend/internal/application/reseller"
	"github.com/ispbill/backend/internal/interfaces/http/middleware"
)

// ResellerHandler handles reseller hierarchy endpoints
type ResellerHandler struct {
	BaseHandler
	hierarchyService *resellerapp.HierarchyService
}

// NewResellerHandler creates a new ResellerHandler
func NewResellerHandler(hierarchyService *resellerapp.HierarchyService) *ResellerHandler {
	return &ResellerHandler{hierarchyService: hierarchyService}
}

// Create registers a new reseller under an optional parent
func (h *ResellerHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req resellerapp.CreateResellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.hierarchyService.CreateReseller(c.Request.Context(), tenantID, req, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID returns a single reseller
func (h *ResellerHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reseller ID format")
		return
	}

	result, err := h.hierarchyService.GetReseller(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List returns resellers matching the filter, paginated
func (h *ResellerHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var filter resellerapp.ResellerListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.hierarchyService.ListResellers(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Update replaces a reseller's profile fields
func (h *ResellerHandler) Update(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reseller ID format")
		return
	}

	var req resellerapp.UpdateResellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.hierarchyService.UpdateReseller(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// UpdatePolicy replaces a reseller's commission policy
func (h *ResellerHandler) UpdatePolicy(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reseller ID format")
		return
	}

	var req resellerapp.UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.hierarchyService.UpdatePolicy(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// UpdateCapabilities replaces a reseller's permission flags
func (h *ResellerHandler) UpdateCapabilities(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reseller ID format")
		return
	}

	var req resellerapp.UpdateCapabilitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.hierarchyService.UpdateCapabilities(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// UpdateLimits replaces a reseller's sub-reseller and customer caps
func (h *ResellerHandler) UpdateLimits(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reseller ID format")
		return
	}

	var req resellerapp.UpdateLimitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.hierarchyService.UpdateLimits(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Deactivate disables a reseller account
func (h *ResellerHandler) Deactivate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reseller ID format")
		return
	}

	if err := h.hierarchyService.DeactivateReseller(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// SubResellers returns the direct active children of a reseller
func (h *ResellerHandler) SubResellers(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reseller ID format")
		return
	}

	result, err := h.hierarchyService.GetSubResellers(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Descendants returns every active reseller below the given root
func (h *ResellerHandler) Descendants(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid reseller ID format")
		return
	}

	result, err := h.hierarchyService.GetDescendants(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
