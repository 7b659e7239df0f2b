package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	billingapp "github.com/ispbill/backend/internal/application/billing"
	"github.com/ispbill/backend/internal/interfaces/http/middleware"
)

// PackageHandler handles service package endpoints
type PackageHandler struct {
	BaseHandler
	packageService *billingapp.PackageService
}

// NewPackageHandler creates a new PackageHandler
func NewPackageHandler(packageService *billingapp.PackageService) *PackageHandler {
	return &PackageHandler{packageService: packageService}
}

// Create registers a new service package
func (h *PackageHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req billingapp.CreatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.packageService.CreatePackage(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID returns a single service package
func (h *PackageHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid package ID format")
		return
	}

	result, err := h.packageService.GetPackage(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List returns service packages, paginated
func (h *PackageHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.packageService.ListPackages(c.Request.Context(), tenantID, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Deactivate disables a service package for new subscriptions
func (h *PackageHandler) Deactivate(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid package ID format")
		return
	}

	if err := h.packageService.DeactivatePackage(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
