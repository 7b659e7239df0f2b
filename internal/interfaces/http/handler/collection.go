package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	billingapp "github.com/ispbill/backend/internal/application/billing"
	"github.com/ispbill/backend/internal/interfaces/http/middleware"
)

// CollectionHandler handles batch collection endpoints
type CollectionHandler struct {
	BaseHandler
	collectionService *billingapp.CollectionService
}

// NewCollectionHandler creates a new CollectionHandler
func NewCollectionHandler(collectionService *billingapp.CollectionService) *CollectionHandler {
	return &CollectionHandler{collectionService: collectionService}
}

// Create runs a batch of customer recharges as one collection
func (h *CollectionHandler) Create(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req billingapp.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.OperatorID == nil {
		req.OperatorID = getActorID(c)
	}

	result, err := h.collectionService.CreateMultiCollection(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetByID returns a stored collection header
func (h *CollectionHandler) GetByID(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	id, err := parseIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid collection ID format")
		return
	}

	result, err := h.collectionService.GetCollection(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List returns collection headers newest first, paginated
func (h *CollectionHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.collectionService.ListCollections(c.Request.Context(), tenantID, page, pageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
