package handler

import (
	"github.com/gin-gonic/gin"
	resellerapp "github.com/ispbill/backend/internal/application/reseller"
	"github.com/ispbill/backend/internal/interfaces/http/middleware"
)

// TransferHandler handles balance transfer endpoints
type TransferHandler struct {
	BaseHandler
	transferService *resellerapp.TransferService
}

// NewTransferHandler creates a new TransferHandler
func NewTransferHandler(transferService *resellerapp.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

// Transfer moves balance from one reseller wallet to another
func (h *TransferHandler) Transfer(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req resellerapp.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.OperatorID == nil {
		req.OperatorID = getActorID(c)
	}

	result, err := h.transferService.TransferBalance(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}
