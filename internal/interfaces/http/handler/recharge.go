package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/ispbill/backend/internal/application/billing"
	"github.com/ispbill/backend/internal/interfaces/http/middleware"
)

// RechargeHandler handles customer recharge settlement endpoints
type RechargeHandler struct {
	BaseHandler
	rechargeService *billingapp.RechargeService
}

// NewRechargeHandler creates a new RechargeHandler
func NewRechargeHandler(rechargeService *billingapp.RechargeService) *RechargeHandler {
	return &RechargeHandler{rechargeService: rechargeService}
}

// Recharge settles one customer recharge, crediting commission to the
// customer's reseller when one exists
func (h *RechargeHandler) Recharge(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req billingapp.RechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.OperatorID == nil {
		req.OperatorID = getActorID(c)
	}

	result, err := h.rechargeService.RechargeCustomer(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// PayCustomer settles a recharge initiated by the authenticated reseller
// on behalf of one of its customers
func (h *RechargeHandler) PayCustomer(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	actorID := getActorID(c)
	if actorID == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req billingapp.PayCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.rechargeService.PayCustomer(c.Request.Context(), tenantID, *actorID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}
