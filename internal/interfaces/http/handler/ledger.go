package handler

import (
	"github.com/gin-gonic/gin"
	resellerapp "github.com/ispbill/backend/internal/application/reseller"
	"github.com/ispbill/backend/internal/interfaces/http/middleware"
)

// LedgerHandler handles wallet ledger endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService *resellerapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *resellerapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// Deposit credits a reseller wallet
func (h *LedgerHandler) Deposit(c *gin.Context) {
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

	var req resellerapp.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.OperatorID == nil {
		req.OperatorID = getActorID(c)
	}

	result, err := h.ledgerService.Deposit(c.Request.Context(), tenantID, resellerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Withdraw debits a reseller wallet
func (h *LedgerHandler) Withdraw(c *gin.Context) {
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

	var req resellerapp.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}
	if req.OperatorID == nil {
		req.OperatorID = getActorID(c)
	}

	result, err := h.ledgerService.Withdraw(c.Request.Context(), tenantID, resellerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Transactions returns a reseller's ledger history, paginated
func (h *LedgerHandler) Transactions(c *gin.Context) {
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

	var filter resellerapp.TransactionListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.ledgerService.GetTransactions(c.Request.Context(), tenantID, resellerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// BalanceSummary aggregates a reseller's ledger by transaction type
func (h *LedgerHandler) BalanceSummary(c *gin.Context) {
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

	result, err := h.ledgerService.GetBalanceSummary(c.Request.Context(), tenantID, resellerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Verify checks the stored balance against the latest ledger entry
func (h *LedgerHandler) Verify(c *gin.Context) {
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

	consistent, err := h.ledgerService.VerifyLedger(c.Request.Context(), tenantID, resellerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"reseller_id": resellerID, "consistent": consistent})
}
