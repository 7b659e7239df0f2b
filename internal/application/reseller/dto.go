package reseller

import (
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/shopspring/decimal"
)

// CreateResellerRequest represents a request to create a reseller
type CreateResellerRequest struct {
	Name            string          `json:"name" binding:"required,min=1,max=200"`
	Phone           string          `json:"phone" binding:"omitempty,max=20"`
	Email           string          `json:"email" binding:"omitempty,email"`
	ParentID        *uuid.UUID      `json:"parent_id"`
	CommissionType  string          `json:"commission_type" binding:"required,oneof=percentage flat"`
	CommissionValue decimal.Decimal `json:"commission_value"`
	RateType        string          `json:"rate_type" binding:"omitempty,oneof=discount standard"`
	CustomerRate    decimal.Decimal `json:"customer_rate"`
	MaxSubResellers *int            `json:"max_sub_resellers"`
	MaxCustomers    *int            `json:"max_customers"`
}

// UpdateResellerRequest represents a request to update a reseller's profile
type UpdateResellerRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=200"`
	Phone string `json:"phone" binding:"omitempty,max=20"`
	Email string `json:"email" binding:"omitempty,email"`
}

// UpdatePolicyRequest represents a request to replace a commission policy
type UpdatePolicyRequest struct {
	CommissionType  string          `json:"commission_type" binding:"required,oneof=percentage flat"`
	CommissionValue decimal.Decimal `json:"commission_value"`
	RateType        string          `json:"rate_type" binding:"omitempty,oneof=discount standard"`
	CustomerRate    decimal.Decimal `json:"customer_rate"`
}

// UpdateCapabilitiesRequest represents a request to replace permission flags
type UpdateCapabilitiesRequest struct {
	CanCreateSubReseller bool `json:"can_create_sub_reseller"`
	CanAddCustomers      bool `json:"can_add_customers"`
	CanEditCustomers     bool `json:"can_edit_customers"`
	CanDeleteCustomers   bool `json:"can_delete_customers"`
	CanRechargeCustomers bool `json:"can_recharge_customers"`
	CanViewSubCustomers  bool `json:"can_view_sub_customers"`
}

// UpdateLimitsRequest represents a request to replace sub-reseller/customer caps
type UpdateLimitsRequest struct {
	MaxSubResellers *int `json:"max_sub_resellers" binding:"omitempty,min=0"`
	MaxCustomers    *int `json:"max_customers" binding:"omitempty,min=0"`
}

// ResellerListFilter represents filter options for listing resellers
type ResellerListFilter struct {
	Search   string     `form:"search"`
	ParentID *uuid.UUID `form:"parent_id"`
	Level    *int       `form:"level" binding:"omitempty,min=1,max=3"`
	IsActive *bool      `form:"is_active"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ResellerResponse represents a reseller in API responses
type ResellerResponse struct {
	ID               uuid.UUID       `json:"id"`
	TenantID         uuid.UUID       `json:"tenant_id"`
	Name             string          `json:"name"`
	Phone            string          `json:"phone"`
	Email            string          `json:"email"`
	ParentID         *uuid.UUID      `json:"parent_id,omitempty"`
	Level            int             `json:"level"`
	Role             string          `json:"role"`
	Balance          decimal.Decimal `json:"balance"`
	TotalCollections decimal.Decimal `json:"total_collections"`
	CommissionType   string          `json:"commission_type"`
	CommissionValue  decimal.Decimal `json:"commission_value"`
	RateType         string          `json:"rate_type"`
	CustomerRate     decimal.Decimal `json:"customer_rate"`
	Capabilities     Capabilities    `json:"capabilities"`
	MaxSubResellers  *int            `json:"max_sub_resellers,omitempty"`
	MaxCustomers     *int            `json:"max_customers,omitempty"`
	IsActive         bool            `json:"is_active"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Version          int             `json:"version"`
}

// Capabilities mirrors the per-reseller permission flags in responses
type Capabilities struct {
	CanCreateSubReseller bool `json:"can_create_sub_reseller"`
	CanAddCustomers      bool `json:"can_add_customers"`
	CanEditCustomers     bool `json:"can_edit_customers"`
	CanDeleteCustomers   bool `json:"can_delete_customers"`
	CanRechargeCustomers bool `json:"can_recharge_customers"`
	CanViewSubCustomers  bool `json:"can_view_sub_customers"`
}

// ToResellerResponse maps a domain reseller to its API representation
func ToResellerResponse(r *reseller.Reseller) ResellerResponse {
	return ResellerResponse{
		ID:               r.ID,
		TenantID:         r.TenantID,
		Name:             r.Name,
		Phone:            r.Phone,
		Email:            r.Email,
		ParentID:         r.ParentID,
		Level:            r.Level,
		Role:             string(r.Role),
		Balance:          r.Balance,
		TotalCollections: r.TotalCollections,
		CommissionType:   string(r.Policy.CommissionType),
		CommissionValue:  r.Policy.CommissionValue,
		RateType:         string(r.Policy.RateType),
		CustomerRate:     r.Policy.CustomerRate,
		Capabilities: Capabilities{
			CanCreateSubReseller: r.Capabilities.CanCreateSubReseller,
			CanAddCustomers:      r.Capabilities.CanAddCustomers,
			CanEditCustomers:     r.Capabilities.CanEditCustomers,
			CanDeleteCustomers:   r.Capabilities.CanDeleteCustomers,
			CanRechargeCustomers: r.Capabilities.CanRechargeCustomers,
			CanViewSubCustomers:  r.Capabilities.CanViewSubCustomers,
		},
		MaxSubResellers: r.Limits.MaxSubResellers,
		MaxCustomers:    r.Limits.MaxCustomers,
		IsActive:        r.IsActive,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Version:         r.Version,
	}
}

// TransactionResponse represents a wallet ledger row in API responses
type TransactionResponse struct {
	ID             uuid.UUID       `json:"id"`
	ResellerID     uuid.UUID       `json:"reseller_id"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	BalanceBefore  decimal.Decimal `json:"balance_before"`
	BalanceAfter   decimal.Decimal `json:"balance_after"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	FromResellerID *uuid.UUID      `json:"from_reseller_id,omitempty"`
	ToResellerID   *uuid.UUID      `json:"to_reseller_id,omitempty"`
	ReferenceType  string          `json:"reference_type,omitempty"`
	ReferenceID    *string         `json:"reference_id,omitempty"`
	Description    string          `json:"description"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToTransactionResponse maps a ledger row to its API representation
func ToTransactionResponse(t *reseller.WalletTransaction) TransactionResponse {
	return TransactionResponse{
		ID:             t.ID,
		ResellerID:     t.ResellerID,
		Type:           t.Type.String(),
		Amount:         t.Amount,
		BalanceBefore:  t.BalanceBefore,
		BalanceAfter:   t.BalanceAfter,
		CustomerID:     t.CustomerID,
		FromResellerID: t.FromResellerID,
		ToResellerID:   t.ToResellerID,
		ReferenceType:  t.ReferenceType,
		ReferenceID:    t.ReferenceID,
		Description:    t.Description,
		CreatedAt:      t.CreatedAt,
	}
}

// TransactionListFilter represents filter options for ledger history
type TransactionListFilter struct {
	Type     string     `form:"type"`
	DateFrom *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"date_to" time_format:"2006-01-02"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// DepositRequest represents a platform-initiated wallet credit
type DepositRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Description    string          `json:"description" binding:"omitempty,max=500"`
	IdempotencyKey string          `json:"idempotency_key" binding:"omitempty,max=100"`
	OperatorID     *uuid.UUID      `json:"operator_id"`
}

// WithdrawRequest represents a platform-initiated wallet debit
type WithdrawRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Description    string          `json:"description" binding:"omitempty,max=500"`
	IdempotencyKey string          `json:"idempotency_key" binding:"omitempty,max=100"`
	OperatorID     *uuid.UUID      `json:"operator_id"`
}

// TransferRequest represents a balance transfer between two resellers
type TransferRequest struct {
	FromResellerID uuid.UUID       `json:"from_reseller_id" binding:"required"`
	ToResellerID   uuid.UUID       `json:"to_reseller_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Description    string          `json:"description" binding:"omitempty,max=500"`
	IdempotencyKey string          `json:"idempotency_key" binding:"omitempty,max=100"`
	OperatorID     *uuid.UUID      `json:"operator_id"`
}

// TransferResponse reports the outcome of a completed transfer
type TransferResponse struct {
	FromResellerID uuid.UUID           `json:"from_reseller_id"`
	ToResellerID   uuid.UUID           `json:"to_reseller_id"`
	Amount         decimal.Decimal     `json:"amount"`
	FromBalance    decimal.Decimal     `json:"from_balance"`
	ToBalance      decimal.Decimal     `json:"to_balance"`
	OutEntry       TransactionResponse `json:"out_entry"`
	InEntry        TransactionResponse `json:"in_entry"`
}

// BalanceSummaryResponse aggregates a reseller's ledger by type
type BalanceSummaryResponse struct {
	ResellerID       uuid.UUID                  `json:"reseller_id"`
	Balance          decimal.Decimal            `json:"balance"`
	TotalCollections decimal.Decimal            `json:"total_collections"`
	TotalsByType     map[string]decimal.Decimal `json:"totals_by_type"`
}
