package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/shopspring/decimal"
)

// RechargeRequest represents a request to recharge a customer's service
type RechargeRequest struct {
	CustomerID      uuid.UUID       `json:"customer_id" binding:"required"`
	Amount          decimal.Decimal `json:"amount" binding:"required"`
	Months          int             `json:"months" binding:"required,min=1,max=36"`
	PaymentMethod   string          `json:"payment_method" binding:"required,max=50"`
	Discount        decimal.Decimal `json:"discount"`
	Notes           string          `json:"notes" binding:"omitempty,max=500"`
	CollectedByType string          `json:"collected_by_type" binding:"omitempty,max=50"`
	CollectedByName string          `json:"collected_by_name" binding:"omitempty,max=200"`
	IdempotencyKey  string          `json:"idempotency_key" binding:"omitempty,max=100"`
	OperatorID      *uuid.UUID      `json:"operator_id"`
}

// PayCustomerRequest is the reseller-initiated variant of a recharge
type PayCustomerRequest struct {
	CustomerID     uuid.UUID       `json:"customer_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Months         int             `json:"months" binding:"required,min=1,max=36"`
	PaymentMethod  string          `json:"payment_method" binding:"omitempty,max=50"`
	Notes          string          `json:"notes" binding:"omitempty,max=500"`
	IdempotencyKey string          `json:"idempotency_key" binding:"omitempty,max=100"`
}

// RechargeResult reports the outcome of one customer recharge settlement.
// ResellerCharged is false when the customer has no reseller or when the
// reseller's balance could not cover the deduct; the customer-facing
// recharge succeeds either way.
type RechargeResult struct {
	CustomerID      uuid.UUID       `json:"customer_id"`
	NewExpiryDate   time.Time       `json:"new_expiry_date"`
	AmountPaid      decimal.Decimal `json:"amount_paid"`
	Months          int             `json:"months"`
	ResellerID      *uuid.UUID      `json:"reseller_id,omitempty"`
	Commission      decimal.Decimal `json:"commission"`
	DeductAmount    decimal.Decimal `json:"deduct_amount"`
	ResellerCharged bool            `json:"reseller_charged"`
	SkipReason      string          `json:"skip_reason,omitempty"`
}

// CollectionItemRequest is one customer recharge inside a batch collection
type CollectionItemRequest struct {
	CustomerID uuid.UUID       `json:"customer_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Months     int             `json:"months" binding:"required,min=1,max=36"`
	Discount   decimal.Decimal `json:"discount"`
	Notes      string          `json:"notes" binding:"omitempty,max=500"`
}

// CreateCollectionRequest represents a batch of customer recharges taken as
// one user-facing action
type CreateCollectionRequest struct {
	Items           []CollectionItemRequest `json:"items" binding:"required,min=1,max=500,dive"`
	PaymentMethod   string                  `json:"payment_method" binding:"required,max=50"`
	Notes           string                  `json:"notes" binding:"omitempty,max=500"`
	CollectedByType string                  `json:"collected_by_type" binding:"omitempty,max=50"`
	CollectedByName string                  `json:"collected_by_name" binding:"omitempty,max=200"`
	OperatorID      *uuid.UUID              `json:"operator_id"`
}

// CollectionItemResult reports the outcome of one item in a batch
type CollectionItemResult struct {
	CustomerID uuid.UUID       `json:"customer_id"`
	Success    bool            `json:"success"`
	Amount     decimal.Decimal `json:"amount"`
	NewExpiry  *time.Time      `json:"new_expiry,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// CollectionResult reports the aggregated outcome of a batch collection
type CollectionResult struct {
	CollectionID   uuid.UUID              `json:"collection_id"`
	TotalAmount    decimal.Decimal        `json:"total_amount"`
	ItemCount      int                    `json:"item_count"`
	SucceededCount int                    `json:"succeeded_count"`
	FailedCount    int                    `json:"failed_count"`
	Items          []CollectionItemResult `json:"items"`
}

// CollectionResponse represents a stored collection header
type CollectionResponse struct {
	ID             uuid.UUID       `json:"id"`
	PaymentMethod  string          `json:"payment_method"`
	Notes          string          `json:"notes"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	ItemCount      int             `json:"item_count"`
	SucceededCount int             `json:"succeeded_count"`
	FailedCount    int             `json:"failed_count"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToCollectionResponse maps a collection header to its API representation
func ToCollectionResponse(c *billing.Collection) CollectionResponse {
	return CollectionResponse{
		ID:             c.ID,
		PaymentMethod:  c.PaymentMethod,
		Notes:          c.Notes,
		TotalAmount:    c.TotalAmount,
		ItemCount:      c.ItemCount,
		SucceededCount: c.SucceededCount,
		FailedCount:    c.FailedCount,
		CompletedAt:    c.CompletedAt,
		CreatedAt:      c.CreatedAt,
	}
}

// CreateCustomerRequest represents a request to create a subscriber
type CreateCustomerRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Phone       string          `json:"phone" binding:"omitempty,max=20"`
	PackageID   uuid.UUID       `json:"package_id" binding:"required"`
	ResellerID  *uuid.UUID      `json:"reseller_id"`
	MonthlyBill decimal.Decimal `json:"monthly_bill"`
}

// CustomerResponse represents a subscriber in API responses
type CustomerResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Phone           string          `json:"phone"`
	ResellerID      *uuid.UUID      `json:"reseller_id,omitempty"`
	PackageID       uuid.UUID       `json:"package_id"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	MonthlyBill     decimal.Decimal `json:"monthly_bill"`
	DueAmount       decimal.Decimal `json:"due_amount"`
	Status          string          `json:"status"`
	LastPaymentDate *time.Time      `json:"last_payment_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ToCustomerResponse maps a customer to its API representation
func ToCustomerResponse(c *billing.Customer) CustomerResponse {
	return CustomerResponse{
		ID:              c.ID,
		Name:            c.Name,
		Phone:           c.Phone,
		ResellerID:      c.ResellerID,
		PackageID:       c.PackageID,
		ExpiryDate:      c.ExpiryDate,
		MonthlyBill:     c.MonthlyBill,
		DueAmount:       c.DueAmount,
		Status:          string(c.Status),
		LastPaymentDate: c.LastPaymentDate,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

// CustomerListFilter represents filter options for listing customers
type CustomerListFilter struct {
	Search     string     `form:"search"`
	ResellerID *uuid.UUID `form:"reseller_id"`
	Status     string     `form:"status" binding:"omitempty,oneof=active expired suspended pending cancelled"`
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CreatePackageRequest represents a request to create a service package
type CreatePackageRequest struct {
	Name         string          `json:"name" binding:"required,min=1,max=200"`
	Price        decimal.Decimal `json:"price" binding:"required"`
	ValidityDays int             `json:"validity_days" binding:"required,min=1,max=3660"`
}

// PackageResponse represents a service package in API responses
type PackageResponse struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	ValidityDays int             `json:"validity_days"`
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
}

// ToPackageResponse maps a service package to its API representation
func ToPackageResponse(p *billing.ServicePackage) PackageResponse {
	return PackageResponse{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		ValidityDays: p.ValidityDays,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
	}
}

// BillingRecordResponse represents a customer billing history row
type BillingRecordResponse struct {
	ID              uuid.UUID       `json:"id"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	Type            string          `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Months          int             `json:"months"`
	PaymentMethod   string          `json:"payment_method"`
	Discount        decimal.Decimal `json:"discount"`
	Notes           string          `json:"notes"`
	CollectedByType string          `json:"collected_by_type"`
	CollectedByName string          `json:"collected_by_name"`
	CollectionID    *uuid.UUID      `json:"collection_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ToBillingRecordResponse maps a billing record to its API representation
func ToBillingRecordResponse(r *billing.BillingRecord) BillingRecordResponse {
	return BillingRecordResponse{
		ID:              r.ID,
		CustomerID:      r.CustomerID,
		Type:            string(r.Type),
		Amount:          r.Amount,
		Months:          r.Months,
		PaymentMethod:   r.PaymentMethod,
		Discount:        r.Discount,
		Notes:           r.Notes,
		CollectedByType: r.CollectedByType,
		CollectedByName: r.CollectedByName,
		CollectionID:    r.CollectionID,
		CreatedAt:       r.CreatedAt,
	}
}
