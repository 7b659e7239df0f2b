package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Collection is the header of a batch of customer recharges taken as one
// user-facing action. The batch is best-effort: items succeed or fail
// independently and the header only aggregates the outcome.
type Collection struct {
	shared.TenantAggregateRoot
	PaymentMethod  string
	Notes          string
	TotalAmount    decimal.Decimal
	ItemCount      int
	SucceededCount int
	FailedCount    int
	CompletedAt    *time.Time
}

// NewCollection creates a batch collection header
func NewCollection(tenantID uuid.UUID, paymentMethod, notes string, itemCount int) (*Collection, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if paymentMethod == "" {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", "Payment method is required")
	}
	if itemCount <= 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", "Collection requires at least one item")
	}

	return &Collection{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentMethod:       paymentMethod,
		Notes:               notes,
		TotalAmount:         decimal.Zero,
		ItemCount:           itemCount,
	}, nil
}

// RecordItemSuccess aggregates one settled item into the header
func (c *Collection) RecordItemSuccess(amount decimal.Decimal) {
	c.SucceededCount++
	c.TotalAmount = c.TotalAmount.Add(amount)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// RecordItemFailure aggregates one failed item into the header
func (c *Collection) RecordItemFailure() {
	c.FailedCount++
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// Complete marks the batch as finished
func (c *Collection) Complete() {
	now := time.Now()
	c.CompletedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()
}
