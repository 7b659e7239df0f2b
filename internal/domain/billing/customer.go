package billing

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CustomerStatus represents the service status of a subscriber
type CustomerStatus string

const (
	CustomerStatusActive    CustomerStatus = "active"
	CustomerStatusExpired   CustomerStatus = "expired"
	CustomerStatusSuspended CustomerStatus = "suspended"
	CustomerStatusPending   CustomerStatus = "pending"
	CustomerStatusCancelled CustomerStatus = "cancelled"
)

// IsValid returns true if the status is known
func (s CustomerStatus) IsValid() bool {
	switch s {
	case CustomerStatusActive, CustomerStatusExpired, CustomerStatusSuspended,
		CustomerStatusPending, CustomerStatusCancelled:
		return true
	}
	return false
}

// Customer is a subscriber whose service expiry is extended by recharges.
// ResellerID is nil for walk-in customers owned directly by the ISP.
// A customer never mutates its reseller's balance; only the wallet ledger does.
type Customer struct {
	shared.TenantAggregateRoot
	Name            string
	Phone           string
	ResellerID      *uuid.UUID
	PackageID       uuid.UUID
	ExpiryDate      *time.Time
	MonthlyBill     decimal.Decimal
	DueAmount       decimal.Decimal
	Status          CustomerStatus
	LastPaymentDate *time.Time
}

// NewCustomer creates a subscriber on the given service package
func NewCustomer(tenantID uuid.UUID, name string, packageID uuid.UUID, resellerID *uuid.UUID, monthlyBill decimal.Decimal) (*Customer, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}
	if packageID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PACKAGE", "Package ID cannot be empty")
	}
	if monthlyBill.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Monthly bill cannot be negative")
	}

	return &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                strings.TrimSpace(name),
		ResellerID:          resellerID,
		PackageID:           packageID,
		MonthlyBill:         monthlyBill,
		DueAmount:           decimal.Zero,
		Status:              CustomerStatusPending,
	}, nil
}

// ExtendExpiry computes the post-recharge expiry. A subscription that is
// still running extends from its current expiry; an expired or never-started
// one starts from now. An early recharge can therefore never shorten service.
func ExtendExpiry(current *time.Time, now time.Time, validityDays, months int) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return base.AddDate(0, 0, validityDays*months)
}

// ApplyRecharge moves the customer to the post-recharge state
func (c *Customer) ApplyRecharge(newExpiry, paidAt time.Time) {
	c.ExpiryDate = &newExpiry
	c.DueAmount = decimal.Zero
	c.Status = CustomerStatusActive
	c.LastPaymentDate = &paidAt
	c.UpdatedAt = paidAt
	c.IncrementVersion()
}

// Suspend marks the customer suspended
func (c *Customer) Suspend() error {
	if c.Status == CustomerStatusCancelled {
		return shared.ErrInvalidState
	}
	c.Status = CustomerStatusSuspended
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// IsOwnedBy reports whether the customer belongs to the given reseller
func (c *Customer) IsOwnedBy(resellerID uuid.UUID) bool {
	return c.ResellerID != nil && *c.ResellerID == resellerID
}
