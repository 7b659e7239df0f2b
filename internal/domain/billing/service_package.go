package billing

import (
	"strings"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ServicePackage is a sellable internet plan: a price per validity period.
type ServicePackage struct {
	shared.TenantAggregateRoot
	Name         string
	Price        decimal.Decimal
	ValidityDays int
	IsActive     bool
}

// NewServicePackage creates a service package
func NewServicePackage(tenantID uuid.UUID, name string, price decimal.Decimal, validityDays int) (*ServicePackage, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Package name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Package price cannot be negative")
	}
	if validityDays <= 0 {
		return nil, shared.NewDomainError("INVALID_VALIDITY", "Validity days must be positive")
	}

	return &ServicePackage{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                strings.TrimSpace(name),
		Price:               price,
		ValidityDays:        validityDays,
		IsActive:            true,
	}, nil
}
