package reseller

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Role represents the position of a reseller in the hierarchy
type Role string

const (
	RoleReseller    Role = "reseller"
	RoleSubReseller Role = "sub_reseller"
	RoleSubSub      Role = "sub_sub_reseller"
)

// MaxLevel is the deepest level a reseller hierarchy can reach
const MaxLevel = 3

// RoleForLevel derives the role from the hierarchy level.
// The role is never stored independently of the level.
func RoleForLevel(level int) (Role, error) {
	switch level {
	case 1:
		return RoleReseller, nil
	case 2:
		return RoleSubReseller, nil
	case 3:
		return RoleSubSub, nil
	}
	return "", shared.NewDomainError("INVALID_LEVEL", "Reseller level must be between 1 and 3")
}

// CommissionType determines how the commission is computed
type CommissionType string

const (
	CommissionTypePercentage CommissionType = "percentage"
	CommissionTypeFlat       CommissionType = "flat"
)

// IsValid returns true if the commission type is known
func (t CommissionType) IsValid() bool {
	return t == CommissionTypePercentage || t == CommissionTypeFlat
}

// RateType determines whether the commission is a discount off the amount
// the reseller owes, or tracked on top of the full package price.
type RateType string

const (
	RateTypeDiscount RateType = "discount"
	RateTypeStandard RateType = "standard"
)

// IsValid returns true if the rate type is known
func (t RateType) IsValid() bool {
	return t == RateTypeDiscount || t == RateTypeStandard
}

// CommissionPolicy is the live commission configuration of a reseller
type CommissionPolicy struct {
	CommissionType  CommissionType
	CommissionValue decimal.Decimal
	RateType        RateType
	// CustomerRate is a legacy flat per-month price override, honoured only
	// when CommissionValue is zero.
	CustomerRate decimal.Decimal
}

// Validate checks a commission policy for internal consistency
func (p CommissionPolicy) Validate() error {
	if !p.CommissionType.IsValid() {
		return shared.NewDomainError("INVALID_COMMISSION_TYPE", "Commission type must be percentage or flat")
	}
	if !p.RateType.IsValid() {
		return shared.NewDomainError("INVALID_RATE_TYPE", "Rate type must be discount or standard")
	}
	if p.CommissionValue.IsNegative() {
		return shared.NewDomainError("INVALID_COMMISSION_VALUE", "Commission value cannot be negative")
	}
	if p.CommissionType == CommissionTypePercentage && p.CommissionValue.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_COMMISSION_VALUE", "Percentage commission cannot exceed 100")
	}
	if p.CustomerRate.IsNegative() {
		return shared.NewDomainError("INVALID_CUSTOMER_RATE", "Customer rate cannot be negative")
	}
	return nil
}

// Capabilities are the per-reseller permission flags
type Capabilities struct {
	CanCreateSubReseller bool
	CanAddCustomers      bool
	CanEditCustomers     bool
	CanDeleteCustomers   bool
	CanRechargeCustomers bool
	CanViewSubCustomers  bool
}

// DefaultCapabilities returns the flags a newly created reseller starts with
func DefaultCapabilities() Capabilities {
	return Capabilities{
		CanAddCustomers:      true,
		CanEditCustomers:     true,
		CanRechargeCustomers: true,
	}
}

// Limits caps how many children and customers a reseller may have.
// A nil value means unlimited.
type Limits struct {
	MaxSubResellers *int
	MaxCustomers    *int
}

// Reseller is a tenant-scoped actor holding a prepaid wallet balance.
// It is the aggregate root of the hierarchy: a reseller may fund and manage
// sub-resellers up to MaxLevel levels deep.
type Reseller struct {
	shared.TenantAggregateRoot
	Name  string
	Phone string
	Email string
	// PasswordHash is the bcrypt hash backing reseller logins. Empty means
	// the account cannot log in directly.
	PasswordHash     string
	ParentID         *uuid.UUID
	Level            int
	Role             Role
	Balance          decimal.Decimal
	TotalCollections decimal.Decimal
	Policy           CommissionPolicy
	Capabilities     Capabilities
	Limits           Limits
	IsActive         bool
}

// NewReseller creates a top-level reseller (no parent, level 1).
func NewReseller(tenantID uuid.UUID, name string, policy CommissionPolicy) (*Reseller, error) {
	return newReseller(tenantID, name, nil, 1, policy)
}

// NewSubReseller creates a reseller one level below the given parent.
// The parent must be active and belong to the same tenant; limit checks are
// enforced by the application service inside the creating transaction.
func NewSubReseller(tenantID uuid.UUID, name string, parent *Reseller, policy CommissionPolicy) (*Reseller, error) {
	if parent == nil {
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent reseller is required")
	}
	if !parent.IsActive {
		return nil, shared.NewDomainError("INVALID_PARENT", "Parent reseller is not active")
	}
	if parent.TenantID != tenantID {
		return nil, shared.NewDomainError("CROSS_TENANT", "Parent reseller belongs to a different tenant")
	}
	parentID := parent.ID
	return newReseller(tenantID, name, &parentID, parent.Level+1, policy)
}

func newReseller(tenantID uuid.UUID, name string, parentID *uuid.UUID, level int, policy CommissionPolicy) (*Reseller, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	role, err := RoleForLevel(level)
	if err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	return &Reseller{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                strings.TrimSpace(name),
		ParentID:            parentID,
		Level:               level,
		Role:                role,
		Balance:             decimal.Zero,
		TotalCollections:    decimal.Zero,
		Policy:              policy,
		Capabilities:        DefaultCapabilities(),
		IsActive:            true,
	}, nil
}

// UpdateProfile updates the reseller's contact details
func (r *Reseller) UpdateProfile(name, phone, email string) error {
	if err := validateName(name); err != nil {
		return err
	}
	r.Name = strings.TrimSpace(name)
	r.Phone = phone
	r.Email = email
	r.touch()
	return nil
}

// UpdatePolicy replaces the reseller's commission policy
func (r *Reseller) UpdatePolicy(policy CommissionPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}
	r.Policy = policy
	r.touch()
	return nil
}

// UpdateCapabilities replaces the permission flags
func (r *Reseller) UpdateCapabilities(caps Capabilities) {
	r.Capabilities = caps
	r.touch()
}

// UpdateLimits replaces the sub-reseller/customer caps
func (r *Reseller) UpdateLimits(limits Limits) error {
	if limits.MaxSubResellers != nil && *limits.MaxSubResellers < 0 {
		return shared.NewDomainError("INVALID_LIMIT", "Max sub-resellers cannot be negative")
	}
	if limits.MaxCustomers != nil && *limits.MaxCustomers < 0 {
		return shared.NewDomainError("INVALID_LIMIT", "Max customers cannot be negative")
	}
	r.Limits = limits
	r.touch()
	return nil
}

// Deactivate soft-deletes the reseller. Physical deletion is never allowed
// because ledger history must stay attributable.
func (r *Reseller) Deactivate() error {
	if !r.IsActive {
		return shared.ErrInvalidState
	}
	r.IsActive = false
	r.touch()
	return nil
}

// CanTakeSubReseller reports whether another active child fits under the
// configured cap. activeChildren is the current count of active direct
// children, read inside the same transaction as the insert.
func (r *Reseller) CanTakeSubReseller(activeChildren int64) bool {
	if r.Limits.MaxSubResellers == nil {
		return true
	}
	return activeChildren < int64(*r.Limits.MaxSubResellers)
}

// CanTakeCustomer reports whether another customer fits under the cap
func (r *Reseller) CanTakeCustomer(activeCustomers int64) bool {
	if r.Limits.MaxCustomers == nil {
		return true
	}
	return activeCustomers < int64(*r.Limits.MaxCustomers)
}

// RecordCollection adds to the cumulative informational collections counter
func (r *Reseller) RecordCollection(amount decimal.Decimal) {
	r.TotalCollections = r.TotalCollections.Add(amount)
	r.touch()
}

func (r *Reseller) touch() {
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}

func validateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return shared.NewDomainError("INVALID_NAME", "Reseller name cannot be empty")
	}
	if len(trimmed) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Reseller name cannot exceed 200 characters")
	}
	return nil
}
