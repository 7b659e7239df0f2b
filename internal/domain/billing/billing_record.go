package billing

import (
	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BillingRecordType separates the two customer-facing business records a
// recharge produces: the service recharge itself and the payment that
// covered it. Neither touches the reseller ledger.
type BillingRecordType string

const (
	BillingRecordTypeRecharge BillingRecordType = "recharge"
	BillingRecordTypePayment  BillingRecordType = "payment"
)

// IsValid returns true if the record type is known
func (t BillingRecordType) IsValid() bool {
	return t == BillingRecordTypeRecharge || t == BillingRecordTypePayment
}

// BillingRecord is an immutable customer billing history row
type BillingRecord struct {
	shared.BaseEntity
	TenantID        uuid.UUID
	CustomerID      uuid.UUID
	Type            BillingRecordType
	Amount          decimal.Decimal
	Months          int
	PaymentMethod   string
	Discount        decimal.Decimal
	Notes           string
	CollectedByType string
	CollectedByName string
	CollectionID    *uuid.UUID
}

// NewBillingRecord creates a customer billing history row
func NewBillingRecord(tenantID, customerID uuid.UUID, recordType BillingRecordType, amount decimal.Decimal) (*BillingRecord, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if !recordType.IsValid() {
		return nil, shared.NewDomainError("INVALID_RECORD_TYPE", "Invalid billing record type")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be negative")
	}

	return &BillingRecord{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		CustomerID: customerID,
		Type:       recordType,
		Amount:     amount,
		Discount:   decimal.Zero,
	}, nil
}

// WithPayment attaches payment details to the record
func (r *BillingRecord) WithPayment(method, notes string) *BillingRecord {
	r.PaymentMethod = method
	r.Notes = notes
	return r
}

// WithMonths records how many periods the recharge covered
func (r *BillingRecord) WithMonths(months int) *BillingRecord {
	r.Months = months
	return r
}

// WithDiscount records a discount applied to the customer's price
func (r *BillingRecord) WithDiscount(discount decimal.Decimal) *BillingRecord {
	r.Discount = discount
	return r
}

// WithCollector records who took the money
func (r *BillingRecord) WithCollector(collectorType, collectorName string) *BillingRecord {
	r.CollectedByType = collectorType
	r.CollectedByName = collectorName
	return r
}

// WithCollection links the record to a batch collection header
func (r *BillingRecord) WithCollection(collectionID uuid.UUID) *BillingRecord {
	r.CollectionID = &collectionID
	return r
}
