package reseller

import (
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionType represents what kind of balance movement a ledger row records
type TransactionType string

const (
	// TransactionTypeRecharge represents a reseller wallet top-up
	TransactionTypeRecharge TransactionType = "recharge"
	// TransactionTypeDeduction represents a generic debit
	TransactionTypeDeduction TransactionType = "deduction"
	// TransactionTypeCommission represents a commission credit
	TransactionTypeCommission TransactionType = "commission"
	// TransactionTypeRefund represents a credit reversing an earlier debit
	TransactionTypeRefund TransactionType = "refund"
	// TransactionTypeTransferIn represents balance received from another reseller
	TransactionTypeTransferIn TransactionType = "transfer_in"
	// TransactionTypeTransferOut represents balance sent to another reseller
	TransactionTypeTransferOut TransactionType = "transfer_out"
	// TransactionTypeCustomerRecharge represents the debit funding a customer recharge
	TransactionTypeCustomerRecharge TransactionType = "customer_recharge"
	// TransactionTypeDeposit represents the platform funding a reseller
	TransactionTypeDeposit TransactionType = "deposit"
	// TransactionTypeWithdrawal represents the platform clawing balance back
	TransactionTypeWithdrawal TransactionType = "withdrawal"
)

// String returns the string representation of the transaction type
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is known
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeRecharge,
		TransactionTypeDeduction,
		TransactionTypeCommission,
		TransactionTypeRefund,
		TransactionTypeTransferIn,
		TransactionTypeTransferOut,
		TransactionTypeCustomerRecharge,
		TransactionTypeDeposit,
		TransactionTypeWithdrawal:
		return true
	}
	return false
}

// WalletTransaction is an immutable row in a reseller's balance ledger.
// Once written it is never updated or deleted; corrections are new rows.
// Amount is signed: credits are positive, debits negative.
type WalletTransaction struct {
	shared.BaseEntity
	TenantID       uuid.UUID
	ResellerID     uuid.UUID
	Type           TransactionType
	Amount         decimal.Decimal
	BalanceBefore  decimal.Decimal
	BalanceAfter   decimal.Decimal
	CustomerID     *uuid.UUID
	FromResellerID *uuid.UUID
	ToResellerID   *uuid.UUID
	ReferenceType  string
	ReferenceID    *string
	IdempotencyKey *string
	Description    string
	OperatorID     *uuid.UUID
}

// NewWalletTransaction creates a ledger row for the given balance movement.
// balanceAfter is derived, never passed in, so the row cannot be constructed
// in violation of the ledger invariant.
func NewWalletTransaction(
	tenantID, resellerID uuid.UUID,
	txType TransactionType,
	amount, balanceBefore decimal.Decimal,
) (*WalletTransaction, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if resellerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_RESELLER", "Reseller ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid wallet transaction type")
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be zero")
	}

	return &WalletTransaction{
		BaseEntity:    shared.NewBaseEntity(),
		TenantID:      tenantID,
		ResellerID:    resellerID,
		Type:          txType,
		Amount:        amount,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceBefore.Add(amount),
	}, nil
}

// WithCustomer links the row to the customer whose recharge caused it
func (t *WalletTransaction) WithCustomer(customerID uuid.UUID) *WalletTransaction {
	t.CustomerID = &customerID
	return t
}

// WithCounterparty links a transfer row to the other account involved
func (t *WalletTransaction) WithCounterparty(fromID, toID uuid.UUID) *WalletTransaction {
	t.FromResellerID = &fromID
	t.ToResellerID = &toID
	return t
}

// WithReference links the row to a source document
func (t *WalletTransaction) WithReference(referenceType, referenceID string) *WalletTransaction {
	t.ReferenceType = referenceType
	t.ReferenceID = &referenceID
	return t
}

// WithIdempotencyKey tags the row with the caller-supplied request key
func (t *WalletTransaction) WithIdempotencyKey(key string) *WalletTransaction {
	t.IdempotencyKey = &key
	return t
}

// WithDescription sets the human-readable description
func (t *WalletTransaction) WithDescription(description string) *WalletTransaction {
	t.Description = description
	return t
}

// WithOperator records the staff member or reseller who triggered the movement
func (t *WalletTransaction) WithOperator(operatorID uuid.UUID) *WalletTransaction {
	t.OperatorID = &operatorID
	return t
}

// IsCredit returns true if the row increased the balance
func (t *WalletTransaction) IsCredit() bool {
	return t.Amount.IsPositive()
}

// IsDebit returns true if the row decreased the balance
func (t *WalletTransaction) IsDebit() bool {
	return t.Amount.IsNegative()
}

// Consistent verifies the per-row ledger invariant
func (t *WalletTransaction) Consistent() bool {
	return t.BalanceAfter.Equal(t.BalanceBefore.Add(t.Amount))
}

// TransactionFilter narrows a ledger history query
type TransactionFilter struct {
	Type     *TransactionType
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
