package reseller

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionRepository provides append-only access to the wallet ledger.
// There are intentionally no update or delete operations.
type TransactionRepository interface {
	Create(ctx context.Context, tx *WalletTransaction) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*WalletTransaction, error)
	// FindByResellerID returns ledger rows newest-first
	FindByResellerID(ctx context.Context, tenantID, resellerID uuid.UUID, filter TransactionFilter) ([]*WalletTransaction, int64, error)
	// FindByIdempotencyKey looks up an already-applied request
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*WalletTransaction, error)
	// GetLatestByResellerID returns the most recent row for consistency checks
	GetLatestByResellerID(ctx context.Context, tenantID, resellerID uuid.UUID) (*WalletTransaction, error)
	// SumByResellerIDAndType totals signed amounts of one transaction type
	SumByResellerIDAndType(ctx context.Context, tenantID, resellerID uuid.UUID, txType TransactionType) (decimal.Decimal, error)
}
