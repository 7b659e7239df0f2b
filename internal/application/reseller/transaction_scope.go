package reseller

import (
	"context"

	"github.com/ispbill/backend/internal/domain/reseller"
)

// TransactionScope provides transactional access to the wallet repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the wallet repositories within
// a transaction. All repositories returned share the same underlying database
// transaction.
//
// Aggregate boundary notes:
//   - ResellerRepo: repository for the Reseller aggregate root. Balance
//     writes go through UpdateBalance and only the ledger calls it.
//   - TransactionRepo: append-only repository for wallet ledger rows. Rows
//     are only ever inserted alongside the balance update that they record.
type TransactionalRepositories interface {
	// ResellerRepo returns the reseller repository scoped to the current transaction
	ResellerRepo() reseller.Repository
	// TransactionRepo returns the wallet transaction repository scoped to the current transaction
	TransactionRepo() reseller.TransactionRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is
// not required.
type NoOpTransactionScope struct {
	resellerRepo    reseller.Repository
	transactionRepo reseller.TransactionRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	resellerRepo reseller.Repository,
	transactionRepo reseller.TransactionRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		resellerRepo:    resellerRepo,
		transactionRepo: transactionRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// ResellerRepo returns the reseller repository.
func (s *NoOpTransactionScope) ResellerRepo() reseller.Repository {
	return s.resellerRepo
}

// TransactionRepo returns the wallet transaction repository.
func (s *NoOpTransactionScope) TransactionRepo() reseller.TransactionRepository {
	return s.transactionRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
