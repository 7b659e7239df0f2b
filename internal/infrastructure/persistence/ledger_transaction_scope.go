package persistence

import (
	"context"
	"errors"

	appreseller "github.com/ispbill/backend/internal/application/reseller"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// GormTransactionScope implements the ledger TransactionScope using GORM
// transactions. Every balance mutation runs through it so the ledger row
// and the stored balance commit or roll back together.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appreseller.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
	return translateSerializationError(err)
}

// Postgres SQLSTATE codes for a failed serializable interleaving and for
// the victim of a lock cycle. Both transactions are safe to rerun.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// translateSerializationError maps retryable Postgres aborts onto the
// conflict error the ledger retry loop acts on.
func translateSerializationError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return shared.ErrConcurrencyConflict
		}
	}
	return err
}

// gormTransactionalRepositories provides repositories scoped to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// ResellerRepo returns the reseller repository scoped to the current transaction
func (r *gormTransactionalRepositories) ResellerRepo() reseller.Repository {
	return NewGormResellerRepository(r.tx)
}

// TransactionRepo returns the ledger repository scoped to the current transaction
func (r *gormTransactionalRepositories) TransactionRepo() reseller.TransactionRepository {
	return NewGormWalletTransactionRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appreseller.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appreseller.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
