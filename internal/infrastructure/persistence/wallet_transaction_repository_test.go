package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	appreseller "github.com/ispbill/backend/internal/application/reseller"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupLedgerTestDB creates an in-memory SQLite database with the ledger tables
func setupLedgerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.ResellerModel{}, &models.WalletTransactionModel{})
	require.NoError(t, err)

	return db
}

func mustCreateReseller(t *testing.T, db *gorm.DB, tenantID uuid.UUID, balance decimal.Decimal) *reseller.Reseller {
	t.Helper()

	r, err := reseller.NewReseller(tenantID, "Metro Networks", reseller.CommissionPolicy{
		CommissionType:  reseller.CommissionTypePercentage,
		CommissionValue: decimal.NewFromInt(10),
		RateType:        reseller.RateTypeDiscount,
	})
	require.NoError(t, err)
	r.Balance = balance

	require.NoError(t, NewGormResellerRepository(db).Save(context.Background(), r))
	return r
}

func TestGormWalletTransactionRepository_CreateAndFind(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormWalletTransactionRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	account := mustCreateReseller(t, db, tenantID, decimal.NewFromInt(100))

	row, err := reseller.NewWalletTransaction(
		tenantID, account.ID,
		reseller.TransactionTypeDeposit,
		decimal.NewFromInt(50), decimal.NewFromInt(100),
	)
	require.NoError(t, err)
	row.WithDescription("Platform deposit").WithIdempotencyKey("dep-001")

	require.NoError(t, repo.Create(ctx, row))

	t.Run("finds row by id", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tenantID, row.ID)
		require.NoError(t, err)
		assert.Equal(t, reseller.TransactionTypeDeposit, found.Type)
		assert.True(t, found.Amount.Equal(decimal.NewFromInt(50)))
		assert.True(t, found.BalanceAfter.Equal(decimal.NewFromInt(150)))
		assert.True(t, found.Consistent())
	})

	t.Run("finds row by idempotency key", func(t *testing.T) {
		found, err := repo.FindByIdempotencyKey(ctx, tenantID, "dep-001")
		require.NoError(t, err)
		assert.Equal(t, row.ID, found.ID)
	})

	t.Run("missing idempotency key returns not found", func(t *testing.T) {
		_, err := repo.FindByIdempotencyKey(ctx, tenantID, "dep-999")
		assert.Equal(t, shared.ErrNotFound, err)
	})

	t.Run("other tenant cannot see the row", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New(), row.ID)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormWalletTransactionRepository_DuplicateIdempotencyKey(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormWalletTransactionRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	account := mustCreateReseller(t, db, tenantID, decimal.Zero)

	first, err := reseller.NewWalletTransaction(
		tenantID, account.ID,
		reseller.TransactionTypeRecharge,
		decimal.NewFromInt(10), decimal.Zero,
	)
	require.NoError(t, err)
	first.WithIdempotencyKey("rc-1")
	require.NoError(t, repo.Create(ctx, first))

	second, err := reseller.NewWalletTransaction(
		tenantID, account.ID,
		reseller.TransactionTypeRecharge,
		decimal.NewFromInt(10), decimal.NewFromInt(10),
	)
	require.NoError(t, err)
	second.WithIdempotencyKey("rc-1")

	err = repo.Create(ctx, second)
	assert.Equal(t, shared.ErrDuplicateRequest, err)
}

func TestGormWalletTransactionRepository_History(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormWalletTransactionRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	account := mustCreateReseller(t, db, tenantID, decimal.Zero)

	balance := decimal.Zero
	amounts := []struct {
		txType reseller.TransactionType
		amount decimal.Decimal
	}{
		{reseller.TransactionTypeDeposit, decimal.NewFromInt(500)},
		{reseller.TransactionTypeCustomerRecharge, decimal.NewFromInt(-120)},
		{reseller.TransactionTypeCustomerRecharge, decimal.NewFromInt(-80)},
	}
	for _, a := range amounts {
		row, err := reseller.NewWalletTransaction(tenantID, account.ID, a.txType, a.amount, balance)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, row))
		balance = row.BalanceAfter
	}

	t.Run("returns all rows with total", func(t *testing.T) {
		rows, total, err := repo.FindByResellerID(ctx, tenantID, account.ID, reseller.TransactionFilter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, rows, 3)
	})

	t.Run("filters by type", func(t *testing.T) {
		txType := reseller.TransactionTypeCustomerRecharge
		rows, total, err := repo.FindByResellerID(ctx, tenantID, account.ID, reseller.TransactionFilter{
			Type: &txType, Page: 1, PageSize: 10,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		for _, row := range rows {
			assert.Equal(t, txType, row.Type)
		}
	})

	t.Run("latest row carries the running balance", func(t *testing.T) {
		latest, err := repo.GetLatestByResellerID(ctx, tenantID, account.ID)
		require.NoError(t, err)
		assert.True(t, latest.BalanceAfter.Equal(decimal.NewFromInt(300)))
	})

	t.Run("sums one transaction type", func(t *testing.T) {
		sum, err := repo.SumByResellerIDAndType(ctx, tenantID, account.ID, reseller.TransactionTypeCustomerRecharge)
		require.NoError(t, err)
		assert.True(t, sum.Equal(decimal.NewFromInt(-200)))
	})

	t.Run("sum of unused type is zero", func(t *testing.T) {
		sum, err := repo.SumByResellerIDAndType(ctx, tenantID, account.ID, reseller.TransactionTypeRefund)
		require.NoError(t, err)
		assert.True(t, sum.IsZero())
	})
}

func TestGormTransactionScope(t *testing.T) {
	db := setupLedgerTestDB(t)
	scope := NewGormTransactionScope(db)
	ctx := context.Background()

	tenantID := uuid.New()

	t.Run("commits on success", func(t *testing.T) {
		account := mustCreateReseller(t, db, tenantID, decimal.Zero)

		err := scope.Execute(ctx, func(repos appreseller.TransactionalRepositories) error {
			row, err := reseller.NewWalletTransaction(
				tenantID, account.ID,
				reseller.TransactionTypeDeposit,
				decimal.NewFromInt(40), decimal.Zero,
			)
			if err != nil {
				return err
			}
			if err := repos.TransactionRepo().Create(ctx, row); err != nil {
				return err
			}
			account.Balance = row.BalanceAfter
			return repos.ResellerRepo().UpdateBalance(ctx, account)
		})
		require.NoError(t, err)

		stored, err := NewGormResellerRepository(db).FindByIDForTenant(ctx, tenantID, account.ID)
		require.NoError(t, err)
		assert.True(t, stored.Balance.Equal(decimal.NewFromInt(40)))
	})

	t.Run("rolls back when the callback fails", func(t *testing.T) {
		account := mustCreateReseller(t, db, tenantID, decimal.Zero)

		err := scope.Execute(ctx, func(repos appreseller.TransactionalRepositories) error {
			row, err := reseller.NewWalletTransaction(
				tenantID, account.ID,
				reseller.TransactionTypeDeposit,
				decimal.NewFromInt(40), decimal.Zero,
			)
			if err != nil {
				return err
			}
			if err := repos.TransactionRepo().Create(ctx, row); err != nil {
				return err
			}
			return shared.ErrInvalidState
		})
		assert.Equal(t, shared.ErrInvalidState, err)

		_, total, err := NewGormWalletTransactionRepository(db).FindByResellerID(ctx, tenantID, account.ID, reseller.TransactionFilter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(0), total)
	})

	t.Run("surfaces a deadlock abort as a concurrency conflict", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos appreseller.TransactionalRepositories) error {
			return &pgconn.PgError{Code: "40P01", Message: "deadlock detected"}
		})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("surfaces a serialization failure as a concurrency conflict", func(t *testing.T) {
		err := scope.Execute(ctx, func(repos appreseller.TransactionalRepositories) error {
			return &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
		})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("passes other database errors through untouched", func(t *testing.T) {
		cause := &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
		err := scope.Execute(ctx, func(repos appreseller.TransactionalRepositories) error {
			return cause
		})
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, shared.ErrConcurrencyConflict)
	})
}
