package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestGormResellerRepository_SaveAndFind(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormResellerRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	account := mustCreateReseller(t, db, tenantID, decimal.NewFromInt(250))

	t.Run("finds saved reseller", func(t *testing.T) {
		found, err := repo.FindByIDForTenant(ctx, tenantID, account.ID)
		require.NoError(t, err)
		assert.Equal(t, "Metro Networks", found.Name)
		assert.Equal(t, 1, found.Level)
		assert.Equal(t, reseller.RoleReseller, found.Role)
		assert.True(t, found.Balance.Equal(decimal.NewFromInt(250)))
		assert.Equal(t, reseller.CommissionTypePercentage, found.Policy.CommissionType)
	})

	t.Run("other tenant cannot see the reseller", func(t *testing.T) {
		_, err := repo.FindByIDForTenant(ctx, uuid.New(), account.ID)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormResellerRepository_SaveWithLock(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormResellerRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	account := mustCreateReseller(t, db, tenantID, decimal.Zero)

	t.Run("saves with matching version", func(t *testing.T) {
		require.NoError(t, account.UpdateProfile("Metro Networks Ltd", "01711", "ops@metro.example"))
		require.NoError(t, repo.SaveWithLock(ctx, account))

		found, err := repo.FindByIDForTenant(ctx, tenantID, account.ID)
		require.NoError(t, err)
		assert.Equal(t, "Metro Networks Ltd", found.Name)
		assert.Equal(t, 2, found.Version)
	})

	t.Run("rejects stale version", func(t *testing.T) {
		stale := *account
		stale.Version = 99
		err := repo.SaveWithLock(ctx, &stale)
		assert.Equal(t, shared.ErrConcurrencyConflict, err)
	})
}

func TestGormResellerRepository_Children(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormResellerRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	parent := mustCreateReseller(t, db, tenantID, decimal.Zero)

	for _, name := range []string{"North Zone", "South Zone"} {
		child, err := reseller.NewSubReseller(tenantID, name, parent, parent.Policy)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, child))
	}

	inactive, err := reseller.NewSubReseller(tenantID, "Closed Zone", parent, parent.Policy)
	require.NoError(t, err)
	require.NoError(t, inactive.Deactivate())
	require.NoError(t, repo.Save(ctx, inactive))

	t.Run("counts only active children", func(t *testing.T) {
		count, err := repo.CountActiveChildren(ctx, tenantID, parent.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})

	t.Run("lists only active children", func(t *testing.T) {
		children, err := repo.FindActiveChildren(ctx, tenantID, parent.ID)
		require.NoError(t, err)
		require.Len(t, children, 2)
		for _, c := range children {
			assert.Equal(t, 2, c.Level)
			assert.Equal(t, reseller.RoleSubReseller, c.Role)
		}
	})
}

func TestGormResellerRepository_UpdateBalance(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormResellerRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	account := mustCreateReseller(t, db, tenantID, decimal.NewFromInt(100))

	account.Balance = decimal.NewFromInt(60)
	require.NoError(t, repo.UpdateBalance(ctx, account))

	found, err := repo.FindByIDForTenant(ctx, tenantID, account.ID)
	require.NoError(t, err)
	assert.True(t, found.Balance.Equal(decimal.NewFromInt(60)))

	t.Run("unknown reseller returns not found", func(t *testing.T) {
		ghost := *account
		ghost.ID = uuid.New()
		err := repo.UpdateBalance(ctx, &ghost)
		assert.Equal(t, shared.ErrNotFound, err)
	})
}

func TestGormResellerRepository_FindAllForTenant(t *testing.T) {
	db := setupLedgerTestDB(t)
	repo := NewGormResellerRepository(db)
	ctx := context.Background()

	tenantID := uuid.New()
	parent := mustCreateReseller(t, db, tenantID, decimal.Zero)

	child, err := reseller.NewSubReseller(tenantID, "East Zone", parent, parent.Policy)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, child))

	t.Run("filters by level", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["level"] = 2
		resellers, total, err := repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, resellers, 1)
		assert.Equal(t, "East Zone", resellers[0].Name)
	})

	t.Run("filters by parent", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Filters["parent_id"] = parent.ID
		_, total, err := repo.FindAllForTenant(ctx, tenantID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})
}

// newMockResellerRepository creates a GormResellerRepository over a mocked
// Postgres connection for asserting generated SQL.
func newMockResellerRepository(t *testing.T) (*GormResellerRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormResellerRepository(gormDB), mock, mockDB
}

func TestGormResellerRepository_FindByIDForUpdate(t *testing.T) {
	t.Run("locks the row", func(t *testing.T) {
		repo, mock, mockDB := newMockResellerRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		id := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "version", "name", "level", "role", "balance", "total_collections", "commission_type", "commission_value", "rate_type", "customer_rate", "is_active"}).
			AddRow(id, tenantID, 1, "Metro Networks", 1, "reseller", decimal.NewFromInt(100), decimal.Zero, "percentage", decimal.NewFromInt(10), "discount", decimal.Zero, true)

		mock.ExpectQuery(`SELECT \* FROM "resellers" WHERE tenant_id = \$1 AND id = \$2 .* FOR UPDATE`).
			WithArgs(tenantID, id, 1).
			WillReturnRows(rows)

		account, err := repo.FindByIDForUpdate(context.Background(), tenantID, id)

		require.NoError(t, err)
		assert.Equal(t, id, account.ID)
		assert.True(t, account.Balance.Equal(decimal.NewFromInt(100)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for a missing row", func(t *testing.T) {
		repo, mock, mockDB := newMockResellerRepository(t)
		defer mockDB.Close()

		tenantID := uuid.New()
		id := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "resellers" WHERE tenant_id = \$1 AND id = \$2 .* FOR UPDATE`).
			WithArgs(tenantID, id, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		account, err := repo.FindByIDForUpdate(context.Background(), tenantID, id)

		assert.Nil(t, account)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
