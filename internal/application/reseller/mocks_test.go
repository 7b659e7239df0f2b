package reseller

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockResellerRepository is a mock implementation of reseller.Repository
type MockResellerRepository struct {
	mock.Mock
}

func (m *MockResellerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*reseller.Reseller, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reseller.Reseller), args.Error(1)
}

func (m *MockResellerRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*reseller.Reseller, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reseller.Reseller), args.Error(1)
}

func (m *MockResellerRepository) FindByEmail(ctx context.Context, email string) (*reseller.Reseller, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reseller.Reseller), args.Error(1)
}

func (m *MockResellerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]reseller.Reseller, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]reseller.Reseller), args.Get(1).(int64), args.Error(2)
}

func (m *MockResellerRepository) FindActiveChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]reseller.Reseller, error) {
	args := m.Called(ctx, tenantID, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reseller.Reseller), args.Error(1)
}

func (m *MockResellerRepository) CountActiveChildren(ctx context.Context, tenantID, parentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, parentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResellerRepository) Save(ctx context.Context, r *reseller.Reseller) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockResellerRepository) SaveWithLock(ctx context.Context, r *reseller.Reseller) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockResellerRepository) UpdateBalance(ctx context.Context, r *reseller.Reseller) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// MockTransactionRepository is a mock implementation of reseller.TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *reseller.WalletTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*reseller.WalletTransaction, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reseller.WalletTransaction), args.Error(1)
}

func (m *MockTransactionRepository) FindByResellerID(ctx context.Context, tenantID, resellerID uuid.UUID, filter reseller.TransactionFilter) ([]*reseller.WalletTransaction, int64, error) {
	args := m.Called(ctx, tenantID, resellerID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*reseller.WalletTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockTransactionRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*reseller.WalletTransaction, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reseller.WalletTransaction), args.Error(1)
}

func (m *MockTransactionRepository) GetLatestByResellerID(ctx context.Context, tenantID, resellerID uuid.UUID) (*reseller.WalletTransaction, error) {
	args := m.Called(ctx, tenantID, resellerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reseller.WalletTransaction), args.Error(1)
}

func (m *MockTransactionRepository) SumByResellerIDAndType(ctx context.Context, tenantID, resellerID uuid.UUID, txType reseller.TransactionType) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, resellerID, txType)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// newTestReseller builds an active level-1 reseller with the given balance
func newTestReseller(tenantID uuid.UUID, balance decimal.Decimal) *reseller.Reseller {
	r, err := reseller.NewReseller(tenantID, "Test Reseller", reseller.CommissionPolicy{
		CommissionType:  reseller.CommissionTypePercentage,
		CommissionValue: decimal.NewFromInt(10),
		RateType:        reseller.RateTypeDiscount,
	})
	if err != nil {
		panic(err)
	}
	r.Balance = balance
	return r
}
