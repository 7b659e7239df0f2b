package billing

import (
	"context"

	"github.com/google/uuid"
	appreseller "github.com/ispbill/backend/internal/application/reseller"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockCustomerRepository is a mock implementation of billing.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Customer, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) FindByResellerID(ctx context.Context, tenantID, resellerID uuid.UUID, filter shared.Filter) ([]billing.Customer, int64, error) {
	args := m.Called(ctx, tenantID, resellerID, filter)
	return args.Get(0).([]billing.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) CountActiveByResellerID(ctx context.Context, tenantID, resellerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, resellerID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, c *billing.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCustomerRepository) SaveWithLock(ctx context.Context, c *billing.Customer) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

// MockPackageRepository is a mock implementation of billing.PackageRepository
type MockPackageRepository struct {
	mock.Mock
}

func (m *MockPackageRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.ServicePackage, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.ServicePackage), args.Error(1)
}

func (m *MockPackageRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.ServicePackage, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.ServicePackage), args.Get(1).(int64), args.Error(2)
}

func (m *MockPackageRepository) Save(ctx context.Context, p *billing.ServicePackage) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockBillingRecordRepository is a mock implementation of billing.BillingRecordRepository
type MockBillingRecordRepository struct {
	mock.Mock
}

func (m *MockBillingRecordRepository) Create(ctx context.Context, r *billing.BillingRecord) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockBillingRecordRepository) FindByCustomerID(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]*billing.BillingRecord, int64, error) {
	args := m.Called(ctx, tenantID, customerID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*billing.BillingRecord), args.Get(1).(int64), args.Error(2)
}

// MockCollectionRepository is a mock implementation of billing.CollectionRepository
type MockCollectionRepository struct {
	mock.Mock
}

func (m *MockCollectionRepository) Create(ctx context.Context, c *billing.Collection) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCollectionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Collection, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Collection), args.Error(1)
}

func (m *MockCollectionRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Collection, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Collection), args.Get(1).(int64), args.Error(2)
}

func (m *MockCollectionRepository) Save(ctx context.Context, c *billing.Collection) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

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

// MockLedgerAppender is a mock implementation of LedgerAppender
type MockLedgerAppender struct {
	mock.Mock
}

func (m *MockLedgerAppender) AppendEntry(ctx context.Context, tenantID uuid.UUID, input appreseller.EntryInput) (*appreseller.TransactionResponse, error) {
	args := m.Called(ctx, tenantID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appreseller.TransactionResponse), args.Error(1)
}

func (m *MockLedgerAppender) CheckIdempotency(ctx context.Context, tenantID uuid.UUID, key string) error {
	args := m.Called(ctx, tenantID, key)
	return args.Error(0)
}

// newTestPackage builds an active package priced per 30-day period
func newTestPackage(tenantID uuid.UUID, price int64) *billing.ServicePackage {
	pkg, err := billing.NewServicePackage(tenantID, "Home 10Mbps", decimal.NewFromInt(price), 30)
	if err != nil {
		panic(err)
	}
	return pkg
}

// newTestCustomer builds a pending customer owned by the given reseller
func newTestCustomer(tenantID uuid.UUID, pkg *billing.ServicePackage, resellerID *uuid.UUID) *billing.Customer {
	customer, err := billing.NewCustomer(tenantID, "Test Subscriber", pkg.ID, resellerID, pkg.Price)
	if err != nil {
		panic(err)
	}
	return customer
}

// newTestOwner builds an active reseller with the given balance and a 10%
// discount commission policy
func newTestOwner(tenantID uuid.UUID, balance int64) *reseller.Reseller {
	owner, err := reseller.NewReseller(tenantID, "Owner Reseller", reseller.CommissionPolicy{
		CommissionType:  reseller.CommissionTypePercentage,
		CommissionValue: decimal.NewFromInt(10),
		RateType:        reseller.RateTypeDiscount,
	})
	if err != nil {
		panic(err)
	}
	owner.Balance = decimal.NewFromInt(balance)
	return owner
}
