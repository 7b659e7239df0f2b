package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appreseller "github.com/ispbill/backend/internal/application/reseller"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type rechargeFixture struct {
	customerRepo *MockCustomerRepository
	packageRepo  *MockPackageRepository
	recordRepo   *MockBillingRecordRepository
	resellerRepo *MockResellerRepository
	ledger       *MockLedgerAppender
	service      *RechargeService
}

func newRechargeFixture() *rechargeFixture {
	f := &rechargeFixture{
		customerRepo: new(MockCustomerRepository),
		packageRepo:  new(MockPackageRepository),
		recordRepo:   new(MockBillingRecordRepository),
		resellerRepo: new(MockResellerRepository),
		ledger:       new(MockLedgerAppender),
	}
	f.service = NewRechargeService(f.customerRepo, f.packageRepo, f.recordRepo, f.resellerRepo, f.ledger, zap.NewNop())
	return f
}

func TestRechargeService_RechargeCustomer_ChargesReseller(t *testing.T) {
	tenantID := uuid.New()
	pkg := newTestPackage(tenantID, 500)
	owner := newTestOwner(tenantID, 2000)
	customer := newTestCustomer(tenantID, pkg, &owner.ID)

	f := newRechargeFixture()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return now }

	f.customerRepo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)
	f.packageRepo.On("FindByIDForTenant", mock.Anything, tenantID, pkg.ID).Return(pkg, nil)
	f.recordRepo.On("Create", mock.Anything, mock.AnythingOfType("*billing.BillingRecord")).Return(nil).Twice()
	f.customerRepo.On("SaveWithLock", mock.Anything, customer).Return(nil)
	f.resellerRepo.On("FindByIDForTenant", mock.Anything, tenantID, owner.ID).Return(owner, nil)
	f.ledger.On("AppendEntry", mock.Anything, tenantID, mock.MatchedBy(func(input appreseller.EntryInput) bool {
		// 500 * 2 months, 10% of 500 = 50 commission, deduct 950
		return input.Type == reseller.TransactionTypeCustomerRecharge &&
			input.Amount.Equal(decimal.NewFromInt(-950)) &&
			input.CustomerID != nil && *input.CustomerID == customer.ID
	})).Return(&appreseller.TransactionResponse{}, nil)
	f.resellerRepo.On("SaveWithLock", mock.Anything, owner).Return(nil)

	result, err := f.service.RechargeCustomer(context.Background(), tenantID, RechargeRequest{
		CustomerID:    customer.ID,
		Amount:        decimal.NewFromInt(1000),
		Months:        2,
		PaymentMethod: "cash",
	})

	require.NoError(t, err)
	assert.True(t, result.ResellerCharged)
	assert.True(t, result.Commission.Equal(decimal.NewFromInt(50)))
	assert.True(t, result.DeductAmount.Equal(decimal.NewFromInt(950)))
	assert.Equal(t, now.AddDate(0, 0, 60), result.NewExpiryDate)
	assert.Equal(t, billing.CustomerStatusActive, customer.Status)
	assert.True(t, customer.DueAmount.IsZero())
	assert.True(t, owner.TotalCollections.Equal(decimal.NewFromInt(1000)))
	f.ledger.AssertExpectations(t)
}

func TestRechargeService_RechargeCustomer_ActiveCustomerExtendsFromExpiry(t *testing.T) {
	tenantID := uuid.New()
	pkg := newTestPackage(tenantID, 500)
	customer := newTestCustomer(tenantID, pkg, nil)

	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	existing := now.AddDate(0, 0, 10)
	customer.ExpiryDate = &existing
	customer.Status = billing.CustomerStatusActive

	f := newRechargeFixture()
	f.service.now = func() time.Time { return now }

	f.customerRepo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)
	f.packageRepo.On("FindByIDForTenant", mock.Anything, tenantID, pkg.ID).Return(pkg, nil)
	f.recordRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()
	f.customerRepo.On("SaveWithLock", mock.Anything, customer).Return(nil)

	result, err := f.service.RechargeCustomer(context.Background(), tenantID, RechargeRequest{
		CustomerID:    customer.ID,
		Amount:        decimal.NewFromInt(500),
		Months:        1,
		PaymentMethod: "cash",
	})

	require.NoError(t, err)
	assert.Equal(t, existing.AddDate(0, 0, 30), result.NewExpiryDate)
}

func TestRechargeService_RechargeCustomer_WalkInPostsNoLedgerRows(t *testing.T) {
	tenantID := uuid.New()
	pkg := newTestPackage(tenantID, 500)
	customer := newTestCustomer(tenantID, pkg, nil)

	f := newRechargeFixture()

	f.customerRepo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)
	f.packageRepo.On("FindByIDForTenant", mock.Anything, tenantID, pkg.ID).Return(pkg, nil)
	f.recordRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()
	f.customerRepo.On("SaveWithLock", mock.Anything, customer).Return(nil)

	result, err := f.service.RechargeCustomer(context.Background(), tenantID, RechargeRequest{
		CustomerID:    customer.ID,
		Amount:        decimal.NewFromInt(500),
		Months:        1,
		PaymentMethod: "cash",
	})

	require.NoError(t, err)
	assert.False(t, result.ResellerCharged)
	assert.Nil(t, result.ResellerID)
	f.ledger.AssertNotCalled(t, "AppendEntry", mock.Anything, mock.Anything, mock.Anything)
	f.resellerRepo.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestRechargeService_RechargeCustomer_InsufficientBalanceSoftPath(t *testing.T) {
	tenantID := uuid.New()
	pkg := newTestPackage(tenantID, 500)
	owner := newTestOwner(tenantID, 100)
	customer := newTestCustomer(tenantID, pkg, &owner.ID)

	f := newRechargeFixture()

	f.customerRepo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)
	f.packageRepo.On("FindByIDForTenant", mock.Anything, tenantID, pkg.ID).Return(pkg, nil)
	f.recordRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()
	f.customerRepo.On("SaveWithLock", mock.Anything, customer).Return(nil)
	f.resellerRepo.On("FindByIDForTenant", mock.Anything, tenantID, owner.ID).Return(owner, nil)
	f.ledger.On("AppendEntry", mock.Anything, tenantID, mock.Anything).Return(nil, shared.ErrInsufficientBalance)

	result, err := f.service.RechargeCustomer(context.Background(), tenantID, RechargeRequest{
		CustomerID:    customer.ID,
		Amount:        decimal.NewFromInt(500),
		Months:        1,
		PaymentMethod: "cash",
	})

	require.NoError(t, err, "customer recharge must succeed even when the wallet cannot cover it")
	assert.False(t, result.ResellerCharged)
	assert.Equal(t, "insufficient reseller balance", result.SkipReason)
	assert.Equal(t, billing.CustomerStatusActive, customer.Status)
	assert.True(t, owner.TotalCollections.IsZero())
	f.resellerRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestRechargeService_RechargeCustomer_RetriedKeyRejectedBeforeAnyWrite(t *testing.T) {
	tenantID := uuid.New()
	pkg := newTestPackage(tenantID, 500)
	owner := newTestOwner(tenantID, 2000)
	customer := newTestCustomer(tenantID, pkg, &owner.ID)

	f := newRechargeFixture()
	f.ledger.On("CheckIdempotency", mock.Anything, tenantID, "recharge-77").
		Return(shared.ErrDuplicateRequest)

	result, err := f.service.RechargeCustomer(context.Background(), tenantID, RechargeRequest{
		CustomerID:     customer.ID,
		Amount:         decimal.NewFromInt(500),
		Months:         1,
		PaymentMethod:  "cash",
		IdempotencyKey: "recharge-77",
	})

	assert.ErrorIs(t, err, shared.ErrDuplicateRequest)
	assert.Nil(t, result)
	f.recordRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.customerRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "AppendEntry", mock.Anything, mock.Anything, mock.Anything)
}

func TestRechargeService_RechargeCustomer_FreshKeyFlowsToLedger(t *testing.T) {
	tenantID := uuid.New()
	pkg := newTestPackage(tenantID, 500)
	owner := newTestOwner(tenantID, 2000)
	customer := newTestCustomer(tenantID, pkg, &owner.ID)

	f := newRechargeFixture()

	f.ledger.On("CheckIdempotency", mock.Anything, tenantID, "recharge-78").Return(nil)
	f.customerRepo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)
	f.packageRepo.On("FindByIDForTenant", mock.Anything, tenantID, pkg.ID).Return(pkg, nil)
	f.recordRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()
	f.customerRepo.On("SaveWithLock", mock.Anything, customer).Return(nil)
	f.resellerRepo.On("FindByIDForTenant", mock.Anything, tenantID, owner.ID).Return(owner, nil)
	f.ledger.On("AppendEntry", mock.Anything, tenantID, mock.MatchedBy(func(input appreseller.EntryInput) bool {
		return input.IdempotencyKey == "recharge-78"
	})).Return(&appreseller.TransactionResponse{}, nil)
	f.resellerRepo.On("SaveWithLock", mock.Anything, owner).Return(nil)

	result, err := f.service.RechargeCustomer(context.Background(), tenantID, RechargeRequest{
		CustomerID:     customer.ID,
		Amount:         decimal.NewFromInt(500),
		Months:         1,
		PaymentMethod:  "cash",
		IdempotencyKey: "recharge-78",
	})

	require.NoError(t, err)
	assert.True(t, result.ResellerCharged)
	f.ledger.AssertExpectations(t)
}

func TestRechargeService_RechargeCustomer_CollectionCounterRetriesOnConflict(t *testing.T) {
	tenantID := uuid.New()
	pkg := newTestPackage(tenantID, 500)
	owner := newTestOwner(tenantID, 2000)
	customer := newTestCustomer(tenantID, pkg, &owner.ID)

	fresh := newTestOwner(tenantID, 2000)
	fresh.ID = owner.ID

	f := newRechargeFixture()

	f.customerRepo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)
	f.packageRepo.On("FindByIDForTenant", mock.Anything, tenantID, pkg.ID).Return(pkg, nil)
	f.recordRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()
	f.customerRepo.On("SaveWithLock", mock.Anything, customer).Return(nil)
	f.resellerRepo.On("FindByIDForTenant", mock.Anything, tenantID, owner.ID).Return(owner, nil).Once()
	f.ledger.On("AppendEntry", mock.Anything, tenantID, mock.Anything).Return(&appreseller.TransactionResponse{}, nil)

	// A concurrent writer bumped the row version between the wallet charge
	// and the counter update; the counter must land on the reloaded row.
	f.resellerRepo.On("SaveWithLock", mock.Anything, owner).Return(shared.ErrConcurrencyConflict).Once()
	f.resellerRepo.On("FindByIDForTenant", mock.Anything, tenantID, owner.ID).Return(fresh, nil).Once()
	f.resellerRepo.On("SaveWithLock", mock.Anything, fresh).Return(nil).Once()

	result, err := f.service.RechargeCustomer(context.Background(), tenantID, RechargeRequest{
		CustomerID:    customer.ID,
		Amount:        decimal.NewFromInt(500),
		Months:        1,
		PaymentMethod: "cash",
	})

	require.NoError(t, err)
	assert.True(t, result.ResellerCharged)
	assert.True(t, fresh.TotalCollections.Equal(decimal.NewFromInt(500)))
	f.resellerRepo.AssertNumberOfCalls(t, "SaveWithLock", 2)
	f.resellerRepo.AssertExpectations(t)
}

func TestRechargeService_RechargeCustomer_InactivePackageRejected(t *testing.T) {
	tenantID := uuid.New()
	pkg := newTestPackage(tenantID, 500)
	pkg.IsActive = false
	customer := newTestCustomer(tenantID, pkg, nil)

	f := newRechargeFixture()

	f.customerRepo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)
	f.packageRepo.On("FindByIDForTenant", mock.Anything, tenantID, pkg.ID).Return(pkg, nil)

	_, err := f.service.RechargeCustomer(context.Background(), tenantID, RechargeRequest{
		CustomerID:    customer.ID,
		Amount:        decimal.NewFromInt(500),
		Months:        1,
		PaymentMethod: "cash",
	})

	assert.Error(t, err)
	f.recordRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRechargeService_RechargeCustomer_ValidatesInput(t *testing.T) {
	f := newRechargeFixture()

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := f.service.RechargeCustomer(context.Background(), uuid.New(), RechargeRequest{
			CustomerID:    uuid.New(),
			Amount:        decimal.Zero,
			Months:        1,
			PaymentMethod: "cash",
		})
		assert.Error(t, err)
	})

	t.Run("zero months", func(t *testing.T) {
		_, err := f.service.RechargeCustomer(context.Background(), uuid.New(), RechargeRequest{
			CustomerID:    uuid.New(),
			Amount:        decimal.NewFromInt(500),
			Months:        0,
			PaymentMethod: "cash",
		})
		assert.Error(t, err)
	})

	t.Run("negative discount", func(t *testing.T) {
		_, err := f.service.RechargeCustomer(context.Background(), uuid.New(), RechargeRequest{
			CustomerID:    uuid.New(),
			Amount:        decimal.NewFromInt(500),
			Months:        1,
			PaymentMethod: "cash",
			Discount:      decimal.NewFromInt(-5),
		})
		assert.Error(t, err)
	})
}

func TestRechargeService_PayCustomer_OwnershipRequired(t *testing.T) {
	tenantID := uuid.New()
	pkg := newTestPackage(tenantID, 500)
	actor := newTestOwner(tenantID, 2000)
	stranger := newTestOwner(tenantID, 0)
	customer := newTestCustomer(tenantID, pkg, &stranger.ID)

	f := newRechargeFixture()

	f.resellerRepo.On("FindByIDForTenant", mock.Anything, tenantID, actor.ID).Return(actor, nil)
	f.customerRepo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)

	_, err := f.service.PayCustomer(context.Background(), tenantID, actor.ID, PayCustomerRequest{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(500),
		Months:     1,
	})

	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestRechargeService_PayCustomer_AncestorWithViewFlag(t *testing.T) {
	tenantID := uuid.New()
	pkg := newTestPackage(tenantID, 500)
	parent := newTestOwner(tenantID, 2000)
	parent.Capabilities.CanViewSubCustomers = true

	child, err := reseller.NewSubReseller(tenantID, "Child", parent, parent.Policy)
	require.NoError(t, err)
	child.Balance = decimal.NewFromInt(1000)
	customer := newTestCustomer(tenantID, pkg, &child.ID)

	f := newRechargeFixture()

	f.resellerRepo.On("FindByIDForTenant", mock.Anything, tenantID, parent.ID).Return(parent, nil)
	f.resellerRepo.On("FindByIDForTenant", mock.Anything, tenantID, child.ID).Return(child, nil)
	f.customerRepo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)
	f.packageRepo.On("FindByIDForTenant", mock.Anything, tenantID, pkg.ID).Return(pkg, nil)
	f.recordRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()
	f.customerRepo.On("SaveWithLock", mock.Anything, customer).Return(nil)
	f.ledger.On("AppendEntry", mock.Anything, tenantID, mock.MatchedBy(func(input appreseller.EntryInput) bool {
		return input.ResellerID == child.ID
	})).Return(&appreseller.TransactionResponse{}, nil)
	f.resellerRepo.On("SaveWithLock", mock.Anything, child).Return(nil)

	result, err := f.service.PayCustomer(context.Background(), tenantID, parent.ID, PayCustomerRequest{
		CustomerID: customer.ID,
		Amount:     decimal.NewFromInt(500),
		Months:     1,
	})

	require.NoError(t, err)
	assert.True(t, result.ResellerCharged)
}

func TestRechargeService_PayCustomer_CapabilityRequired(t *testing.T) {
	tenantID := uuid.New()
	actor := newTestOwner(tenantID, 2000)
	actor.Capabilities.CanRechargeCustomers = false

	f := newRechargeFixture()
	f.resellerRepo.On("FindByIDForTenant", mock.Anything, tenantID, actor.ID).Return(actor, nil)

	_, err := f.service.PayCustomer(context.Background(), tenantID, actor.ID, PayCustomerRequest{
		CustomerID: uuid.New(),
		Amount:     decimal.NewFromInt(500),
		Months:     1,
	})

	assert.ErrorIs(t, err, shared.ErrForbidden)
	f.customerRepo.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
}
