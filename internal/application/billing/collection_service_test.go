package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollectionService_CreateMultiCollection_BestEffort(t *testing.T) {
	tenantID := uuid.New()
	pkg := newTestPackage(tenantID, 500)
	good := newTestCustomer(tenantID, pkg, nil)
	missing := uuid.New()

	f := newRechargeFixture()
	collectionRepo := new(MockCollectionRepository)
	service := NewCollectionService(collectionRepo, f.service, zap.NewNop())

	collectionRepo.On("Create", mock.Anything, mock.AnythingOfType("*billing.Collection")).Return(nil)
	collectionRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Collection")).Return(nil)

	f.customerRepo.On("FindByIDForTenant", mock.Anything, tenantID, good.ID).Return(good, nil)
	f.customerRepo.On("FindByIDForTenant", mock.Anything, tenantID, missing).Return(nil, shared.ErrNotFound)
	f.packageRepo.On("FindByIDForTenant", mock.Anything, tenantID, pkg.ID).Return(pkg, nil)
	f.recordRepo.On("Create", mock.Anything, mock.MatchedBy(func(r *billing.BillingRecord) bool {
		return r.CollectionID != nil
	})).Return(nil)
	f.customerRepo.On("SaveWithLock", mock.Anything, good).Return(nil)

	result, err := service.CreateMultiCollection(context.Background(), tenantID, CreateCollectionRequest{
		PaymentMethod: "cash",
		Items: []CollectionItemRequest{
			{CustomerID: good.ID, Amount: decimal.NewFromInt(500), Months: 1},
			{CustomerID: missing, Amount: decimal.NewFromInt(500), Months: 1},
		},
	})

	require.NoError(t, err, "one failed item must not fail the batch")
	assert.Equal(t, 2, result.ItemCount)
	assert.Equal(t, 1, result.SucceededCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.True(t, result.TotalAmount.Equal(decimal.NewFromInt(500)), "total counts only settled items")

	require.Len(t, result.Items, 2)
	assert.True(t, result.Items[0].Success)
	require.NotNil(t, result.Items[0].NewExpiry)
	assert.False(t, result.Items[1].Success)
	assert.NotEmpty(t, result.Items[1].Error)
	collectionRepo.AssertExpectations(t)
}

func TestCollectionService_CreateMultiCollection_EmptyRejected(t *testing.T) {
	f := newRechargeFixture()
	service := NewCollectionService(new(MockCollectionRepository), f.service, zap.NewNop())

	_, err := service.CreateMultiCollection(context.Background(), uuid.New(), CreateCollectionRequest{
		PaymentMethod: "cash",
	})

	assert.Error(t, err)
}

func TestCollectionService_CreateMultiCollection_HeaderCompleted(t *testing.T) {
	tenantID := uuid.New()
	pkg := newTestPackage(tenantID, 400)
	customer := newTestCustomer(tenantID, pkg, nil)

	f := newRechargeFixture()
	collectionRepo := new(MockCollectionRepository)
	service := NewCollectionService(collectionRepo, f.service, zap.NewNop())

	var saved *billing.Collection
	collectionRepo.On("Create", mock.Anything, mock.AnythingOfType("*billing.Collection")).Return(nil)
	collectionRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Collection")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*billing.Collection) }).Return(nil)

	f.customerRepo.On("FindByIDForTenant", mock.Anything, tenantID, customer.ID).Return(customer, nil)
	f.packageRepo.On("FindByIDForTenant", mock.Anything, tenantID, pkg.ID).Return(pkg, nil)
	f.recordRepo.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.customerRepo.On("SaveWithLock", mock.Anything, customer).Return(nil)

	_, err := service.CreateMultiCollection(context.Background(), tenantID, CreateCollectionRequest{
		PaymentMethod: "bkash",
		Items: []CollectionItemRequest{
			{CustomerID: customer.ID, Amount: decimal.NewFromInt(400), Months: 1},
		},
	})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.NotNil(t, saved.CompletedAt)
	assert.Equal(t, 1, saved.SucceededCount)
	assert.Equal(t, "bkash", saved.PaymentMethod)
}

func TestCollectionService_GetCollection(t *testing.T) {
	tenantID := uuid.New()
	header, err := billing.NewCollection(tenantID, "cash", "", 3)
	require.NoError(t, err)

	f := newRechargeFixture()
	collectionRepo := new(MockCollectionRepository)
	service := NewCollectionService(collectionRepo, f.service, zap.NewNop())

	collectionRepo.On("FindByIDForTenant", mock.Anything, tenantID, header.ID).Return(header, nil)

	result, err := service.GetCollection(context.Background(), tenantID, header.ID)

	require.NoError(t, err)
	assert.Equal(t, header.ID, result.ID)
	assert.Equal(t, 3, result.ItemCount)
}
