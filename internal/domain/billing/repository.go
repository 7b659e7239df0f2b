package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
)

// CustomerRepository provides access to subscribers
type CustomerRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Customer, int64, error)
	FindByResellerID(ctx context.Context, tenantID, resellerID uuid.UUID, filter shared.Filter) ([]Customer, int64, error)
	CountActiveByResellerID(ctx context.Context, tenantID, resellerID uuid.UUID) (int64, error)
	Save(ctx context.Context, c *Customer) error
	SaveWithLock(ctx context.Context, c *Customer) error
}

// PackageRepository provides access to service packages
type PackageRepository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ServicePackage, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]ServicePackage, int64, error)
	Save(ctx context.Context, p *ServicePackage) error
}

// BillingRecordRepository is append-only customer billing history
type BillingRecordRepository interface {
	Create(ctx context.Context, r *BillingRecord) error
	FindByCustomerID(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]*BillingRecord, int64, error)
}

// CollectionRepository provides access to batch collection headers
type CollectionRepository interface {
	Create(ctx context.Context, c *Collection) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Collection, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Collection, int64, error)
	Save(ctx context.Context, c *Collection) error
}
