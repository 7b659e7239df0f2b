package reseller

import (
	"context"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/shared"
)

// Repository provides access to the reseller hierarchy
type Repository interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Reseller, error)
	// FindByIDForUpdate loads a reseller with a row-level write lock.
	// It must only be called inside a transaction scope.
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Reseller, error)
	// FindByEmail resolves a login email to an account across tenants
	FindByEmail(ctx context.Context, email string) (*Reseller, error)
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Reseller, int64, error)
	// FindActiveChildren returns the active direct children of a reseller
	FindActiveChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]Reseller, error)
	// CountActiveChildren counts active direct children, honouring the
	// caller's transaction so limit checks cannot race with inserts
	CountActiveChildren(ctx context.Context, tenantID, parentID uuid.UUID) (int64, error)
	Save(ctx context.Context, r *Reseller) error
	// SaveWithLock persists the reseller with an optimistic version check
	SaveWithLock(ctx context.Context, r *Reseller) error
	// UpdateBalance writes the balance computed by the ledger. Only the
	// ledger service may call this; no other path mutates balances.
	UpdateBalance(ctx context.Context, r *Reseller) error
}
