package reseller

import (
	"context"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HierarchyService manages the reseller tree: creation, profile and policy
// updates, deactivation and descendant queries.
type HierarchyService struct {
	txScope      TransactionScope
	resellerRepo reseller.Repository
	logger       *zap.Logger
}

// NewHierarchyService creates a new HierarchyService
func NewHierarchyService(txScope TransactionScope, resellerRepo reseller.Repository, logger *zap.Logger) *HierarchyService {
	return &HierarchyService{
		txScope:      txScope,
		resellerRepo: resellerRepo,
		logger:       logger,
	}
}

// CreateReseller creates a reseller. With ParentID set the new account is a
// sub-reseller one level below the parent; the parent row is locked and its
// active-children count checked in the creating transaction, so concurrent
// creations cannot exceed max_sub_resellers.
func (s *HierarchyService) CreateReseller(ctx context.Context, tenantID uuid.UUID, req CreateResellerRequest, createdBy *uuid.UUID) (*ResellerResponse, error) {
	policy, err := policyFromRequest(req.CommissionType, req.CommissionValue, req.RateType, req.CustomerRate)
	if err != nil {
		return nil, err
	}

	var created *reseller.Reseller
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var entity *reseller.Reseller
		var err error

		if req.ParentID == nil {
			entity, err = reseller.NewReseller(tenantID, req.Name, *policy)
			if err != nil {
				return err
			}
		} else {
			parent, err := repos.ResellerRepo().FindByIDForUpdate(ctx, tenantID, *req.ParentID)
			if err != nil {
				return err
			}
			activeChildren, err := repos.ResellerRepo().CountActiveChildren(ctx, tenantID, parent.ID)
			if err != nil {
				return err
			}
			if !parent.CanTakeSubReseller(activeChildren) {
				return shared.ErrLimitExceeded
			}
			entity, err = reseller.NewSubReseller(tenantID, req.Name, parent, *policy)
			if err != nil {
				return err
			}
		}

		entity.Phone = req.Phone
		entity.Email = req.Email
		entity.CreatedBy = createdBy
		if err := entity.UpdateLimits(reseller.Limits{
			MaxSubResellers: req.MaxSubResellers,
			MaxCustomers:    req.MaxCustomers,
		}); err != nil {
			return err
		}

		if err := repos.ResellerRepo().Save(ctx, entity); err != nil {
			return err
		}
		created = entity
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("reseller created",
		zap.String("reseller_id", created.ID.String()),
		zap.Int("level", created.Level))

	response := ToResellerResponse(created)
	return &response, nil
}

// GetReseller retrieves a reseller by id
func (s *HierarchyService) GetReseller(ctx context.Context, tenantID, id uuid.UUID) (*ResellerResponse, error) {
	entity, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToResellerResponse(entity)
	return &response, nil
}

// ListResellers retrieves resellers with filtering and pagination
func (s *HierarchyService) ListResellers(ctx context.Context, tenantID uuid.UUID, filter ResellerListFilter) (*shared.Paginated[ResellerResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.DefaultFilter()
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.Search != "" {
		domainFilter.Filters["search"] = filter.Search
	}
	if filter.ParentID != nil {
		domainFilter.Filters["parent_id"] = *filter.ParentID
	}
	if filter.Level != nil {
		domainFilter.Filters["level"] = *filter.Level
	}
	if filter.IsActive != nil {
		domainFilter.Filters["is_active"] = *filter.IsActive
	}

	entities, total, err := s.resellerRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]ResellerResponse, 0, len(entities))
	for i := range entities {
		items = append(items, ToResellerResponse(&entities[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// UpdateReseller updates the profile of a reseller
func (s *HierarchyService) UpdateReseller(ctx context.Context, tenantID, id uuid.UUID, req UpdateResellerRequest) (*ResellerResponse, error) {
	entity, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := entity.UpdateProfile(req.Name, req.Phone, req.Email); err != nil {
		return nil, err
	}
	if err := s.resellerRepo.SaveWithLock(ctx, entity); err != nil {
		return nil, err
	}
	response := ToResellerResponse(entity)
	return &response, nil
}

// UpdatePolicy replaces the commission policy of a reseller. The new policy
// applies to recharges settled after the update; posted ledger rows are
// never recomputed.
func (s *HierarchyService) UpdatePolicy(ctx context.Context, tenantID, id uuid.UUID, req UpdatePolicyRequest) (*ResellerResponse, error) {
	policy, err := policyFromRequest(req.CommissionType, req.CommissionValue, req.RateType, req.CustomerRate)
	if err != nil {
		return nil, err
	}

	entity, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := entity.UpdatePolicy(*policy); err != nil {
		return nil, err
	}
	if err := s.resellerRepo.SaveWithLock(ctx, entity); err != nil {
		return nil, err
	}

	s.logger.Info("commission policy updated", zap.String("reseller_id", id.String()))
	response := ToResellerResponse(entity)
	return &response, nil
}

// UpdateCapabilities replaces the permission flags of a reseller
func (s *HierarchyService) UpdateCapabilities(ctx context.Context, tenantID, id uuid.UUID, req UpdateCapabilitiesRequest) (*ResellerResponse, error) {
	entity, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	entity.UpdateCapabilities(reseller.Capabilities{
		CanCreateSubReseller: req.CanCreateSubReseller,
		CanAddCustomers:      req.CanAddCustomers,
		CanEditCustomers:     req.CanEditCustomers,
		CanDeleteCustomers:   req.CanDeleteCustomers,
		CanRechargeCustomers: req.CanRechargeCustomers,
		CanViewSubCustomers:  req.CanViewSubCustomers,
	})
	if err := s.resellerRepo.SaveWithLock(ctx, entity); err != nil {
		return nil, err
	}
	response := ToResellerResponse(entity)
	return &response, nil
}

// UpdateLimits replaces the sub-reseller/customer caps of a reseller.
// Lowering a cap below the current count is allowed; it only blocks further
// additions.
func (s *HierarchyService) UpdateLimits(ctx context.Context, tenantID, id uuid.UUID, req UpdateLimitsRequest) (*ResellerResponse, error) {
	entity, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := entity.UpdateLimits(reseller.Limits{
		MaxSubResellers: req.MaxSubResellers,
		MaxCustomers:    req.MaxCustomers,
	}); err != nil {
		return nil, err
	}
	if err := s.resellerRepo.SaveWithLock(ctx, entity); err != nil {
		return nil, err
	}
	response := ToResellerResponse(entity)
	return &response, nil
}

// DeactivateReseller soft-deletes a reseller. The account and its ledger
// history remain queryable; only new activity is blocked.
func (s *HierarchyService) DeactivateReseller(ctx context.Context, tenantID, id uuid.UUID) error {
	entity, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := entity.Deactivate(); err != nil {
		return err
	}
	if err := s.resellerRepo.SaveWithLock(ctx, entity); err != nil {
		return err
	}

	s.logger.Info("reseller deactivated", zap.String("reseller_id", id.String()))
	return nil
}

// GetSubResellers returns the active direct children of a reseller
func (s *HierarchyService) GetSubResellers(ctx context.Context, tenantID, parentID uuid.UUID) ([]ResellerResponse, error) {
	if _, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, parentID); err != nil {
		return nil, err
	}
	children, err := s.resellerRepo.FindActiveChildren(ctx, tenantID, parentID)
	if err != nil {
		return nil, err
	}
	items := make([]ResellerResponse, 0, len(children))
	for i := range children {
		items = append(items, ToResellerResponse(&children[i]))
	}
	return items, nil
}

// GetDescendants returns every active reseller below the given one, walked
// breadth-first level by level. The hierarchy is at most three levels deep
// so the walk is bounded; no recursive SQL is involved.
func (s *HierarchyService) GetDescendants(ctx context.Context, tenantID, rootID uuid.UUID) ([]ResellerResponse, error) {
	if _, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, rootID); err != nil {
		return nil, err
	}

	var descendants []ResellerResponse
	frontier := []uuid.UUID{rootID}
	for len(frontier) > 0 {
		var next []uuid.UUID
		for _, parentID := range frontier {
			children, err := s.resellerRepo.FindActiveChildren(ctx, tenantID, parentID)
			if err != nil {
				return nil, err
			}
			for i := range children {
				descendants = append(descendants, ToResellerResponse(&children[i]))
				next = append(next, children[i].ID)
			}
		}
		frontier = next
	}
	return descendants, nil
}

func policyFromRequest(commissionType string, commissionValue decimal.Decimal, rateType string, customerRate decimal.Decimal) (*reseller.CommissionPolicy, error) {
	policy := reseller.CommissionPolicy{
		CommissionType:  reseller.CommissionType(commissionType),
		CommissionValue: commissionValue,
		RateType:        reseller.RateType(rateType),
		CustomerRate:    customerRate,
	}
	if policy.RateType == "" {
		policy.RateType = reseller.RateTypeDiscount
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &policy, nil
}
