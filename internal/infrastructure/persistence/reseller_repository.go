package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormResellerRepository implements reseller.Repository using GORM
type GormResellerRepository struct {
	db *gorm.DB
}

// NewGormResellerRepository creates a new GormResellerRepository
func NewGormResellerRepository(db *gorm.DB) *GormResellerRepository {
	return &GormResellerRepository{db: db}
}

// FindByIDForTenant finds a reseller by ID within a tenant
func (r *GormResellerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*reseller.Reseller, error) {
	var model models.ResellerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads a reseller with a FOR UPDATE row lock.
// Callers must already be inside a transaction.
func (r *GormResellerRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*reseller.Reseller, error) {
	var model models.ResellerModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByEmail resolves a login email to an account across tenants
func (r *GormResellerRepository) FindByEmail(ctx context.Context, email string) (*reseller.Reseller, error) {
	var model models.ResellerModel
	if err := r.db.WithContext(ctx).
		Where("email = ?", email).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant finds all resellers for a tenant matching the filter
func (r *GormResellerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]reseller.Reseller, int64, error) {
	query := r.applyFilters(
		r.db.WithContext(ctx).Model(&models.ResellerModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var resellerModels []models.ResellerModel
	if err := r.applyPagination(query, filter).Find(&resellerModels).Error; err != nil {
		return nil, 0, err
	}

	resellers := make([]reseller.Reseller, len(resellerModels))
	for i, model := range resellerModels {
		resellers[i] = *model.ToDomain()
	}
	return resellers, total, nil
}

// FindActiveChildren returns the active direct children of a reseller
func (r *GormResellerRepository) FindActiveChildren(ctx context.Context, tenantID, parentID uuid.UUID) ([]reseller.Reseller, error) {
	var resellerModels []models.ResellerModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND parent_id = ? AND is_active = ?", tenantID, parentID, true).
		Order("created_at ASC").
		Find(&resellerModels).Error; err != nil {
		return nil, err
	}

	resellers := make([]reseller.Reseller, len(resellerModels))
	for i, model := range resellerModels {
		resellers[i] = *model.ToDomain()
	}
	return resellers, nil
}

// CountActiveChildren counts active direct children of a reseller
func (r *GormResellerRepository) CountActiveChildren(ctx context.Context, tenantID, parentID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ResellerModel{}).
		Where("tenant_id = ? AND parent_id = ? AND is_active = ?", tenantID, parentID, true).
		Count(&count).Error
	return count, err
}

// Save persists a reseller
func (r *GormResellerRepository) Save(ctx context.Context, res *reseller.Reseller) error {
	model := models.ResellerModelFromDomain(res)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock persists the reseller with an optimistic version check.
// Columns are listed explicitly so cleared flags and nil limits are written.
// Balance is deliberately absent; only UpdateBalance writes it.
func (r *GormResellerRepository) SaveWithLock(ctx context.Context, res *reseller.Reseller) error {
	result := r.db.WithContext(ctx).
		Model(&models.ResellerModel{}).
		Where("id = ? AND version = ?", res.ID, res.Version-1).
		Updates(map[string]interface{}{
			"name":                    res.Name,
			"phone":                   res.Phone,
			"email":                   res.Email,
			"password_hash":           res.PasswordHash,
			"total_collections":       res.TotalCollections,
			"commission_type":         string(res.Policy.CommissionType),
			"commission_value":        res.Policy.CommissionValue,
			"rate_type":               string(res.Policy.RateType),
			"customer_rate":           res.Policy.CustomerRate,
			"can_create_sub_reseller": res.Capabilities.CanCreateSubReseller,
			"can_add_customers":       res.Capabilities.CanAddCustomers,
			"can_edit_customers":      res.Capabilities.CanEditCustomers,
			"can_delete_customers":    res.Capabilities.CanDeleteCustomers,
			"can_recharge_customers":  res.Capabilities.CanRechargeCustomers,
			"can_view_sub_customers":  res.Capabilities.CanViewSubCustomers,
			"max_sub_resellers":       res.Limits.MaxSubResellers,
			"max_customers":           res.Limits.MaxCustomers,
			"is_active":               res.IsActive,
			"version":                 res.Version,
			"updated_at":              res.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// UpdateBalance writes only the ledger-derived balance column.
// The caller holds the row lock, so no version check is needed.
func (r *GormResellerRepository) UpdateBalance(ctx context.Context, res *reseller.Reseller) error {
	result := r.db.WithContext(ctx).
		Model(&models.ResellerModel{}).
		Where("tenant_id = ? AND id = ?", res.TenantID, res.ID).
		Updates(map[string]interface{}{
			"balance":    res.Balance,
			"updated_at": res.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormResellerRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "search":
			if s, ok := value.(string); ok && s != "" {
				pattern := "%" + s + "%"
				query = query.Where("name ILIKE ? OR phone ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
			}
		case "parent_id":
			query = query.Where("parent_id = ?", value)
		case "level":
			query = query.Where("level = ?", value)
		case "is_active":
			query = query.Where("is_active = ?", value)
		}
	}
	return query
}

func (r *GormResellerRepository) applyPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + orderDir)
	} else {
		query = query.Order("created_at DESC")
	}

	return query
}

// Ensure GormResellerRepository implements reseller.Repository
var _ reseller.Repository = (*GormResellerRepository)(nil)
