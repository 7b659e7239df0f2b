package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/ispbill/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCustomerRepository implements billing.CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByIDForTenant finds a customer by ID within a tenant
func (r *GormCustomerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Customer, error) {
	var model models.CustomerModel
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

// FindAllForTenant finds all customers for a tenant matching the filter
func (r *GormCustomerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]billing.Customer, int64, error) {
	query := r.applyFilters(
		r.db.WithContext(ctx).Model(&models.CustomerModel{}).Where("tenant_id = ?", tenantID),
		filter,
	)
	return r.findPage(query, filter)
}

// FindByResellerID finds customers owned by a reseller
func (r *GormCustomerRepository) FindByResellerID(ctx context.Context, tenantID, resellerID uuid.UUID, filter shared.Filter) ([]billing.Customer, int64, error) {
	query := r.applyFilters(
		r.db.WithContext(ctx).Model(&models.CustomerModel{}).
			Where("tenant_id = ? AND reseller_id = ?", tenantID, resellerID),
		filter,
	)
	return r.findPage(query, filter)
}

// CountActiveByResellerID counts a reseller's customers that still consume service
func (r *GormCustomerRepository) CountActiveByResellerID(ctx context.Context, tenantID, resellerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("tenant_id = ? AND reseller_id = ? AND status NOT IN ?",
			tenantID, resellerID, []billing.CustomerStatus{billing.CustomerStatusCancelled}).
		Count(&count).Error
	return count, err
}

// Save persists a customer
func (r *GormCustomerRepository) Save(ctx context.Context, c *billing.Customer) error {
	model := models.CustomerModelFromDomain(c)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock persists the customer with an optimistic version check.
// Columns are listed explicitly so status transitions and nil dates are written.
func (r *GormCustomerRepository) SaveWithLock(ctx context.Context, c *billing.Customer) error {
	result := r.db.WithContext(ctx).
		Model(&models.CustomerModel{}).
		Where("id = ? AND version = ?", c.ID, c.Version-1).
		Updates(map[string]interface{}{
			"name":              c.Name,
			"phone":             c.Phone,
			"package_id":        c.PackageID,
			"expiry_date":       c.ExpiryDate,
			"monthly_bill":      c.MonthlyBill,
			"due_amount":        c.DueAmount,
			"status":            c.Status,
			"last_payment_date": c.LastPaymentDate,
			"version":           c.Version,
			"updated_at":        c.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func (r *GormCustomerRepository) findPage(query *gorm.DB, filter shared.Filter) ([]billing.Customer, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := "created_at DESC"
	if filter.OrderBy != "" {
		orderDir := "ASC"
		if strings.ToLower(filter.OrderDir) == "desc" {
			orderDir = "DESC"
		}
		orderBy = filter.OrderBy + " " + orderDir
	}

	var customerModels []models.CustomerModel
	if err := query.Order(orderBy).Find(&customerModels).Error; err != nil {
		return nil, 0, err
	}

	customers := make([]billing.Customer, len(customerModels))
	for i, model := range customerModels {
		customers[i] = *model.ToDomain()
	}
	return customers, total, nil
}

func (r *GormCustomerRepository) applyFilters(query *gorm.DB, filter shared.Filter) *gorm.DB {
	for key, value := range filter.Filters {
		switch key {
		case "search":
			if s, ok := value.(string); ok && s != "" {
				pattern := "%" + s + "%"
				query = query.Where("name ILIKE ? OR phone ILIKE ?", pattern, pattern)
			}
		case "status":
			query = query.Where("status = ?", value)
		case "package_id":
			query = query.Where("package_id = ?", value)
		}
	}
	return query
}

// Ensure GormCustomerRepository implements billing.CustomerRepository
var _ billing.CustomerRepository = (*GormCustomerRepository)(nil)
