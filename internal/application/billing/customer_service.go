package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CustomerService manages subscribers
type CustomerService struct {
	customerRepo billing.CustomerRepository
	packageRepo  billing.PackageRepository
	resellerRepo reseller.Repository
	recordRepo   billing.BillingRecordRepository
	logger       *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(
	customerRepo billing.CustomerRepository,
	packageRepo billing.PackageRepository,
	resellerRepo reseller.Repository,
	recordRepo billing.BillingRecordRepository,
	logger *zap.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		packageRepo:  packageRepo,
		resellerRepo: resellerRepo,
		recordRepo:   recordRepo,
		logger:       logger,
	}
}

// CreateCustomer creates a subscriber. With ResellerID set the customer is
// attributed to that reseller and the reseller's max_customers cap is
// enforced; without it the customer is a walk-in owned by the ISP.
func (s *CustomerService) CreateCustomer(ctx context.Context, tenantID uuid.UUID, req CreateCustomerRequest) (*CustomerResponse, error) {
	pkg, err := s.packageRepo.FindByIDForTenant(ctx, tenantID, req.PackageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive {
		return nil, shared.NewDomainError("INVALID_STATE", "Service package is no longer active")
	}

	if req.ResellerID != nil {
		owner, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, *req.ResellerID)
		if err != nil {
			return nil, err
		}
		if !owner.IsActive {
			return nil, shared.NewDomainError("INVALID_STATE", "Reseller account is deactivated")
		}
		if !owner.Capabilities.CanAddCustomers {
			return nil, shared.ErrForbidden
		}
		activeCustomers, err := s.customerRepo.CountActiveByResellerID(ctx, tenantID, owner.ID)
		if err != nil {
			return nil, err
		}
		if !owner.CanTakeCustomer(activeCustomers) {
			return nil, shared.ErrLimitExceeded
		}
	}

	monthlyBill := req.MonthlyBill
	if monthlyBill.IsZero() {
		monthlyBill = pkg.Price
	}

	customer, err := billing.NewCustomer(tenantID, req.Name, req.PackageID, req.ResellerID, monthlyBill)
	if err != nil {
		return nil, err
	}
	customer.Phone = req.Phone

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	s.logger.Info("customer created", zap.String("customer_id", customer.ID.String()))
	response := ToCustomerResponse(customer)
	return &response, nil
}

// GetCustomer retrieves a subscriber by id
func (s *CustomerService) GetCustomer(ctx context.Context, tenantID, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToCustomerResponse(customer)
	return &response, nil
}

// ListCustomers retrieves subscribers with filtering and pagination
func (s *CustomerService) ListCustomers(ctx context.Context, tenantID uuid.UUID, filter CustomerListFilter) (*shared.Paginated[CustomerResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := shared.DefaultFilter()
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	if filter.Search != "" {
		domainFilter.Filters["search"] = filter.Search
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	var customers []billing.Customer
	var total int64
	var err error
	if filter.ResellerID != nil {
		customers, total, err = s.customerRepo.FindByResellerID(ctx, tenantID, *filter.ResellerID, domainFilter)
	} else {
		customers, total, err = s.customerRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	}
	if err != nil {
		return nil, err
	}

	items := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		items = append(items, ToCustomerResponse(&customers[i]))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// GetBillingHistory retrieves a customer's billing history newest-first
func (s *CustomerService) GetBillingHistory(ctx context.Context, tenantID, customerID uuid.UUID, page, pageSize int) (*shared.Paginated[BillingRecordResponse], error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	if _, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, customerID); err != nil {
		return nil, err
	}

	filter := shared.DefaultFilter()
	filter.Page = page
	filter.PageSize = pageSize

	records, total, err := s.recordRepo.FindByCustomerID(ctx, tenantID, customerID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]BillingRecordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, ToBillingRecordResponse(record))
	}
	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

// SuspendCustomer marks a subscriber suspended
func (s *CustomerService) SuspendCustomer(ctx context.Context, tenantID, id uuid.UUID) error {
	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if err := customer.Suspend(); err != nil {
		return err
	}
	return s.customerRepo.SaveWithLock(ctx, customer)
}
