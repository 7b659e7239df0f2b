package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// PackageService manages sellable service packages
type PackageService struct {
	packageRepo billing.PackageRepository
	logger      *zap.Logger
}

// NewPackageService creates a new PackageService
func NewPackageService(packageRepo billing.PackageRepository, logger *zap.Logger) *PackageService {
	return &PackageService{
		packageRepo: packageRepo,
		logger:      logger,
	}
}

// CreatePackage creates a service package
func (s *PackageService) CreatePackage(ctx context.Context, tenantID uuid.UUID, req CreatePackageRequest) (*PackageResponse, error) {
	pkg, err := billing.NewServicePackage(tenantID, req.Name, req.Price, req.ValidityDays)
	if err != nil {
		return nil, err
	}
	if err := s.packageRepo.Save(ctx, pkg); err != nil {
		return nil, err
	}

	s.logger.Info("service package created", zap.String("package_id", pkg.ID.String()))
	response := ToPackageResponse(pkg)
	return &response, nil
}

// GetPackage retrieves a service package by id
func (s *PackageService) GetPackage(ctx context.Context, tenantID, id uuid.UUID) (*PackageResponse, error) {
	pkg, err := s.packageRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToPackageResponse(pkg)
	return &response, nil
}

// ListPackages retrieves service packages with pagination
func (s *PackageService) ListPackages(ctx context.Context, tenantID uuid.UUID, page, pageSize int) (*shared.Paginated[PackageResponse], error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	filter := shared.DefaultFilter()
	filter.Page = page
	filter.PageSize = pageSize

	packages, total, err := s.packageRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]PackageResponse, 0, len(packages))
	for i := range packages {
		items = append(items, ToPackageResponse(&packages[i]))
	}
	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}

// DeactivatePackage retires a package from sale. Existing subscriptions on
// the package keep running until expiry.
func (s *PackageService) DeactivatePackage(ctx context.Context, tenantID, id uuid.UUID) error {
	pkg, err := s.packageRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if !pkg.IsActive {
		return shared.ErrInvalidState
	}
	pkg.IsActive = false
	pkg.IncrementVersion()
	return s.packageRepo.Save(ctx, pkg)
}
