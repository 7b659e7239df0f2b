package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// CollectionService runs batches of customer recharges taken as one
// user-facing action. The batch is best-effort: items settle independently
// and the header aggregates the outcome, so one bad customer never rolls
// back the rest of the round.
type CollectionService struct {
	collectionRepo  billing.CollectionRepository
	rechargeService *RechargeService
	logger          *zap.Logger
}

// NewCollectionService creates a new CollectionService
func NewCollectionService(
	collectionRepo billing.CollectionRepository,
	rechargeService *RechargeService,
	logger *zap.Logger,
) *CollectionService {
	return &CollectionService{
		collectionRepo:  collectionRepo,
		rechargeService: rechargeService,
		logger:          logger,
	}
}

// CreateMultiCollection inserts a collection header and settles each item
// through the recharge engine.
func (s *CollectionService) CreateMultiCollection(ctx context.Context, tenantID uuid.UUID, req CreateCollectionRequest) (*CollectionResult, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", "Collection requires at least one item")
	}

	header, err := billing.NewCollection(tenantID, req.PaymentMethod, req.Notes, len(req.Items))
	if err != nil {
		return nil, err
	}
	if err := s.collectionRepo.Create(ctx, header); err != nil {
		return nil, err
	}

	result := &CollectionResult{
		CollectionID: header.ID,
		ItemCount:    len(req.Items),
		Items:        make([]CollectionItemResult, 0, len(req.Items)),
	}

	for _, item := range req.Items {
		itemResult := CollectionItemResult{
			CustomerID: item.CustomerID,
			Amount:     item.Amount,
		}

		settled, err := s.rechargeService.RechargeForCollection(ctx, tenantID, RechargeRequest{
			CustomerID:      item.CustomerID,
			Amount:          item.Amount,
			Months:          item.Months,
			PaymentMethod:   req.PaymentMethod,
			Discount:        item.Discount,
			Notes:           item.Notes,
			CollectedByType: req.CollectedByType,
			CollectedByName: req.CollectedByName,
			OperatorID:      req.OperatorID,
		}, header.ID)
		if err != nil {
			itemResult.Error = err.Error()
			header.RecordItemFailure()
			s.logger.Warn("collection item failed",
				zap.String("collection_id", header.ID.String()),
				zap.String("customer_id", item.CustomerID.String()),
				zap.Error(err))
		} else {
			itemResult.Success = true
			itemResult.NewExpiry = &settled.NewExpiryDate
			header.RecordItemSuccess(item.Amount)
		}
		result.Items = append(result.Items, itemResult)
	}

	header.Complete()
	if err := s.collectionRepo.Save(ctx, header); err != nil {
		return nil, err
	}

	result.TotalAmount = header.TotalAmount
	result.SucceededCount = header.SucceededCount
	result.FailedCount = header.FailedCount

	s.logger.Info("collection completed",
		zap.String("collection_id", header.ID.String()),
		zap.Int("succeeded", header.SucceededCount),
		zap.Int("failed", header.FailedCount),
		zap.String("total", header.TotalAmount.String()))
	return result, nil
}

// GetCollection retrieves a collection header
func (s *CollectionService) GetCollection(ctx context.Context, tenantID, id uuid.UUID) (*CollectionResponse, error) {
	header, err := s.collectionRepo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToCollectionResponse(header)
	return &response, nil
}

// ListCollections retrieves collection headers newest-first
func (s *CollectionService) ListCollections(ctx context.Context, tenantID uuid.UUID, page, pageSize int) (*shared.Paginated[CollectionResponse], error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	filter := shared.DefaultFilter()
	filter.Page = page
	filter.PageSize = pageSize

	headers, total, err := s.collectionRepo.FindAllForTenant(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]CollectionResponse, 0, len(headers))
	for i := range headers {
		items = append(items, ToCollectionResponse(&headers[i]))
	}
	result := shared.NewPaginated(items, total, page, pageSize)
	return &result, nil
}
