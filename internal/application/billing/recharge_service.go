package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	appreseller "github.com/ispbill/backend/internal/application/reseller"
	"github.com/ispbill/backend/internal/domain/billing"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerAppender is the slice of the wallet ledger the settlement engine
// needs: one atomic balance movement per reseller charge, plus the
// duplicate lookup that guards retried settlements.
type LedgerAppender interface {
	AppendEntry(ctx context.Context, tenantID uuid.UUID, input appreseller.EntryInput) (*appreseller.TransactionResponse, error)
	CheckIdempotency(ctx context.Context, tenantID uuid.UUID, key string) error
}

// RechargeService settles customer recharges. A settlement extends the
// customer's service, records customer billing history, and charges the
// owning reseller's wallet through the ledger.
//
// The reseller charge is deliberately decoupled from the customer-facing
// outcome: when the wallet cannot cover the deduct, the customer recharge
// still succeeds and the result carries ResellerCharged=false.
type RechargeService struct {
	customerRepo billing.CustomerRepository
	packageRepo  billing.PackageRepository
	recordRepo   billing.BillingRecordRepository
	resellerRepo reseller.Repository
	ledger       LedgerAppender
	logger       *zap.Logger
	now          func() time.Time
}

// NewRechargeService creates a new RechargeService
func NewRechargeService(
	customerRepo billing.CustomerRepository,
	packageRepo billing.PackageRepository,
	recordRepo billing.BillingRecordRepository,
	resellerRepo reseller.Repository,
	ledger LedgerAppender,
	logger *zap.Logger,
) *RechargeService {
	return &RechargeService{
		customerRepo: customerRepo,
		packageRepo:  packageRepo,
		recordRepo:   recordRepo,
		resellerRepo: resellerRepo,
		ledger:       ledger,
		logger:       logger,
		now:          time.Now,
	}
}

// RechargeCustomer settles one customer recharge
func (s *RechargeService) RechargeCustomer(ctx context.Context, tenantID uuid.UUID, req RechargeRequest) (*RechargeResult, error) {
	return s.settle(ctx, tenantID, req, nil)
}

// RechargeForCollection settles one recharge as part of a batch collection,
// linking the customer history rows to the collection header.
func (s *RechargeService) RechargeForCollection(ctx context.Context, tenantID uuid.UUID, req RechargeRequest, collectionID uuid.UUID) (*RechargeResult, error) {
	return s.settle(ctx, tenantID, req, &collectionID)
}

// PayCustomer is the reseller-initiated recharge path. The acting reseller
// must hold the recharge capability and either own the customer or be an
// ancestor with the view-sub-customers flag.
func (s *RechargeService) PayCustomer(ctx context.Context, tenantID, actingResellerID uuid.UUID, req PayCustomerRequest) (*RechargeResult, error) {
	actor, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, actingResellerID)
	if err != nil {
		return nil, err
	}
	if !actor.IsActive {
		return nil, shared.NewDomainError("INVALID_STATE", "Reseller account is deactivated")
	}
	if !actor.Capabilities.CanRechargeCustomers {
		return nil, shared.ErrForbidden
	}

	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	allowed := customer.IsOwnedBy(actor.ID)
	if !allowed && actor.Capabilities.CanViewSubCustomers && customer.ResellerID != nil {
		allowed, err = s.isAncestorOf(ctx, tenantID, actor.ID, *customer.ResellerID)
		if err != nil {
			return nil, err
		}
	}
	if !allowed {
		return nil, shared.ErrForbidden
	}

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "cash"
	}
	operatorID := actor.ID
	return s.settle(ctx, tenantID, RechargeRequest{
		CustomerID:      req.CustomerID,
		Amount:          req.Amount,
		Months:          req.Months,
		PaymentMethod:   paymentMethod,
		Notes:           req.Notes,
		CollectedByType: "reseller",
		CollectedByName: actor.Name,
		IdempotencyKey:  req.IdempotencyKey,
		OperatorID:      &operatorID,
	}, nil)
}

func (s *RechargeService) settle(ctx context.Context, tenantID uuid.UUID, req RechargeRequest, collectionID *uuid.UUID) (*RechargeResult, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Recharge amount must be positive")
	}
	if req.Months <= 0 {
		return nil, shared.NewDomainError("INVALID_MONTHS", "Months must be a positive integer")
	}
	if req.Discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}

	// A retried key must be rejected before the expiry extension and the
	// billing records are written, not when the ledger finally sees it.
	if req.IdempotencyKey != "" {
		if err := s.ledger.CheckIdempotency(ctx, tenantID, req.IdempotencyKey); err != nil {
			return nil, err
		}
	}

	customer, err := s.customerRepo.FindByIDForTenant(ctx, tenantID, req.CustomerID)
	if err != nil {
		return nil, err
	}
	pkg, err := s.packageRepo.FindByIDForTenant(ctx, tenantID, customer.PackageID)
	if err != nil {
		return nil, err
	}
	if !pkg.IsActive {
		return nil, shared.NewDomainError("INVALID_STATE", "Service package is no longer active")
	}

	now := s.now()
	newExpiry := billing.ExtendExpiry(customer.ExpiryDate, now, pkg.ValidityDays, req.Months)

	rechargeRecord, err := billing.NewBillingRecord(tenantID, customer.ID, billing.BillingRecordTypeRecharge, req.Amount)
	if err != nil {
		return nil, err
	}
	rechargeRecord.WithMonths(req.Months).
		WithDiscount(req.Discount).
		WithPayment(req.PaymentMethod, req.Notes).
		WithCollector(req.CollectedByType, req.CollectedByName)
	if collectionID != nil {
		rechargeRecord.WithCollection(*collectionID)
	}
	if err := s.recordRepo.Create(ctx, rechargeRecord); err != nil {
		return nil, err
	}

	customer.ApplyRecharge(newExpiry, now)
	if err := s.customerRepo.SaveWithLock(ctx, customer); err != nil {
		return nil, err
	}

	result := &RechargeResult{
		CustomerID:    customer.ID,
		NewExpiryDate: newExpiry,
		AmountPaid:    req.Amount,
		Months:        req.Months,
		ResellerID:    customer.ResellerID,
	}

	if customer.ResellerID != nil {
		s.chargeReseller(ctx, tenantID, customer, *customer.ResellerID, pkg, req, result)
	}

	paymentRecord, err := billing.NewBillingRecord(tenantID, customer.ID, billing.BillingRecordTypePayment, req.Amount)
	if err != nil {
		return nil, err
	}
	paymentRecord.WithPayment(req.PaymentMethod, req.Notes).
		WithCollector(req.CollectedByType, req.CollectedByName)
	if collectionID != nil {
		paymentRecord.WithCollection(*collectionID)
	}
	if err := s.recordRepo.Create(ctx, paymentRecord); err != nil {
		return nil, err
	}

	s.logger.Info("customer recharge settled",
		zap.String("customer_id", customer.ID.String()),
		zap.String("amount", req.Amount.String()),
		zap.Int("months", req.Months),
		zap.Bool("reseller_charged", result.ResellerCharged))
	return result, nil
}

// chargeReseller runs the commission calculator against the owner's live
// policy and posts the deduct to the wallet ledger. Failures are soft: the
// result is flagged and the customer recharge stands.
func (s *RechargeService) chargeReseller(
	ctx context.Context,
	tenantID uuid.UUID,
	customer *billing.Customer,
	resellerID uuid.UUID,
	pkg *billing.ServicePackage,
	req RechargeRequest,
	result *RechargeResult,
) {
	owner, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, resellerID)
	if err != nil {
		result.SkipReason = "reseller not found"
		s.logger.Warn("recharge settled without reseller charge",
			zap.String("customer_id", customer.ID.String()),
			zap.String("reseller_id", resellerID.String()),
			zap.Error(err))
		return
	}

	calc, err := reseller.CalculateCommission(pkg.Price, req.Months, owner.Policy)
	if err != nil {
		result.SkipReason = err.Error()
		s.logger.Warn("commission calculation failed",
			zap.String("reseller_id", resellerID.String()),
			zap.Error(err))
		return
	}
	result.Commission = calc.Commission
	result.DeductAmount = calc.DeductAmount

	if calc.DeductAmount.IsZero() {
		result.ResellerCharged = true
		return
	}

	description := fmt.Sprintf("Customer recharge: %s, %d month(s), commission %s",
		customer.Name, req.Months, calc.Commission.StringFixed(2))
	_, err = s.ledger.AppendEntry(ctx, tenantID, appreseller.EntryInput{
		ResellerID:     resellerID,
		Type:           reseller.TransactionTypeCustomerRecharge,
		Amount:         calc.DeductAmount.Neg(),
		CustomerID:     &customer.ID,
		ReferenceType:  "customer_recharge",
		ReferenceID:    customer.ID.String(),
		IdempotencyKey: req.IdempotencyKey,
		Description:    description,
		OperatorID:     req.OperatorID,
	})
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientBalance) {
			result.SkipReason = "insufficient reseller balance"
			s.logger.Warn("reseller balance below deduct, customer recharge kept",
				zap.String("reseller_id", resellerID.String()),
				zap.String("deduct", calc.DeductAmount.String()))
			return
		}
		if errors.Is(err, shared.ErrDuplicateRequest) {
			// A concurrent retry of the same key won the race past the
			// pre-flight check; its ledger row already holds this charge.
			result.ResellerCharged = true
			s.logger.Warn("ledger already holds this charge",
				zap.String("reseller_id", resellerID.String()),
				zap.String("idempotency_key", req.IdempotencyKey))
			return
		}
		result.SkipReason = err.Error()
		s.logger.Error("reseller ledger charge failed",
			zap.String("reseller_id", resellerID.String()),
			zap.Error(err))
		return
	}

	result.ResellerCharged = true
	s.recordCollection(ctx, tenantID, resellerID, owner, req.Amount)
}

const collectionCounterRetries = 3

// recordCollection bumps the owner's cumulative collections counter after a
// successful wallet charge. The counter is informational, so a conflicting
// writer triggers a reload and retry rather than failing the settlement.
func (s *RechargeService) recordCollection(ctx context.Context, tenantID, resellerID uuid.UUID, owner *reseller.Reseller, amount decimal.Decimal) {
	for attempt := 1; ; attempt++ {
		owner.RecordCollection(amount)
		err := s.resellerRepo.SaveWithLock(ctx, owner)
		if err == nil {
			return
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) || attempt >= collectionCounterRetries {
			s.logger.Warn("failed to update collection counter",
				zap.String("reseller_id", resellerID.String()),
				zap.Error(err))
			return
		}
		fresh, loadErr := s.resellerRepo.FindByIDForTenant(ctx, tenantID, resellerID)
		if loadErr != nil {
			s.logger.Warn("failed to update collection counter",
				zap.String("reseller_id", resellerID.String()),
				zap.Error(loadErr))
			return
		}
		owner = fresh
	}
}

// isAncestorOf walks the parent chain of childID looking for ancestorID.
// The hierarchy is at most three levels deep so the walk is bounded.
func (s *RechargeService) isAncestorOf(ctx context.Context, tenantID, ancestorID, childID uuid.UUID) (bool, error) {
	currentID := childID
	for depth := 0; depth < reseller.MaxLevel; depth++ {
		current, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, currentID)
		if err != nil {
			return false, err
		}
		if current.ParentID == nil {
			return false, nil
		}
		if *current.ParentID == ancestorID {
			return true, nil
		}
		currentID = *current.ParentID
	}
	return false, nil
}
