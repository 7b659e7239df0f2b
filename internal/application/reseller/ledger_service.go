package reseller

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// maxAppendRetries bounds transparent retries on lock conflicts before
	// the conflict is surfaced to the caller.
	maxAppendRetries = 3
)

// EntryInput describes one balance movement to append to the ledger.
// Amount is signed: credits positive, debits negative.
type EntryInput struct {
	ResellerID     uuid.UUID
	Type           reseller.TransactionType
	Amount         decimal.Decimal
	CustomerID     *uuid.UUID
	FromResellerID *uuid.UUID
	ToResellerID   *uuid.UUID
	ReferenceType  string
	ReferenceID    string
	IdempotencyKey string
	Description    string
	OperatorID     *uuid.UUID
}

// LedgerService owns every reseller balance mutation. All writes run through
// AppendEntry so the stored balance and the ledger can never diverge.
type LedgerService struct {
	txScope          TransactionScope
	transactionRepo  reseller.TransactionRepository
	resellerRepo     reseller.Repository
	idempotencyStore shared.IdempotencyStore
	idempotencyCfg   shared.IdempotencyConfig
	logger           *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	txScope TransactionScope,
	resellerRepo reseller.Repository,
	transactionRepo reseller.TransactionRepository,
	logger *zap.Logger,
) *LedgerService {
	return &LedgerService{
		txScope:         txScope,
		resellerRepo:    resellerRepo,
		transactionRepo: transactionRepo,
		idempotencyCfg:  shared.DefaultIdempotencyConfig(),
		logger:          logger,
	}
}

// SetIdempotencyStore enables fast-path duplicate detection in front of the
// unique index on idempotency keys.
func (s *LedgerService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotencyStore = store
	s.idempotencyCfg = cfg
}

// AppendEntry applies one balance movement as a single atomic unit: the
// reseller row is locked, the ledger row inserted and the balance updated in
// the same database transaction. Lock conflicts are retried up to
// maxAppendRetries times before ErrConcurrencyConflict is returned.
//
// Debits fail with ErrInsufficientBalance when the balance cannot cover
// them. A previously seen idempotency key fails with ErrDuplicateRequest
// and leaves the ledger untouched.
func (s *LedgerService) AppendEntry(ctx context.Context, tenantID uuid.UUID, input EntryInput) (*TransactionResponse, error) {
	if input.Amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be zero")
	}
	if !input.Type.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid wallet transaction type")
	}

	if input.IdempotencyKey != "" {
		if err := s.checkIdempotency(ctx, tenantID, input.IdempotencyKey); err != nil {
			return nil, err
		}
	}

	var entry *reseller.WalletTransaction
	var err error
	for attempt := 1; attempt <= maxAppendRetries; attempt++ {
		entry, err = s.appendOnce(ctx, tenantID, input)
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) {
			return nil, err
		}
		s.logger.Warn("ledger append conflict, retrying",
			zap.String("reseller_id", input.ResellerID.String()),
			zap.String("type", input.Type.String()),
			zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, shared.ErrConcurrencyConflict
	}

	if input.IdempotencyKey != "" && s.idempotencyStore != nil {
		if _, markErr := s.idempotencyStore.MarkProcessed(ctx, s.idempotencyKeyFor(tenantID, input.IdempotencyKey), s.idempotencyCfg.TTL); markErr != nil {
			s.logger.Warn("failed to mark idempotency key", zap.Error(markErr))
		}
	}

	s.logger.Info("ledger entry appended",
		zap.String("reseller_id", input.ResellerID.String()),
		zap.String("type", input.Type.String()),
		zap.String("amount", input.Amount.String()),
		zap.String("balance_after", entry.BalanceAfter.String()))

	response := ToTransactionResponse(entry)
	return &response, nil
}

// appendOnce performs one attempt at the atomic lock-insert-update sequence.
func (s *LedgerService) appendOnce(ctx context.Context, tenantID uuid.UUID, input EntryInput) (*reseller.WalletTransaction, error) {
	var entry *reseller.WalletTransaction

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		account, err := repos.ResellerRepo().FindByIDForUpdate(ctx, tenantID, input.ResellerID)
		if err != nil {
			return err
		}
		if !account.IsActive {
			return shared.NewDomainError("INVALID_STATE", "Reseller account is deactivated")
		}

		if input.Amount.IsNegative() && account.Balance.Add(input.Amount).IsNegative() {
			return shared.ErrInsufficientBalance
		}

		row, err := reseller.NewWalletTransaction(tenantID, input.ResellerID, input.Type, input.Amount, account.Balance)
		if err != nil {
			return err
		}
		if input.CustomerID != nil {
			row.WithCustomer(*input.CustomerID)
		}
		if input.FromResellerID != nil && input.ToResellerID != nil {
			row.WithCounterparty(*input.FromResellerID, *input.ToResellerID)
		}
		if input.ReferenceType != "" && input.ReferenceID != "" {
			row.WithReference(input.ReferenceType, input.ReferenceID)
		}
		if input.IdempotencyKey != "" {
			row.WithIdempotencyKey(input.IdempotencyKey)
		}
		if input.Description != "" {
			row.WithDescription(input.Description)
		}
		if input.OperatorID != nil {
			row.WithOperator(*input.OperatorID)
		}

		if err := repos.TransactionRepo().Create(ctx, row); err != nil {
			return err
		}

		account.Balance = row.BalanceAfter
		if err := repos.ResellerRepo().UpdateBalance(ctx, account); err != nil {
			return err
		}

		entry = row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CheckIdempotency reports ErrDuplicateRequest when the key has already
// been applied. Settlement callers run it before writing any customer
// state so a retried request is rejected up front instead of partially
// reapplied.
func (s *LedgerService) CheckIdempotency(ctx context.Context, tenantID uuid.UUID, key string) error {
	if key == "" {
		return nil
	}
	return s.checkIdempotency(ctx, tenantID, key)
}

// checkIdempotency rejects keys already seen, first through the fast store
// and then through the ledger itself.
func (s *LedgerService) checkIdempotency(ctx context.Context, tenantID uuid.UUID, key string) error {
	if s.idempotencyStore != nil && s.idempotencyCfg.Enabled {
		seen, err := s.idempotencyStore.IsProcessed(ctx, s.idempotencyKeyFor(tenantID, key))
		if err != nil {
			s.logger.Warn("idempotency store unavailable, falling back to ledger lookup", zap.Error(err))
		} else if seen {
			return shared.ErrDuplicateRequest
		}
	}

	existing, err := s.transactionRepo.FindByIdempotencyKey(ctx, tenantID, key)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if existing != nil {
		return shared.ErrDuplicateRequest
	}
	return nil
}

func (s *LedgerService) idempotencyKeyFor(tenantID uuid.UUID, key string) string {
	return fmt.Sprintf("ledger:%s:%s", tenantID, key)
}

// Deposit credits a reseller wallet from the platform side
func (s *LedgerService) Deposit(ctx context.Context, tenantID, resellerID uuid.UUID, req DepositRequest) (*TransactionResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Deposit amount must be positive")
	}
	return s.AppendEntry(ctx, tenantID, EntryInput{
		ResellerID:     resellerID,
		Type:           reseller.TransactionTypeDeposit,
		Amount:         req.Amount,
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
		OperatorID:     req.OperatorID,
	})
}

// Withdraw debits a reseller wallet from the platform side
func (s *LedgerService) Withdraw(ctx context.Context, tenantID, resellerID uuid.UUID, req WithdrawRequest) (*TransactionResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Withdrawal amount must be positive")
	}
	return s.AppendEntry(ctx, tenantID, EntryInput{
		ResellerID:     resellerID,
		Type:           reseller.TransactionTypeWithdrawal,
		Amount:         req.Amount.Neg(),
		Description:    req.Description,
		IdempotencyKey: req.IdempotencyKey,
		OperatorID:     req.OperatorID,
	})
}

// GetTransactions returns a reseller's ledger history newest-first
func (s *LedgerService) GetTransactions(ctx context.Context, tenantID, resellerID uuid.UUID, filter TransactionListFilter) (*shared.Paginated[TransactionResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := reseller.TransactionFilter{
		DateFrom: filter.DateFrom,
		DateTo:   filter.DateTo,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	if filter.Type != "" {
		txType := reseller.TransactionType(filter.Type)
		if !txType.IsValid() {
			return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid wallet transaction type")
		}
		domainFilter.Type = &txType
	}

	rows, total, err := s.transactionRepo.FindByResellerID(ctx, tenantID, resellerID, domainFilter)
	if err != nil {
		return nil, err
	}

	items := make([]TransactionResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, ToTransactionResponse(row))
	}
	result := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &result, nil
}

// GetBalanceSummary aggregates a reseller's ledger by transaction type and
// returns it alongside the live balance.
func (s *LedgerService) GetBalanceSummary(ctx context.Context, tenantID, resellerID uuid.UUID) (*BalanceSummaryResponse, error) {
	account, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, resellerID)
	if err != nil {
		return nil, err
	}

	summary := &BalanceSummaryResponse{
		ResellerID:       account.ID,
		Balance:          account.Balance,
		TotalCollections: account.TotalCollections,
		TotalsByType:     make(map[string]decimal.Decimal),
	}

	for _, txType := range []reseller.TransactionType{
		reseller.TransactionTypeRecharge,
		reseller.TransactionTypeDeposit,
		reseller.TransactionTypeWithdrawal,
		reseller.TransactionTypeCustomerRecharge,
		reseller.TransactionTypeCommission,
		reseller.TransactionTypeTransferIn,
		reseller.TransactionTypeTransferOut,
		reseller.TransactionTypeRefund,
		reseller.TransactionTypeDeduction,
	} {
		sum, err := s.transactionRepo.SumByResellerIDAndType(ctx, tenantID, resellerID, txType)
		if err != nil {
			return nil, err
		}
		if !sum.IsZero() {
			summary.TotalsByType[txType.String()] = sum
		}
	}
	return summary, nil
}

// VerifyLedger replays a reseller's latest ledger row against the stored
// balance. Used by reconciliation tooling and tests.
func (s *LedgerService) VerifyLedger(ctx context.Context, tenantID, resellerID uuid.UUID) (bool, error) {
	account, err := s.resellerRepo.FindByIDForTenant(ctx, tenantID, resellerID)
	if err != nil {
		return false, err
	}
	latest, err := s.transactionRepo.GetLatestByResellerID(ctx, tenantID, resellerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return account.Balance.IsZero(), nil
		}
		return false, err
	}
	return latest.BalanceAfter.Equal(account.Balance), nil
}
