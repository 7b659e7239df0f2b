package reseller

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/ispbill/backend/internal/domain/reseller"
	"github.com/ispbill/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// TransferService moves balance between two reseller wallets. The double
// entry (transfer_out on the source, transfer_in on the destination) is
// written in one database transaction so the global balance sum is
// preserved and nothing is written on failure.
type TransferService struct {
	txScope          TransactionScope
	transactionRepo  reseller.TransactionRepository
	idempotencyStore shared.IdempotencyStore
	idempotencyCfg   shared.IdempotencyConfig
	logger           *zap.Logger
}

// NewTransferService creates a new TransferService
func NewTransferService(
	txScope TransactionScope,
	transactionRepo reseller.TransactionRepository,
	logger *zap.Logger,
) *TransferService {
	return &TransferService{
		txScope:         txScope,
		transactionRepo: transactionRepo,
		idempotencyCfg:  shared.DefaultIdempotencyConfig(),
		logger:          logger,
	}
}

// SetIdempotencyStore enables fast-path duplicate detection for transfers.
func (s *TransferService) SetIdempotencyStore(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) {
	s.idempotencyStore = store
	s.idempotencyCfg = cfg
}

// TransferBalance moves amount from one reseller to another. Both accounts
// must exist, be active and belong to the tenant; the source must cover the
// amount. Rows are locked in ascending id order so two opposing transfers
// cannot deadlock.
func (s *TransferService) TransferBalance(ctx context.Context, tenantID uuid.UUID, req TransferRequest) (*TransferResponse, error) {
	if !req.Amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transfer amount must be positive")
	}
	if req.FromResellerID == req.ToResellerID {
		return nil, shared.NewDomainError("INVALID_TRANSFER", "Cannot transfer to the same account")
	}

	if req.IdempotencyKey != "" {
		if err := s.checkIdempotency(ctx, tenantID, req.IdempotencyKey); err != nil {
			return nil, err
		}
	}

	var result *TransferResponse
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		from, to, err := lockPair(ctx, repos.ResellerRepo(), tenantID, req.FromResellerID, req.ToResellerID)
		if err != nil {
			return err
		}
		if !from.IsActive || !to.IsActive {
			return shared.NewDomainError("INVALID_STATE", "Both accounts must be active")
		}
		if from.Balance.LessThan(req.Amount) {
			return shared.ErrInsufficientBalance
		}

		description := req.Description
		if description == "" {
			description = fmt.Sprintf("Balance transfer from %s to %s", from.Name, to.Name)
		}

		outRow, err := reseller.NewWalletTransaction(tenantID, from.ID,
			reseller.TransactionTypeTransferOut, req.Amount.Neg(), from.Balance)
		if err != nil {
			return err
		}
		outRow.WithCounterparty(from.ID, to.ID).WithDescription(description)

		inRow, err := reseller.NewWalletTransaction(tenantID, to.ID,
			reseller.TransactionTypeTransferIn, req.Amount, to.Balance)
		if err != nil {
			return err
		}
		inRow.WithCounterparty(from.ID, to.ID).WithDescription(description)

		if req.IdempotencyKey != "" {
			outRow.WithIdempotencyKey(req.IdempotencyKey)
		}
		if req.OperatorID != nil {
			outRow.WithOperator(*req.OperatorID)
			inRow.WithOperator(*req.OperatorID)
		}

		if err := repos.TransactionRepo().Create(ctx, outRow); err != nil {
			return err
		}
		if err := repos.TransactionRepo().Create(ctx, inRow); err != nil {
			return err
		}

		from.Balance = outRow.BalanceAfter
		to.Balance = inRow.BalanceAfter
		if err := repos.ResellerRepo().UpdateBalance(ctx, from); err != nil {
			return err
		}
		if err := repos.ResellerRepo().UpdateBalance(ctx, to); err != nil {
			return err
		}

		result = &TransferResponse{
			FromResellerID: from.ID,
			ToResellerID:   to.ID,
			Amount:         req.Amount,
			FromBalance:    from.Balance,
			ToBalance:      to.Balance,
			OutEntry:       ToTransactionResponse(outRow),
			InEntry:        ToTransactionResponse(inRow),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idempotencyStore != nil {
		key := fmt.Sprintf("transfer:%s:%s", tenantID, req.IdempotencyKey)
		if _, markErr := s.idempotencyStore.MarkProcessed(ctx, key, s.idempotencyCfg.TTL); markErr != nil {
			s.logger.Warn("failed to mark idempotency key", zap.Error(markErr))
		}
	}

	s.logger.Info("balance transferred",
		zap.String("from", req.FromResellerID.String()),
		zap.String("to", req.ToResellerID.String()),
		zap.String("amount", req.Amount.String()))
	return result, nil
}

func (s *TransferService) checkIdempotency(ctx context.Context, tenantID uuid.UUID, key string) error {
	if s.idempotencyStore != nil && s.idempotencyCfg.Enabled {
		seen, err := s.idempotencyStore.IsProcessed(ctx, fmt.Sprintf("transfer:%s:%s", tenantID, key))
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

// lockPair locks two reseller rows in ascending id order
func lockPair(ctx context.Context, repo reseller.Repository, tenantID, fromID, toID uuid.UUID) (from, to *reseller.Reseller, err error) {
	firstID, secondID := fromID, toID
	if bytes.Compare(toID[:], fromID[:]) < 0 {
		firstID, secondID = toID, fromID
	}

	first, err := repo.FindByIDForUpdate(ctx, tenantID, firstID)
	if err != nil {
		return nil, nil, err
	}
	second, err := repo.FindByIDForUpdate(ctx, tenantID, secondID)
	if err != nil {
		return nil, nil, err
	}

	if first.ID == fromID {
		return first, second, nil
	}
	return second, first, nil
}
