package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jkoster/folio-backend/internal/api/request"
	"github.com/jkoster/folio-backend/internal/apperrors"
	"github.com/jkoster/folio-backend/internal/model"
	"github.com/jkoster/folio-backend/internal/repository"
)

// TransactionService handles transaction-related business logic operations.
//
// Every mutation commits its own write first and then fires the history
// invalidator. That call is fire-and-forget: its failure is logged and never
// rolls back or fails the mutation itself.
type TransactionService struct {
	transactionRepo *repository.TransactionRepository
	invalidator     HistoryInvalidator
}

// NewTransactionService creates a new TransactionService with the provided dependencies.
func NewTransactionService(
	transactionRepo *repository.TransactionRepository,
	invalidator HistoryInvalidator,
) *TransactionService {
	return &TransactionService{
		transactionRepo: transactionRepo,
		invalidator:     invalidator,
	}
}

// GetTransaction retrieves a single transaction by its ID.
func (s *TransactionService) GetTransaction(transactionID string) (model.Transaction, error) {
	return s.transactionRepo.GetTransaction(transactionID)
}

// CreateTransaction validates and persists a new transaction, then
// invalidates derived history from the transaction date forward.
func (s *TransactionService) CreateTransaction(ctx context.Context, req request.CreateTransactionRequest) (*model.Transaction, error) {
	transactionDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction date: %w", err)
	}

	if err := validateTransactionFields(req.Type, req.Shares, req.CostPerShare); err != nil {
		return nil, err
	}

	transaction := &model.Transaction{
		ID:              uuid.New().String(),
		PortfolioFundID: req.PortfolioFundID,
		Date:            transactionDate,
		Type:            req.Type,
		Shares:          req.Shares,
		CostPerShare:    req.CostPerShare,
	}

	if err := s.transactionRepo.InsertTransaction(transaction); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	logInvalidationFailure("transaction create",
		s.invalidator.InvalidateFromTransaction(ctx, *transaction))

	return transaction, nil
}

// UpdateTransaction applies the provided fields to an existing transaction.
// Both the old and new transaction dates are invalidated: moving a
// transaction backward or forward in time changes every day from the
// earlier of the two dates onward.
func (s *TransactionService) UpdateTransaction(ctx context.Context, transactionID string, req request.UpdateTransactionRequest) (*model.Transaction, error) {
	existing, err := s.transactionRepo.GetTransaction(transactionID)
	if err != nil {
		return nil, err
	}

	updated := existing
	if req.Date != nil {
		updated.Date, err = time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return nil, fmt.Errorf("failed to parse transaction date: %w", err)
		}
	}
	if req.Type != nil {
		updated.Type = *req.Type
	}
	if req.Shares != nil {
		updated.Shares = *req.Shares
	}
	if req.CostPerShare != nil {
		updated.CostPerShare = *req.CostPerShare
	}

	if err := validateTransactionFields(updated.Type, updated.Shares, updated.CostPerShare); err != nil {
		return nil, err
	}

	if err := s.transactionRepo.UpdateTransaction(&updated); err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	logInvalidationFailure("transaction update",
		s.invalidator.InvalidateFromTransaction(ctx, existing))
	logInvalidationFailure("transaction update",
		s.invalidator.InvalidateFromTransaction(ctx, updated))

	return &updated, nil
}

// DeleteTransaction removes a transaction. The pre-deletion snapshot anchors
// the invalidation, since the portfolio and date are gone afterwards.
func (s *TransactionService) DeleteTransaction(ctx context.Context, transactionID string) error {
	existing, err := s.transactionRepo.GetTransaction(transactionID)
	if err != nil {
		return err
	}

	if err := s.transactionRepo.DeleteTransaction(transactionID); err != nil {
		return err
	}

	logInvalidationFailure("transaction delete",
		s.invalidator.InvalidateFromTransaction(ctx, existing))

	return nil
}

func validateTransactionFields(transactionType string, shares, costPerShare float64) error {
	switch transactionType {
	case model.TransactionBuy, model.TransactionSell, model.TransactionFee:
	default:
		return apperrors.ErrInvalidTransactionType
	}

	if shares < 0 || costPerShare < 0 {
		return apperrors.ErrNegativeAmount
	}

	return nil
}
