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

// DividendService handles dividend-related business logic operations.
// Mutations follow the same commit-then-invalidate contract as transactions,
// anchored on the ex-dividend date.
type DividendService struct {
	dividendRepo  *repository.DividendRepository
	portfolioRepo *repository.PortfolioRepository
	invalidator   HistoryInvalidator
}

// NewDividendService creates a new DividendService with the provided dependencies.
func NewDividendService(
	dividendRepo *repository.DividendRepository,
	portfolioRepo *repository.PortfolioRepository,
	invalidator HistoryInvalidator,
) *DividendService {
	return &DividendService{
		dividendRepo:  dividendRepo,
		portfolioRepo: portfolioRepo,
		invalidator:   invalidator,
	}
}

// GetDividend retrieves a single dividend by its ID.
func (s *DividendService) GetDividend(dividendID string) (model.Dividend, error) {
	return s.dividendRepo.GetDividend(dividendID)
}

// CreateDividend validates and persists a new dividend, then invalidates
// derived history from the ex-dividend date forward. The total amount is
// always recomputed from shares and per-share amount.
func (s *DividendService) CreateDividend(ctx context.Context, req request.CreateDividendRequest) (*model.Dividend, error) {
	recordDate, err := time.Parse("2006-01-02", req.RecordDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse record date: %w", err)
	}
	exDate, err := time.Parse("2006-01-02", req.ExDividendDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ex-dividend date: %w", err)
	}

	if req.SharesOwned < 0 || req.DividendPerShare < 0 {
		return nil, apperrors.ErrNegativeAmount
	}

	pf, err := s.portfolioRepo.GetPortfolioFund(req.PortfolioFundID)
	if err != nil {
		return nil, err
	}

	dividend := &model.Dividend{
		ID:               uuid.New().String(),
		PortfolioFundID:  pf.ID,
		FundID:           pf.FundID,
		RecordDate:       recordDate,
		ExDividendDate:   exDate,
		SharesOwned:      req.SharesOwned,
		DividendPerShare: req.DividendPerShare,
		TotalAmount:      req.SharesOwned * req.DividendPerShare,
	}

	if err := s.dividendRepo.InsertDividend(dividend); err != nil {
		return nil, fmt.Errorf("failed to create dividend: %w", err)
	}

	logInvalidationFailure("dividend create",
		s.invalidator.InvalidateFromDividend(ctx, nil, dividend))

	return dividend, nil
}

// UpdateDividend applies the provided fields to an existing dividend.
// When the update moves the ex-dividend date, the invalidator receives both
// the old and new state so invalidation starts at the earlier of the two
// dates; a date shift must not leave a stale hole between them.
func (s *DividendService) UpdateDividend(ctx context.Context, dividendID string, req request.UpdateDividendRequest) (*model.Dividend, error) {
	existing, err := s.dividendRepo.GetDividend(dividendID)
	if err != nil {
		return nil, err
	}

	updated := existing
	if req.RecordDate != nil {
		updated.RecordDate, err = time.Parse("2006-01-02", *req.RecordDate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse record date: %w", err)
		}
	}
	if req.ExDividendDate != nil {
		updated.ExDividendDate, err = time.Parse("2006-01-02", *req.ExDividendDate)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ex-dividend date: %w", err)
		}
	}
	if req.SharesOwned != nil {
		updated.SharesOwned = *req.SharesOwned
	}
	if req.DividendPerShare != nil {
		updated.DividendPerShare = *req.DividendPerShare
	}

	if updated.SharesOwned < 0 || updated.DividendPerShare < 0 {
		return nil, apperrors.ErrNegativeAmount
	}
	updated.TotalAmount = updated.SharesOwned * updated.DividendPerShare

	if err := s.dividendRepo.UpdateDividend(&updated); err != nil {
		return nil, fmt.Errorf("failed to update dividend: %w", err)
	}

	logInvalidationFailure("dividend update",
		s.invalidator.InvalidateFromDividend(ctx, &existing, &updated))

	return &updated, nil
}

// DeleteDividend removes a dividend, invalidating from the pre-deletion
// ex-dividend date forward.
func (s *DividendService) DeleteDividend(ctx context.Context, dividendID string) error {
	existing, err := s.dividendRepo.GetDividend(dividendID)
	if err != nil {
		return err
	}

	if err := s.dividendRepo.DeleteDividend(dividendID); err != nil {
		return err
	}

	logInvalidationFailure("dividend delete",
		s.invalidator.InvalidateFromDividend(ctx, &existing, nil))

	return nil
}
