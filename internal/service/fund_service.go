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
	"github.com/jkoster/folio-backend/internal/secrets"
)

// Settings key under which the encrypted provider token is stored.
const settingPriceProviderToken = "price_provider_token"

// FundService handles fund-related business logic operations, including
// price bookkeeping. A price write is an invalidation event: correcting one
// fund's price on one day ripples into every portfolio holding that fund.
type FundService struct {
	fundRepo    *repository.FundRepository
	settingRepo *repository.SettingRepository
	invalidator HistoryInvalidator
	secretBox   *secrets.Box
}

// NewFundService creates a new FundService with the provided dependencies.
// secretBox may be nil, which disables provider-token storage.
func NewFundService(
	fundRepo *repository.FundRepository,
	settingRepo *repository.SettingRepository,
	invalidator HistoryInvalidator,
	secretBox *secrets.Box,
) *FundService {
	return &FundService{
		fundRepo:    fundRepo,
		settingRepo: settingRepo,
		invalidator: invalidator,
		secretBox:   secretBox,
	}
}

// GetFunds retrieves all funds.
func (s *FundService) GetFunds() ([]model.Fund, error) {
	return s.fundRepo.GetFunds()
}

// GetFund retrieves a single fund by ID.
func (s *FundService) GetFund(fundID string) (model.Fund, error) {
	return s.fundRepo.GetFundOnID(fundID)
}

// CreateFund validates and persists a new fund.
func (s *FundService) CreateFund(req request.CreateFundRequest) (*model.Fund, error) {
	if req.Name == "" || req.Isin == "" || req.Currency == "" {
		return nil, apperrors.ErrEmptyID
	}

	fund := &model.Fund{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Isin:     req.Isin,
		Symbol:   req.Symbol,
		Currency: req.Currency,
	}

	if err := s.fundRepo.InsertFund(*fund); err != nil {
		return nil, fmt.Errorf("failed to create fund: %w", err)
	}

	return fund, nil
}

// SetPrice records or corrects the fund's price for one day, then fans the
// invalidation out to every portfolio holding the fund.
func (s *FundService) SetPrice(ctx context.Context, fundID string, req request.SetPriceRequest) error {
	if _, err := s.fundRepo.GetFundOnID(fundID); err != nil {
		return err
	}

	priceDate, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return fmt.Errorf("failed to parse price date: %w", err)
	}
	if req.Price < 0 {
		return apperrors.ErrNegativeAmount
	}

	if err := s.fundRepo.UpsertPrice(fundID, priceDate, req.Price); err != nil {
		return err
	}

	logInvalidationFailure("price update",
		s.invalidator.InvalidateFromPriceUpdate(ctx, fundID, priceDate))

	return nil
}

// SetProviderToken encrypts and stores the market-data provider API token.
func (s *FundService) SetProviderToken(token string) error {
	if s.secretBox == nil {
		return fmt.Errorf("provider token storage is not configured")
	}

	encrypted, err := s.secretBox.Encrypt(token)
	if err != nil {
		return err
	}

	return s.settingRepo.Set(settingPriceProviderToken, encrypted)
}

// ProviderToken decrypts and returns the stored provider API token.
func (s *FundService) ProviderToken() (string, error) {
	if s.secretBox == nil {
		return "", fmt.Errorf("provider token storage is not configured")
	}

	encrypted, err := s.settingRepo.Get(settingPriceProviderToken)
	if err != nil {
		return "", err
	}

	return s.secretBox.Decrypt(encrypted)
}
