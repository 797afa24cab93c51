package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jkoster/folio-backend/internal/api/request"
	"github.com/jkoster/folio-backend/internal/apperrors"
	"github.com/jkoster/folio-backend/internal/model"
	"github.com/jkoster/folio-backend/internal/repository"
)

// PortfolioService handles portfolio-related business logic operations.
type PortfolioService struct {
	portfolioRepo *repository.PortfolioRepository
	historyRepo   *repository.HistoryRepository
}

// NewPortfolioService creates a new PortfolioService with the provided dependencies.
func NewPortfolioService(
	portfolioRepo *repository.PortfolioRepository,
	historyRepo *repository.HistoryRepository,
) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
		historyRepo:   historyRepo,
	}
}

// GetPortfolios retrieves portfolios, optionally including archived ones.
func (s *PortfolioService) GetPortfolios(includeArchived bool) ([]model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolios(model.PortfolioFilter{IncludeArchived: includeArchived})
}

// GetPortfolio retrieves a single portfolio by ID.
func (s *PortfolioService) GetPortfolio(portfolioID string) (model.Portfolio, error) {
	return s.portfolioRepo.GetPortfolioOnID(portfolioID)
}

// GetPortfoliosForRequest resolves a portfolio ID parameter: a specific
// portfolio when given, all active portfolios when empty.
func (s *PortfolioService) GetPortfoliosForRequest(portfolioID string) ([]model.Portfolio, error) {
	if portfolioID == "" {
		return s.portfolioRepo.GetPortfolios(model.PortfolioFilter{})
	}

	portfolio, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
	if err != nil {
		return nil, err
	}
	return []model.Portfolio{portfolio}, nil
}

// CreatePortfolio validates and persists a new portfolio.
func (s *PortfolioService) CreatePortfolio(req request.CreatePortfolioRequest) (*model.Portfolio, error) {
	if req.Name == "" {
		return nil, apperrors.ErrEmptyID
	}

	portfolio := &model.Portfolio{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
	}

	if err := s.portfolioRepo.InsertPortfolio(*portfolio); err != nil {
		return nil, fmt.Errorf("failed to create portfolio: %w", err)
	}

	return portfolio, nil
}

// UpdatePortfolio applies the provided fields to an existing portfolio.
// Archiving does not touch materialized history; archived portfolios keep
// their snapshots and stay part of batch materialization.
func (s *PortfolioService) UpdatePortfolio(portfolioID string, req request.UpdatePortfolioRequest) (*model.Portfolio, error) {
	portfolio, err := s.portfolioRepo.GetPortfolioOnID(portfolioID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		portfolio.Name = *req.Name
	}
	if req.Description != nil {
		portfolio.Description = *req.Description
	}
	if req.IsArchived != nil {
		portfolio.IsArchived = *req.IsArchived
	}

	if err := s.portfolioRepo.UpdatePortfolio(portfolio); err != nil {
		return nil, err
	}

	return &portfolio, nil
}

// DeletePortfolio removes a portfolio along with its materialized history.
// History is cleared explicitly; the schema cascade only applies when the
// connection has foreign keys enabled.
func (s *PortfolioService) DeletePortfolio(portfolioID string) error {
	if err := s.historyRepo.DeleteAll(portfolioID); err != nil {
		return err
	}

	return s.portfolioRepo.DeletePortfolio(portfolioID)
}

// AddFund assigns a fund to a portfolio.
func (s *PortfolioService) AddFund(req request.CreatePortfolioFundRequest) (*model.PortfolioFund, error) {
	if req.PortfolioID == "" || req.FundID == "" {
		return nil, apperrors.ErrEmptyID
	}

	if _, err := s.portfolioRepo.GetPortfolioOnID(req.PortfolioID); err != nil {
		return nil, err
	}

	pf := &model.PortfolioFund{
		ID:          uuid.New().String(),
		PortfolioID: req.PortfolioID,
		FundID:      req.FundID,
	}

	if err := s.portfolioRepo.InsertPortfolioFund(*pf); err != nil {
		return nil, fmt.Errorf("failed to assign fund to portfolio: %w", err)
	}

	return pf, nil
}

// GetPortfolioFunds lists the fund assignments of a portfolio.
func (s *PortfolioService) GetPortfolioFunds(portfolioID string) ([]model.PortfolioFund, error) {
	return s.portfolioRepo.GetPortfolioFundsOnPortfolioID(portfolioID)
}
