package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jkoster/folio-backend/internal/api/request"
	"github.com/jkoster/folio-backend/internal/api/response"
	"github.com/jkoster/folio-backend/internal/service"
)

// PortfolioHandler handles portfolio-related HTTP requests
type PortfolioHandler struct {
	portfolioService *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler
func NewPortfolioHandler(portfolioService *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

// Portfolios lists portfolios; ?include_archived=true includes archived ones.
func (h *PortfolioHandler) Portfolios(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("include_archived") == "true"

	portfolios, err := h.portfolioService.GetPortfolios(includeArchived)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to retrieve portfolios", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolios)
}

// Portfolio retrieves a single portfolio by ID.
func (h *PortfolioHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	portfolio, err := h.portfolioService.GetPortfolio(chi.URLParam(r, "id"))
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to retrieve portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolio)
}

// CreatePortfolio creates a new portfolio.
func (h *PortfolioHandler) CreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	portfolio, err := h.portfolioService.CreatePortfolio(req)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to create portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, portfolio)
}

// UpdatePortfolio updates portfolio fields, including the archived flag.
func (h *PortfolioHandler) UpdatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req request.UpdatePortfolioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	portfolio, err := h.portfolioService.UpdatePortfolio(chi.URLParam(r, "id"), req)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to update portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, portfolio)
}

// DeletePortfolio removes a portfolio and its materialized history.
func (h *PortfolioHandler) DeletePortfolio(w http.ResponseWriter, r *http.Request) {
	if err := h.portfolioService.DeletePortfolio(chi.URLParam(r, "id")); err != nil {
		response.RespondError(w, statusForError(err), "failed to delete portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// AddFund assigns a fund to a portfolio.
func (h *PortfolioHandler) AddFund(w http.ResponseWriter, r *http.Request) {
	var req request.CreatePortfolioFundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	req.PortfolioID = chi.URLParam(r, "id")

	pf, err := h.portfolioService.AddFund(req)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to assign fund to portfolio", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, pf)
}

// PortfolioFunds lists the fund assignments of a portfolio.
func (h *PortfolioHandler) PortfolioFunds(w http.ResponseWriter, r *http.Request) {
	pfs, err := h.portfolioService.GetPortfolioFunds(chi.URLParam(r, "id"))
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to retrieve portfolio funds", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, pfs)
}
