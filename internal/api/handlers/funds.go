package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jkoster/folio-backend/internal/api/request"
	"github.com/jkoster/folio-backend/internal/api/response"
	"github.com/jkoster/folio-backend/internal/service"
)

// FundHandler handles fund-related HTTP requests
type FundHandler struct {
	fundService *service.FundService
}

// NewFundHandler creates a new FundHandler
func NewFundHandler(fundService *service.FundService) *FundHandler {
	return &FundHandler{
		fundService: fundService,
	}
}

// Funds lists all funds.
func (h *FundHandler) Funds(w http.ResponseWriter, r *http.Request) {
	funds, err := h.fundService.GetFunds()
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to retrieve funds", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, funds)
}

// Fund retrieves a single fund by ID.
func (h *FundHandler) Fund(w http.ResponseWriter, r *http.Request) {
	fund, err := h.fundService.GetFund(chi.URLParam(r, "id"))
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to retrieve fund", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, fund)
}

// CreateFund creates a new fund.
func (h *FundHandler) CreateFund(w http.ResponseWriter, r *http.Request) {
	var req request.CreateFundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	fund, err := h.fundService.CreateFund(req)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to create fund", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, fund)
}

// SetPrice records or corrects the fund's price for one day. The resulting
// invalidation fans out to every portfolio holding the fund.
func (h *FundHandler) SetPrice(w http.ResponseWriter, r *http.Request) {
	var req request.SetPriceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.fundService.SetPrice(r.Context(), chi.URLParam(r, "id"), req); err != nil {
		response.RespondError(w, statusForError(err), "failed to set fund price", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// SetProviderToken stores the market-data provider API token, encrypted.
func (h *FundHandler) SetProviderToken(w http.ResponseWriter, r *http.Request) {
	var req request.SetProviderTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.fundService.SetProviderToken(req.Token); err != nil {
		response.RespondError(w, statusForError(err), "failed to store provider token", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
