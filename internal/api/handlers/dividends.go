package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jkoster/folio-backend/internal/api/request"
	"github.com/jkoster/folio-backend/internal/api/response"
	"github.com/jkoster/folio-backend/internal/service"
)

// DividendHandler handles dividend-related HTTP requests
type DividendHandler struct {
	dividendService *service.DividendService
}

// NewDividendHandler creates a new DividendHandler
func NewDividendHandler(dividendService *service.DividendService) *DividendHandler {
	return &DividendHandler{
		dividendService: dividendService,
	}
}

// Dividend retrieves a single dividend by ID.
func (h *DividendHandler) Dividend(w http.ResponseWriter, r *http.Request) {
	dividend, err := h.dividendService.GetDividend(chi.URLParam(r, "id"))
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to retrieve dividend", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, dividend)
}

// CreateDividend records a new dividend anchored on its ex-dividend date.
func (h *DividendHandler) CreateDividend(w http.ResponseWriter, r *http.Request) {
	var req request.CreateDividendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	dividend, err := h.dividendService.CreateDividend(r.Context(), req)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to create dividend", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, dividend)
}

// UpdateDividend updates an existing dividend.
func (h *DividendHandler) UpdateDividend(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateDividendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	dividend, err := h.dividendService.UpdateDividend(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to update dividend", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, dividend)
}

// DeleteDividend removes a dividend.
func (h *DividendHandler) DeleteDividend(w http.ResponseWriter, r *http.Request) {
	if err := h.dividendService.DeleteDividend(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.RespondError(w, statusForError(err), "failed to delete dividend", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
