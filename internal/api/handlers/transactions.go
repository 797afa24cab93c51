package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jkoster/folio-backend/internal/api/request"
	"github.com/jkoster/folio-backend/internal/api/response"
	"github.com/jkoster/folio-backend/internal/service"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// Transaction retrieves a single transaction by ID.
func (h *TransactionHandler) Transaction(w http.ResponseWriter, r *http.Request) {
	transaction, err := h.transactionService.GetTransaction(chi.URLParam(r, "id"))
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to retrieve transaction", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// CreateTransaction records a new transaction. The write commits before
// history invalidation runs, so a failed invalidation never loses the entry.
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req request.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	transaction, err := h.transactionService.CreateTransaction(r.Context(), req)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to create transaction", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusCreated, transaction)
}

// UpdateTransaction updates an existing transaction.
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to update transaction", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, transaction)
}

// DeleteTransaction removes a transaction.
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := h.transactionService.DeleteTransaction(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.RespondError(w, statusForError(err), "failed to delete transaction", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}
