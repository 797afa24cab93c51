package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jkoster/folio-backend/internal/api/request"
	"github.com/jkoster/folio-backend/internal/api/response"
	"github.com/jkoster/folio-backend/internal/model"
	"github.com/jkoster/folio-backend/internal/service"
)

// HistoryHandler handles portfolio history HTTP requests: the query path
// and the operational materialize/invalidate/stats endpoints.
type HistoryHandler struct {
	historyService   *service.HistoryService
	portfolioService *service.PortfolioService
	materializer     *service.Materializer
	invalidator      *service.Invalidator
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(
	historyService *service.HistoryService,
	portfolioService *service.PortfolioService,
	materializer *service.Materializer,
	invalidator *service.Invalidator,
) *HistoryHandler {
	return &HistoryHandler{
		historyService:   historyService,
		portfolioService: portfolioService,
		materializer:     materializer,
		invalidator:      invalidator,
	}
}

// HistoryDayResponse groups one day's records for the chart-oriented client:
// one entry per date with all requested portfolios on it.
type HistoryDayResponse struct {
	Date       string                `json:"date"`
	Portfolios []model.HistoryRecord `json:"portfolios"`
}

// PortfolioHistory serves GET /api/portfolio/history.
//
// Query parameters: portfolio_id (optional, all active portfolios when
// absent), start_date, end_date (default: one year ago through today),
// use_materialized (default true; "false" forces the on-demand calculation,
// for consistency-critical reads).
func (h *HistoryHandler) PortfolioHistory(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()

	startDate, err := parseDateParam(r, "start_date", now.AddDate(-1, 0, 0))
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid start_date", err.Error())
		return
	}
	endDate, err := parseDateParam(r, "end_date", now)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid end_date", err.Error())
		return
	}
	if startDate.After(endDate) {
		response.RespondError(w, http.StatusBadRequest, "invalid date range", "start_date is after end_date")
		return
	}

	portfolios, err := h.portfolioService.GetPortfoliosForRequest(r.URL.Query().Get("portfolio_id"))
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to resolve portfolios", err.Error())
		return
	}

	portfolioIDs := make([]string, len(portfolios))
	for i, p := range portfolios {
		portfolioIDs[i] = p.ID
	}

	useMaterialized := r.URL.Query().Get("use_materialized") != "false"

	records, err := h.historyService.GetPortfolioHistory(portfolioIDs, startDate, endDate, useMaterialized)
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to get portfolio history", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, groupByDate(records))
}

// groupByDate folds the flat record list into one response entry per date.
// Records arrive ordered by date, then portfolio.
func groupByDate(records []model.HistoryRecord) []HistoryDayResponse {
	grouped := []HistoryDayResponse{}
	for _, record := range records {
		key := record.Date.Format("2006-01-02")
		if len(grouped) == 0 || grouped[len(grouped)-1].Date != key {
			grouped = append(grouped, HistoryDayResponse{Date: key})
		}
		last := &grouped[len(grouped)-1]
		last.Portfolios = append(last.Portfolios, record)
	}
	return grouped
}

// Materialize serves POST /api/history/materialize: an explicit backfill of
// one portfolio or all of them.
func (h *HistoryHandler) Materialize(w http.ResponseWriter, r *http.Request) {
	var req request.MaterializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var start, end *time.Time
	if req.StartDate != "" {
		parsed, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid startDate", err.Error())
			return
		}
		start = &parsed
	}
	if req.EndDate != "" {
		parsed, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid endDate", err.Error())
			return
		}
		end = &parsed
	}

	var summary model.MaterializeSummary
	var err error
	if req.PortfolioID == "" {
		summary, err = h.materializer.MaterializeAll(r.Context(), req.ForceRecalculate)
	} else {
		summary, err = h.materializer.MaterializePortfolio(r.Context(), req.PortfolioID, start, end, req.ForceRecalculate)
	}
	if err != nil {
		response.RespondError(w, statusForError(err), "materialization failed", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, summary)
}

// Invalidate serves POST /api/history/invalidate: a manual invalidation
// trigger for operational use.
func (h *HistoryHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	var req request.InvalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	fromDate, err := time.Parse("2006-01-02", req.FromDate)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid fromDate", err.Error())
		return
	}

	if _, err := h.portfolioService.GetPortfolio(req.PortfolioID); err != nil {
		response.RespondError(w, statusForError(err), "failed to resolve portfolio", err.Error())
		return
	}

	if err := h.invalidator.Invalidate(r.Context(), req.PortfolioID, fromDate, req.Recalculate); err != nil {
		response.RespondError(w, statusForError(err), "invalidation failed", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusNoContent, nil)
}

// Stats serves GET /api/history/stats.
func (h *HistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.historyService.Stats()
	if err != nil {
		response.RespondError(w, statusForError(err), "failed to get materialized stats", err.Error())
		return
	}

	response.RespondJSON(w, http.StatusOK, stats)
}
