package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/jkoster/folio-backend/internal/apperrors"
)

// parseDateParam parses a YYYY-MM-DD query parameter, returning fallback
// when the parameter is absent.
func parseDateParam(r *http.Request, name string, fallback time.Time) (time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback, nil
	}
	return time.Parse("2006-01-02", value)
}

// statusForError maps service errors to HTTP status codes. Not-found
// sentinels become 404; everything else is a server-side failure.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrPortfolioNotFound),
		errors.Is(err, apperrors.ErrFundNotFound),
		errors.Is(err, apperrors.ErrTransactionNotFound),
		errors.Is(err, apperrors.ErrDividendNotFound),
		errors.Is(err, apperrors.ErrPortfolioFundNotFound),
		errors.Is(err, apperrors.ErrSettingNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidTransactionType),
		errors.Is(err, apperrors.ErrNegativeAmount),
		errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrEmptyID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
