package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jkoster/folio-backend/internal/api/handlers"
	custommiddleware "github.com/jkoster/folio-backend/internal/api/middleware"
	"github.com/jkoster/folio-backend/internal/config"
	"github.com/jkoster/folio-backend/internal/service"
)

// Services bundles the service layer instances used by the router.
type Services struct {
	Portfolio   *service.PortfolioService
	Transaction *service.TransactionService
	Dividend    *service.DividendService
	Fund        *service.FundService
	History     *service.HistoryService
	Materialize *service.Materializer
	Invalidator *service.Invalidator
}

// NewRouter creates and configures the HTTP router
func NewRouter(db *sql.DB, svc Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(db)
			r.Get("/health", systemHandler.Health)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(svc.Portfolio)
			historyHandler := handlers.NewHistoryHandler(svc.History, svc.Portfolio, svc.Materialize, svc.Invalidator)
			r.Get("/", portfolioHandler.Portfolios)
			r.Post("/", portfolioHandler.CreatePortfolio)
			r.Get("/history", historyHandler.PortfolioHistory)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", portfolioHandler.Portfolio)
				r.Put("/", portfolioHandler.UpdatePortfolio)
				r.Delete("/", portfolioHandler.DeletePortfolio)
				r.Get("/funds", portfolioHandler.PortfolioFunds)
				r.Post("/funds", portfolioHandler.AddFund)
			})
		})

		r.Route("/transaction", func(r chi.Router) {
			transactionHandler := handlers.NewTransactionHandler(svc.Transaction)
			r.Post("/", transactionHandler.CreateTransaction)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", transactionHandler.Transaction)
				r.Put("/", transactionHandler.UpdateTransaction)
				r.Delete("/", transactionHandler.DeleteTransaction)
			})
		})

		r.Route("/dividend", func(r chi.Router) {
			dividendHandler := handlers.NewDividendHandler(svc.Dividend)
			r.Post("/", dividendHandler.CreateDividend)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", dividendHandler.Dividend)
				r.Put("/", dividendHandler.UpdateDividend)
				r.Delete("/", dividendHandler.DeleteDividend)
			})
		})

		r.Route("/fund", func(r chi.Router) {
			fundHandler := handlers.NewFundHandler(svc.Fund)
			r.Get("/", fundHandler.Funds)
			r.Post("/", fundHandler.CreateFund)
			r.Post("/provider-token", fundHandler.SetProviderToken)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", fundHandler.Fund)
				r.Post("/price", fundHandler.SetPrice)
			})
		})

		r.Route("/history", func(r chi.Router) {
			historyHandler := handlers.NewHistoryHandler(svc.History, svc.Portfolio, svc.Materialize, svc.Invalidator)
			r.Post("/materialize", historyHandler.Materialize)
			r.Post("/invalidate", historyHandler.Invalidate)
			r.Get("/stats", historyHandler.Stats)
		})
	})

	return r
}
