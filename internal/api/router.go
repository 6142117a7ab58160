package api

import (
	"log/slog"
	"net/http"
	"time"

	"credit-approval/internal/api/handler"
	mw "credit-approval/internal/api/middleware"
	"credit-approval/internal/config"
	"credit-approval/internal/domain/customer"
	"credit-approval/internal/domain/loan"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(loanService loan.LoanService, customerService customer.CustomerService, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupRoutes(router, loanService, customerService, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupRoutes(router *chi.Mux, loanService loan.LoanService, customerService customer.CustomerService, logger *slog.Logger) {
	loanHandler := handler.NewLoanHandler(loanService, logger)
	customerHandler := handler.NewCustomerHandler(customerService, logger)

	router.Post("/register", customerHandler.RegisterCustomer)
	router.Post("/check-eligibility", loanHandler.CheckEligibility)
	router.Post("/create-loan", loanHandler.CreateLoan)
	router.Get("/view-loan/{loanID}", loanHandler.GetLoan)
	router.Get("/view-loans/{customerID}", loanHandler.GetCustomerLoans)

	router.Route("/customers", func(r chi.Router) {
		r.Get("/", customerHandler.ListCustomers)
		r.Get("/{customerID}", customerHandler.GetCustomer)
	})
}
