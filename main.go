package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cgscacau/yieldlab/src/app"
	"github.com/cgscacau/yieldlab/src/config"
	"github.com/cgscacau/yieldlab/src/handlers"
	"github.com/cgscacau/yieldlab/src/logger"
	"github.com/cgscacau/yieldlab/src/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// quoteWarmWindow is how far back a ticker must have been asked for to be warmed.
const quoteWarmWindow = 30 * time.Minute

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

func newRouter(a *app.App) http.Handler {
	cfg := a.Config

	authHandler := handlers.NewAuthHandler(a.Identity, a.Portfolios)
	pfManagerHandler := handlers.NewPortfolioManagerHandler(a.Portfolios)
	portfolioHandler := handlers.NewPortfolioHandler(a.Portfolios)
	assetHandler := handlers.NewAssetHandler(a.Portfolios)
	txHandler := handlers.NewTransactionHandler(a.Portfolios)
	dividendHandler := handlers.NewDividendHandler(a.Portfolios)
	uploadHandler := handlers.NewUploadHandler(a.Portfolios, cfg.MaxUploadSizeBytes)
	quoteHandler := handlers.NewQuoteHandler(a.Quotes, a.Portfolios)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-None-Match", "X-Requested-With"},
		ExposedHeaders:   []string{"ETag", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(handlers.RateLimitMiddleware(rate.NewLimiter(rate.Every(100*time.Millisecond), 30)))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "YieldLab Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		// Rotas Públicas
		r.Group(func(r chi.Router) {
			r.Get("/health", handlers.HandleHealth)
			r.Post("/auth/register", authHandler.HandleRegister)
			r.Post("/auth/login", authHandler.HandleLogin)
		})

		// Rotas Protegidas
		r.Group(func(r chi.Router) {
			r.Use(handlers.AuthMiddleware(a.Verifier))

			r.Get("/portfolios", pfManagerHandler.ListPortfolios)
			r.Post("/portfolios", pfManagerHandler.CreatePortfolio)
			r.Get("/portfolios/{id}", pfManagerHandler.GetPortfolio)
			r.Patch("/portfolios/{id}", pfManagerHandler.UpdatePortfolio)
			r.Delete("/portfolios/{id}", pfManagerHandler.DeletePortfolio)

			r.Get("/assets/{portfolioId}", assetHandler.HandleListAssets)
			r.Post("/assets", assetHandler.HandleCreateAsset)
			r.Patch("/assets/{id}", assetHandler.HandleUpdateAsset)
			r.Delete("/assets/{id}", assetHandler.HandleDeleteAsset)
			r.Post("/assets/{id}/recalculate", assetHandler.HandleRecalculateAsset)

			r.Get("/transactions/{portfolioId}", txHandler.HandleListTransactions)
			r.Post("/transactions", txHandler.HandleAddTransaction)
			r.Delete("/transactions/{id}", txHandler.HandleDeleteTransaction)

			r.Get("/dividends/{portfolioId}", dividendHandler.HandleListDividends)
			r.Post("/dividends", dividendHandler.HandleAddDividend)
			r.Delete("/dividends/{id}", dividendHandler.HandleDeleteDividend)

			r.Get("/metrics/{portfolioId}", portfolioHandler.HandleGetMetrics)
			r.Get("/evolution/{portfolioId}", portfolioHandler.HandleGetEvolution)
			r.Post("/tax/estimate", portfolioHandler.HandleEstimateTax)

			r.Post("/import-csv", uploadHandler.HandleImportCSV)

			r.Get("/quotes/{ticker}", quoteHandler.HandleGetQuote)
			r.Post("/quotes/update-portfolio/{portfolioId}", quoteHandler.HandleUpdatePortfolioQuotes)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "Rota não encontrada"})
	})

	return r
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}
	logger.InitLogger(cfg.LogLevel)

	logger.L.Info("YieldLab backend server starting...")

	a, err := app.New(cfg)
	if err != nil {
		logger.L.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	sched := scheduler.New()
	if cfg.QuoteWarmSchedule != "" {
		if err := sched.AddJob(cfg.QuoteWarmSchedule, scheduler.NewQuoteWarmer(a.Quotes, quoteWarmWindow)); err != nil {
			logger.L.Error("Failed to schedule quote warmer", "schedule", cfg.QuoteWarmSchedule, "error", err)
			os.Exit(1)
		}
		sched.Start()
		defer sched.Stop()
	}

	serverAddr := ":" + cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      newRouter(a),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.L.Info("Server starting", "address", serverAddr, "store", cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			stdlog.Fatalf("Failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.L.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.L.Error("Graceful shutdown failed", "error", err)
	}
}
