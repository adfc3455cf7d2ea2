// Package server — HTTP-интерфейс расчета КП: расчет, сохранение,
// выгрузка в xlsx, административные ставки и дневные курсы валют.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kpcalc/internal/engine"
	"kpcalc/internal/storage"
)

// Store — слой хранения, нужный обработчикам. Реализуется storage.Storage.
type Store interface {
	AdminSettings(ctx context.Context, orgID string) (engine.AdminSettings, error)
	SaveAdminSettings(ctx context.Context, orgID string, settings engine.AdminSettings) error
	SaveQuote(ctx context.Context, quote storage.Quote) (int64, error)
	QuoteByID(ctx context.Context, id int64) (*storage.Quote, error)
	CachedRate(ctx context.Context, charCode string) (decimal.Decimal, error)
	CacheRate(ctx context.Context, charCode string, rate decimal.Decimal) error
}

// RateSource отдает дневной курс валюты к рублю.
type RateSource interface {
	DailyRate(ctx context.Context, charCode string) (decimal.Decimal, error)
}

// Notifier получает сохраненное КП после коммита транзакции.
type Notifier interface {
	QuoteSaved(quote storage.Quote)
}

type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func New(addr string, requestTimeout time.Duration, h *Handlers, logger *zap.Logger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(requestTimeout))

	router.Get("/healthz", h.Healthz)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/quotes/calculate", h.CalculateQuote)
		r.Post("/quotes", h.SaveQuote)
		r.Get("/quotes/{id}", h.GetQuote)
		r.Get("/quotes/{id}/export", h.ExportQuote)

		r.Get("/admin/settings", h.GetAdminSettings)
		r.Put("/admin/settings", h.PutAdminSettings)

		r.Get("/rates/{code}", h.GetRate)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Run блокируется до отмены контекста, затем гасит сервер.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	s.logger.Info("Shutting down HTTP server...")
	return s.httpServer.Shutdown(shutdownCtx)
}
