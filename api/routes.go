// Package api serves the monitor's status endpoints.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/gilsentrycs/monitor-flights/config"
	"github.com/gilsentrycs/monitor-flights/monitor"
	"github.com/gilsentrycs/monitor-flights/pkg/health"
	"github.com/gilsentrycs/monitor-flights/pkg/logger"
	"github.com/gilsentrycs/monitor-flights/pkg/metrics"
	"github.com/gilsentrycs/monitor-flights/pkg/middleware"
	"github.com/gilsentrycs/monitor-flights/store"
)

// RunHistory is the read side of the history store
type RunHistory interface {
	ListRuns(ctx context.Context, limit int) ([]store.RunRecord, error)
	PriceTrend(ctx context.Context, origin, destination string) ([]store.PricePoint, error)
}

// Scheduler is the part of the monitor the status server drives
type Scheduler interface {
	Status() monitor.Status
	Trigger(ctx context.Context) bool
}

// Deps are the collaborators of the router. History and Metrics may be nil.
type Deps struct {
	Config    *config.Config
	Health    *health.HealthChecker
	History   RunHistory
	Scheduler Scheduler
	Metrics   *metrics.Recorder
	Logger    *logger.Logger

	// ScanContext bounds scans started through POST /api/scan
	ScanContext context.Context
}

// NewRouter registers all routes
func NewRouter(deps Deps) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}
	if deps.ScanContext == nil {
		deps.ScanContext = context.Background()
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.Recovery(deps.Logger))

	router.GET("/health", healthHandler(deps.Health))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	v1 := router.Group("/api")
	v1.Use(middleware.BearerAuth(deps.Config.MonitorConfig.StatusToken))
	{
		v1.GET("/status", statusHandler(deps.Scheduler))
		v1.GET("/report/latest", latestReportHandler(deps.Config.ReportConfig))
		v1.GET("/runs", listRunsHandler(deps.History))
		v1.GET("/trend/:destination", trendHandler(deps.History, deps.Config.SearchConfig.DepartureCode))
		v1.POST("/scan", triggerScanHandler(deps.Scheduler, deps.ScanContext))
	}

	return router
}

// WithCORS lets browser dashboards on the given origins call the status server.
// With no origins h is returned unchanged.
func WithCORS(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
	}).Handler(h)
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler, log *logger.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("status server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("status server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down status server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("status server shutdown: %w", err)
	}
	return nil
}
