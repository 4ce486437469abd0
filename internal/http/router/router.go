// Package router wires the session host routes.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/straye-as/blind-quote/internal/config"
	"github.com/straye-as/blind-quote/internal/database"
	"github.com/straye-as/blind-quote/internal/http/handler"
	"github.com/straye-as/blind-quote/internal/http/middleware"
)

type Router struct {
	cfg          *config.Config
	logger       *zap.Logger
	db           *gorm.DB
	metrics      http.Handler
	rateLimiter  *middleware.RateLimiter
	quoteHandler *handler.QuoteHandler
	fileHandler  *handler.FileHandler
}

// NewRouter creates the router. db and metrics may be nil.
func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	metrics http.Handler,
	rateLimiter *middleware.RateLimiter,
	quoteHandler *handler.QuoteHandler,
	fileHandler *handler.FileHandler,
) *Router {
	return &Router{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		metrics:      metrics,
		rateLimiter:  rateLimiter,
		quoteHandler: quoteHandler,
		fileHandler:  fileHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.Limit)

	// Liveness
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Readiness, including the snapshot database when one is configured
	r.Get("/health/ready", rt.ready)

	if rt.metrics != nil && rt.cfg.Metrics.Enabled {
		r.Handle(rt.cfg.Metrics.Path, rt.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/state", rt.quoteHandler.GetState)
		r.Post("/actions", rt.quoteHandler.Dispatch)
		r.Post("/calculate", rt.quoteHandler.Calculate)

		r.Route("/tabs", func(r chi.Router) {
			r.Post("/f1", rt.quoteHandler.ActivateF1)
			r.Post("/f2", rt.quoteHandler.ActivateF2)
		})

		r.Route("/f1", func(r chi.Router) {
			r.Post("/remotes", rt.quoteHandler.DistributeRemotes)
			r.Post("/duals", rt.quoteHandler.DistributeDuals)
			r.Post("/discount", rt.quoteHandler.SetF1Discount)
		})

		r.Route("/f2", func(r chi.Router) {
			r.Post("/values", rt.quoteHandler.SetF2Value)
			r.Post("/fees/{fee}/toggle", rt.quoteHandler.ToggleFeeExclusion)
		})

		r.Route("/drive", func(r chi.Router) {
			r.Post("/mode", rt.quoteHandler.ChangeDriveMode)
			r.Post("/toggle", rt.quoteHandler.ToggleDriveAccessory)
			r.Post("/count", rt.quoteHandler.ChangeDriveCount)
		})

		r.Route("/dual-chain", func(r chi.Router) {
			r.Post("/mode", rt.quoteHandler.ChangeDualChainMode)
			r.Post("/select", rt.quoteHandler.SelectDualChainCell)
			r.Post("/chain", rt.quoteHandler.CommitChain)
		})

		r.Post("/view/toggle", rt.quoteHandler.ToggleView)
		r.Post("/print", rt.quoteHandler.Print)

		r.Get("/export/{format}", rt.fileHandler.Export)
		r.Post("/load", rt.fileHandler.Load)
		r.Post("/save", rt.fileHandler.Save)
		r.Get("/saved", rt.fileHandler.ListSaved)
		r.Post("/saved/open", rt.fileHandler.OpenSaved)
	})

	return r
}

func (rt *Router) ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]interface{}{}
	healthy := true

	if rt.db != nil {
		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{"status": "unhealthy", "error": err.Error()}
			healthy = false
		} else {
			checks["database"] = map[string]interface{}{"status": "healthy"}
		}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
	})
}
