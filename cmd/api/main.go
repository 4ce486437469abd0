package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/straye-as/blind-quote/internal/actions"
	"github.com/straye-as/blind-quote/internal/config"
	"github.com/straye-as/blind-quote/internal/database"
	"github.com/straye-as/blind-quote/internal/domain"
	"github.com/straye-as/blind-quote/internal/http/handler"
	"github.com/straye-as/blind-quote/internal/http/middleware"
	"github.com/straye-as/blind-quote/internal/http/router"
	"github.com/straye-as/blind-quote/internal/jobs"
	"github.com/straye-as/blind-quote/internal/logger"
	"github.com/straye-as/blind-quote/internal/metrics"
	"github.com/straye-as/blind-quote/internal/pricing"
	"github.com/straye-as/blind-quote/internal/reducer"
	"github.com/straye-as/blind-quote/internal/repository"
	"github.com/straye-as/blind-quote/internal/service"
	"github.com/straye-as/blind-quote/internal/storage"
	"github.com/straye-as/blind-quote/internal/store"
	"github.com/straye-as/blind-quote/internal/strategy"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// In development secrets come from the environment, in staging and
	// production from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Missing price data is not fatal: every price degrades to empty
	f2Prices := pricing.F2UnitPrices{
		Wifi:     cfg.F2.WifiUnitPrice,
		Delivery: cfg.F2.DeliveryUnitPrice,
		Install:  cfg.F2.InstallUnitPrice,
		Removal:  cfg.F2.RemovalUnitPrice,
	}
	prices, err := pricing.LoadFile(cfg.Pricing.DataFile, f2Prices, log.Named("pricing"))
	if err != nil {
		log.Error("Price data unavailable, prices will be empty",
			zap.String("file", cfg.Pricing.DataFile),
			zap.Error(err))
		prices = pricing.NewSource(nil, f2Prices, log.Named("pricing"))
	}

	collectors := metrics.New()

	// State container
	strategies := strategy.NewFactory(prices, log.Named("strategy"))
	if strategies.Strategy(domain.ProductKey(cfg.Pricing.ProductType)) == nil {
		log.Error("Configured product type has no pricing strategy",
			zap.String("product_type", cfg.Pricing.ProductType))
	}
	root := reducer.NewRoot(strategies, prices, log.Named("reducer"))
	st := store.New(root.InitialState(), root, log.Named("store"), store.WithObserver(collectors.ObserveDispatch))

	// Services
	calcService := service.NewCalculationService(prices, strategies, log)
	migrationService := service.NewMigrationService(strategies, log)
	fileService := service.NewFileService(migrationService, log)
	workflowService := service.NewWorkflowService(st, calcService, fileService, strategies, log)
	session := service.NewSession(st, workflowService)

	documents, err := storage.NewStorage(ctx, &cfg.Storage, log.Named("storage"))
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	var db *gorm.DB
	var snapshots service.SnapshotStore
	if cfg.AutoSave.Target == service.TargetDatabase {
		db, err = database.NewDatabase(&cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Migrate(db, cfg.Database.Driver); err != nil {
			return err
		}
		snapshots = repository.NewSnapshotRepository(db)
		log.Info("Snapshot database ready", zap.String("driver", cfg.Database.Driver))
	}

	autoSaveService, err := service.NewAutoSaveService(
		session,
		fileService,
		migrationService,
		documents,
		snapshots,
		service.AutoSaveOptions{
			Target:    cfg.AutoSave.Target,
			Key:       cfg.AutoSave.Key,
			Retention: cfg.AutoSave.RetentionDuration(),
			MaxBytes:  cfg.Storage.MaxUploadBytes(),
		},
		collectors,
		log.Named("autosave"),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize auto-save: %w", err)
	}

	if cfg.AutoSave.RestoreOnStart {
		restore(ctx, cfg, autoSaveService, session, log)
	}

	var scheduler *jobs.Scheduler
	if cfg.AutoSave.Enabled {
		scheduler = jobs.NewScheduler(log)
		if err := jobs.RegisterAutoSaveJob(scheduler, autoSaveService, log, cfg.AutoSave.Cron, cfg.AutoSave.TimeoutDuration()); err != nil {
			log.Error("Failed to register auto-save job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with auto-save job",
				zap.String("cron_expr", cfg.AutoSave.Cron),
				zap.String("target", cfg.AutoSave.Target),
			)
		}
	} else {
		log.Info("Auto-save disabled")
	}

	// HTTP
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)
	quoteHandler := handler.NewQuoteHandler(session, collectors, log)
	fileHandler := handler.NewFileHandler(session, fileService, autoSaveService, cfg.Storage.MaxUploadSizeMB, log)
	rt := router.NewRouter(cfg, log, db, collectors.Handler(), rateLimiter, quoteHandler, fileHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      http.TimeoutHandler(rt.Setup(), cfg.Server.RequestTimeoutDuration(), "request timed out"),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			<-scheduler.Stop().Done()
			log.Info("Scheduler stopped")
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Last backup of the session before exit
		if cfg.AutoSave.Enabled {
			if err := autoSaveService.Save(ctx); err != nil && !errors.Is(err, service.ErrNothingToSave) {
				log.Warn("Final auto-save failed", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}

// restore loads the last auto-saved quote into the session. Failures are logged.
func restore(ctx context.Context, cfg *config.Config, saves *service.AutoSaveService, session *service.Session, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, cfg.AutoSave.TimeoutDuration())
	defer cancel()

	q, err := saves.Restore(ctx)
	switch {
	case errors.Is(err, service.ErrNotFound):
		log.Info("No auto-saved quote to restore")
		return
	case err != nil:
		log.Warn("Failed to restore auto-saved quote", zap.Error(err))
		return
	}

	_ = session.Do(func(st *store.Store, _ *service.WorkflowService) error {
		st.Dispatch(actions.SetQuoteData{QuoteData: q})
		st.Dispatch(actions.SetSumOutdated{Outdated: true})
		return nil
	})
	logger.WithSession(log, string(q.CurrentProduct), derefString(q.QuoteID)).
		Info("Restored auto-saved quote", zap.String("target", saves.Target()))
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
