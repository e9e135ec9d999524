package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/loomworks/loomledger/internal/config"
	"github.com/loomworks/loomledger/internal/events"
	"github.com/loomworks/loomledger/internal/repository/mongodb"
	"github.com/loomworks/loomledger/internal/repository/sheets"
	"github.com/loomworks/loomledger/internal/scheduler"
	"github.com/loomworks/loomledger/internal/server/handlers"
	"github.com/loomworks/loomledger/internal/server/router"
	ledgersvc "github.com/loomworks/loomledger/internal/service/ledger"
	notifysvc "github.com/loomworks/loomledger/internal/service/notify"
	productionsvc "github.com/loomworks/loomledger/internal/service/production"
	registrysvc "github.com/loomworks/loomledger/internal/service/registry"
	reportingsvc "github.com/loomworks/loomledger/internal/service/reporting"
	webhookclient "github.com/loomworks/loomledger/pkg/clients/webhook"
	"github.com/loomworks/loomledger/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	db, err := mongodb.Connect(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to connect to mongodb", zap.Error(err))
	}
	defer func() {
		if err := db.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	if err := db.EnsureIndexes(context.Background()); err != nil {
		baseLogger.Fatal("failed to ensure indexes", zap.Error(err))
	}

	machines := mongodb.NewMachines(db)
	workers := mongodb.NewWorkers(db)
	qualities := mongodb.NewQualities(db)
	takas := mongodb.NewTakas(db)
	productions := mongodb.NewProductions(db)
	snapshots := mongodb.NewSnapshots(db)

	var sheetsRepo sheets.Repository
	if cfg.SheetsEnabled() {
		sheetsRepo, err = sheets.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		baseLogger.Info("salary sheet export enabled")
	} else {
		baseLogger.Warn("sheets credentials missing, salary export disabled")
	}

	bus := events.NewBus(baseLogger.Named("events"))

	ledgerSvc := ledgersvc.NewService(takas, bus, baseLogger.Named("svc.ledger"))
	recorder := productionsvc.NewService(productions, takas, machines, workers, qualities, ledgerSvc, baseLogger.Named("svc.production"))

	var sheetWriter reportingsvc.SheetWriter
	if sheetsRepo != nil {
		sheetWriter = sheetsRepo
	}
	reporter := reportingsvc.NewService(productions, takas, machines, workers, qualities, recorder, sheetWriter, baseLogger.Named("svc.reporting"))
	registry := registrysvc.NewService(machines, workers, qualities, takas, productions, ledgerSvc, recorder, baseLogger.Named("svc.registry"))

	// When a lot closes, free its machine and notify downstream.
	bus.SubscribeLotClosed(registry.HandleLotClosed)
	if cfg.WebhookEnabled() {
		notifier := notifysvc.NewService(webhookclient.NewClient(cfg.Webhook), baseLogger.Named("svc.notify"))
		bus.SubscribeLotClosed(notifier.HandleLotClosed)
		baseLogger.Info("lot closed webhook enabled", zap.String("url", cfg.Webhook.URL))
	}

	httpLogger := baseLogger.Named("handlers")
	engine := router.New(router.Handlers{
		Productions: handlers.NewProductionHandler(recorder, reporter, httpLogger),
		Takas:       handlers.NewTakaHandler(registry, ledgerSvc, httpLogger),
		Machines:    handlers.NewMachineHandler(registry, httpLogger),
		Workers:     handlers.NewWorkerHandler(registry, httpLogger),
		Qualities:   handlers.NewQualityHandler(registry, httpLogger),
		Dashboard:   handlers.NewDashboardHandler(reporter, httpLogger),
		Reports:     handlers.NewReportHandler(reporter, cfg.Sheets.SalaryRange, httpLogger),
	}, baseLogger.Named("router"))

	sched, err := scheduler.NewScheduler(cfg.Snapshot, reporter, snapshots, baseLogger.Named("scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
