package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/config"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/repository/mongodb"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/repository/sheets"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/scheduler"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/server/handlers"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/server/router"
	advisorsvc "github.com/Latif-jpg/site-aviprod-sub002/internal/service/advisor"
	alertsvc "github.com/Latif-jpg/site-aviprod-sub002/internal/service/alerts"
	assignmentsvc "github.com/Latif-jpg/site-aviprod-sub002/internal/service/assignment"
	forecastsvc "github.com/Latif-jpg/site-aviprod-sub002/internal/service/forecast"
	ledgersvc "github.com/Latif-jpg/site-aviprod-sub002/internal/service/ledger"
	"github.com/Latif-jpg/site-aviprod-sub002/pkg/clients/notify"
	"github.com/Latif-jpg/site-aviprod-sub002/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Location()
	if err != nil {
		baseLogger.Fatal("invalid reference timezone", zap.Error(err))
	}

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	resolver := assignmentsvc.NewResolver(baseLogger.Named("svc.assignment"))

	// The sheets export is optional; the ledger commits fine without it.
	var exporter ledgersvc.Exporter
	if cfg.SheetsEnabled() {
		sheetsExporter, err := sheets.NewExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
		exporter = sheetsExporter
		baseLogger.Info("sheets consumption export enabled")
	} else {
		baseLogger.Warn("sheets credentials missing, consumption export disabled")
	}

	ledgerJob := ledgersvc.NewJob(mongoRepo, resolver, exporter, loc, baseLogger.Named("svc.ledger"))
	forecastEngine := forecastsvc.NewEngine(mongoRepo, resolver, loc, baseLogger.Named("svc.forecast"))
	evaluator := alertsvc.NewEvaluator(mongoRepo, baseLogger.Named("svc.alerts"))
	advisor := advisorsvc.NewAdvisor(baseLogger.Named("svc.advisor"))

	var dispatcher *alertsvc.Dispatcher
	if cfg.AlertsEnabled() {
		notifyClient := notify.NewClient(cfg.Alerts)
		dispatcher = alertsvc.NewDispatcher(mongoRepo, notifyClient, cfg.Alerts.Cooldown, baseLogger.Named("svc.alerts.dispatch"))
		baseLogger.Info("alert webhook dispatch enabled")
	} else {
		baseLogger.Warn("alert webhook missing, outbound alerts disabled")
	}

	stockHandler := handlers.NewStockHandler(forecastEngine, evaluator, advisor, ledgerJob, mongoRepo, loc, baseLogger.Named("handlers.stock"))
	engine := router.New(stockHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(*cfg, mongoRepo, ledgerJob, forecastEngine, evaluator, dispatcher, baseLogger.Named("scheduler"))
	sched.Start()
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
