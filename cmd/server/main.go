package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/app"
	"github.com/mamadbah2/praya-stock/internal/config"
	"github.com/mamadbah2/praya-stock/internal/scheduler"
	"github.com/mamadbah2/praya-stock/internal/server/handlers"
	"github.com/mamadbah2/praya-stock/internal/server/router"
	"github.com/mamadbah2/praya-stock/internal/service/alerts"
	"github.com/mamadbah2/praya-stock/internal/service/auth"
	"github.com/mamadbah2/praya-stock/internal/session"
	whatsappclient "github.com/mamadbah2/praya-stock/pkg/clients/whatsapp"
	"github.com/mamadbah2/praya-stock/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Encoding))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	application, err := app.New(startCtx, cfg, baseLogger)
	cancelStart()
	if err != nil {
		baseLogger.Fatal("failed to initialise application", zap.Error(err))
	}
	defer func() {
		if err := application.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close connections", zap.Error(err))
		}
	}()

	sessions := session.NewManager(session.NewFileStore(cfg.Auth.SessionFile), baseLogger.Named("session"))
	if _, _, err := sessions.Restore(); err != nil {
		baseLogger.Warn("ignoring unreadable saved session", zap.Error(err))
	}
	authSvc, err := auth.NewService(cfg.Auth, sessions, baseLogger.Named("svc.auth"))
	if err != nil {
		baseLogger.Fatal("failed to init auth service", zap.Error(err))
	}

	var notifier alerts.Notifier = alerts.NewLogNotifier(baseLogger.Named("alerts"))
	if cfg.WhatsApp.Enabled() {
		notifier = alerts.NewWhatsAppNotifier(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.AlertRecipient, baseLogger.Named("alerts.whatsapp"))
		baseLogger.Info("whatsapp restock alerts enabled")
	}

	var sheetReader handlers.SheetReader
	if repo := application.Sheets(); repo != nil {
		sheetReader = repo
	}

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(router.Handlers{
		Auth:    handlers.NewAuthHandler(authSvc, baseLogger.Named("handlers.auth")),
		Stock:   handlers.NewStockHandler(application.Ledger, sheetReader, baseLogger.Named("handlers.stock")),
		Reports: handlers.NewReportHandler(application.Reports, cfg.Reporting.Location(), baseLogger.Named("handlers.reports")),
		Events:  handlers.NewEventsHandler(application.Ledger, baseLogger.Named("handlers.events")),
		Health:  handlers.NewHealthHandler(application.Store, baseLogger.Named("handlers.health")),
	}, authSvc, application.Metrics, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting, application.Reports, application.Ledger, notifier, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// No WriteTimeout: event streams stay open until the client leaves or
	// the shutdown signal cancels the base context.
	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     engine,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Backend))
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
