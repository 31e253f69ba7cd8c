// Package app assembles the store, ledger and reporting services shared by
// the HTTP server and the stockctl command.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/config"
	"github.com/mamadbah2/praya-stock/internal/domain/models"
	"github.com/mamadbah2/praya-stock/internal/messaging"
	"github.com/mamadbah2/praya-stock/internal/metrics"
	"github.com/mamadbah2/praya-stock/internal/repository"
	"github.com/mamadbah2/praya-stock/internal/repository/memory"
	"github.com/mamadbah2/praya-stock/internal/repository/mongodb"
	"github.com/mamadbah2/praya-stock/internal/repository/sheets"
	"github.com/mamadbah2/praya-stock/internal/service/ledger"
	"github.com/mamadbah2/praya-stock/internal/service/reporting"
)

// App holds the wired services.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	Items    repository.Collection[models.Item]
	Incoming repository.Collection[models.IncomingEvent]
	Outgoing repository.Collection[models.OutgoingEvent]
	Store    repository.Pinger

	Publisher messaging.Publisher
	Ledger    *ledger.Service
	Reports   *reporting.Service

	sheets  *sheets.GoogleSheetRepository
	closers []func(context.Context) error
}

// New connects the configured store and builds the services. A store that
// cannot be reached is a startup error.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}

	a.Publisher = messaging.NopPublisher{}
	if cfg.Kafka.Enabled() {
		producer := messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		a.Publisher = producer
		a.closers = append(a.closers, func(context.Context) error { return producer.Close() })
		logger.Info("stock events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named("repo.sheets"))
		if err != nil {
			_ = a.Close(ctx)
			return nil, err
		}
		a.sheets = repo
	}

	loc := cfg.Reporting.Location()
	a.Ledger = ledger.NewService(a.Items, a.Incoming, a.Outgoing, logger.Named("svc.ledger"),
		ledger.WithPublisher(a.Publisher),
		ledger.WithRecorder(a.Metrics),
		ledger.WithLocation(loc),
	)
	a.Reports = reporting.NewService(a.Items, a.Outgoing, loc, a.Metrics, logger.Named("svc.reporting"))

	return a, nil
}

// Sheets returns the Google Sheets repository, or nil when not configured.
func (a *App) Sheets() sheets.Repository {
	if a.sheets == nil {
		return nil
	}
	return a.sheets
}

// Close releases connections in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openStore(ctx context.Context) error {
	switch a.Config.Store.Backend {
	case config.StoreMemory:
		items := memory.NewCollection[models.Item](repository.CollectionItems)
		a.Items = items
		a.Incoming = memory.NewCollection[models.IncomingEvent](repository.CollectionIncoming)
		a.Outgoing = memory.NewCollection[models.OutgoingEvent](repository.CollectionOutgoing)
		a.Store = items
		a.Logger.Warn("using in-memory store, data is lost on exit")
		return nil

	case config.StoreMongoDB:
		client, err := mongodb.NewClient(ctx, a.Config.MongoDB.URI, a.Config.MongoDB.DBName, a.Logger.Named("repo.mongodb"))
		if err != nil {
			return fmt.Errorf("connect mongodb: %w", err)
		}
		a.closers = append(a.closers, client.Close)

		if err := client.EnsureIndexes(ctx); err != nil {
			_ = a.Close(ctx)
			return err
		}

		a.Items = mongodb.NewCollection[models.Item](client, repository.CollectionItems)
		a.Incoming = mongodb.NewCollection[models.IncomingEvent](client, repository.CollectionIncoming)
		a.Outgoing = mongodb.NewCollection[models.OutgoingEvent](client, repository.CollectionOutgoing)
		a.Store = client
		return nil

	default:
		return fmt.Errorf("unknown store backend %q", a.Config.Store.Backend)
	}
}
