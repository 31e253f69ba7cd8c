package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/config"
	"github.com/mamadbah2/praya-stock/internal/domain/models"
	"github.com/mamadbah2/praya-stock/internal/service/alerts"
)

const jobTimeout = 2 * time.Minute

// Summarizer produces the restock summary text.
type Summarizer interface {
	RestockSummary(ctx context.Context, days int) (string, error)
}

// Reconciler checks stored stock against the event history.
type Reconciler interface {
	Reconcile(ctx context.Context, repair bool) ([]models.StockDrift, error)
}

// Scheduler runs the weekly restock alert and the nightly reconciliation.
type Scheduler struct {
	cron       *cron.Cron
	cfg        config.ReportingConfig
	summarizer Summarizer
	reconciler Reconciler
	notifier   alerts.Notifier
	logger     *zap.Logger
}

// NewScheduler creates a new scheduler instance. Schedules are interpreted
// in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, summarizer Summarizer, reconciler Reconciler, notifier alerts.Notifier, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:       cron.New(cron.WithLocation(cfg.Location())),
		cfg:        cfg,
		summarizer: summarizer,
		reconciler: reconciler,
		notifier:   notifier,
		logger:     logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("restock_alert", s.cfg.CronSchedule),
		zap.String("reconcile", s.cfg.ReconcileCronSchedule),
	)

	if s.cfg.CronSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runJob("restock_alert", s.SendRestockAlert)); err != nil {
			return fmt.Errorf("schedule restock alert: %w", err)
		}
	}
	if s.cfg.ReconcileCronSchedule != "" {
		if _, err := s.cron.AddFunc(s.cfg.ReconcileCronSchedule, s.runJob("reconcile", s.Reconcile)); err != nil {
			return fmt.Errorf("schedule reconcile: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// SendRestockAlert builds the summary for the configured window and hands it
// to the notifier.
func (s *Scheduler) SendRestockAlert(ctx context.Context) error {
	summary, err := s.summarizer.RestockSummary(ctx, s.cfg.WindowDays)
	if err != nil {
		return fmt.Errorf("build restock summary: %w", err)
	}
	if err := s.notifier.Notify(ctx, summary); err != nil {
		return fmt.Errorf("send restock summary: %w", err)
	}
	return nil
}

// Reconcile compares stored and derived stock, repairing when configured.
func (s *Scheduler) Reconcile(ctx context.Context) error {
	drifts, err := s.reconciler.Reconcile(ctx, s.cfg.ReconcileRepair)
	if err != nil {
		return err
	}
	for _, d := range drifts {
		s.logger.Warn("stock drift",
			zap.String("item_id", d.ItemID),
			zap.String("code", d.Code),
			zap.Int("stored", d.Stored),
			zap.Int("derived", d.Derived),
			zap.Bool("repaired", d.Repaired),
		)
	}
	return nil
}

func (s *Scheduler) runJob(name string, job func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		started := time.Now()
		if err := job(ctx); err != nil {
			s.logger.Error("scheduled job failed", zap.String("job", name), zap.Error(err))
			return
		}
		s.logger.Info("scheduled job done", zap.String("job", name), zap.Duration("elapsed", time.Since(started)))
	}
}
