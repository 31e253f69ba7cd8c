package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/praya-stock/internal/config"
	"github.com/mamadbah2/praya-stock/internal/domain/models"
)

type stubSummarizer struct {
	days int
	err  error
}

func (s *stubSummarizer) RestockSummary(_ context.Context, days int) (string, error) {
	s.days = days
	return "2 URGENT", s.err
}

type stubReconciler struct{ repair bool }

func (s *stubReconciler) Reconcile(_ context.Context, repair bool) ([]models.StockDrift, error) {
	s.repair = repair
	return []models.StockDrift{{ItemID: "x", Stored: 3, Derived: 5, Repaired: repair}}, nil
}

type captureNotifier struct{ messages []string }

func (c *captureNotifier) Notify(_ context.Context, msg string) error {
	c.messages = append(c.messages, msg)
	return nil
}

func testConfig() config.ReportingConfig {
	return config.ReportingConfig{
		CronSchedule:          "0 20 * * 5",
		ReconcileCronSchedule: "30 2 * * *",
		ReconcileRepair:       true,
		WindowDays:            14,
		Timezone:              "Asia/Makassar",
	}
}

func TestSendRestockAlert(t *testing.T) {
	sum := &stubSummarizer{}
	notifier := &captureNotifier{}
	s := NewScheduler(testConfig(), sum, &stubReconciler{}, notifier, nil)

	require.NoError(t, s.SendRestockAlert(context.Background()))
	assert.Equal(t, 14, sum.days)
	assert.Equal(t, []string{"2 URGENT"}, notifier.messages)

	sum.err = errors.New("store down")
	assert.ErrorContains(t, s.SendRestockAlert(context.Background()), "store down")
	assert.Len(t, notifier.messages, 1)
}

func TestReconcileHonoursRepairFlag(t *testing.T) {
	rec := &stubReconciler{}
	s := NewScheduler(testConfig(), &stubSummarizer{}, rec, &captureNotifier{}, nil)

	require.NoError(t, s.Reconcile(context.Background()))
	assert.True(t, rec.repair)
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.CronSchedule = "every friday"
	s := NewScheduler(cfg, &stubSummarizer{}, &stubReconciler{}, &captureNotifier{}, nil)

	assert.Error(t, s.Start())
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(testConfig(), &stubSummarizer{}, &stubReconciler{}, &captureNotifier{}, nil)
	require.NoError(t, s.Start())
	assert.Len(t, s.cron.Entries(), 2)
	s.Stop()
}
