package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLedgerOperationCounts(t *testing.T) {
	m := New()

	m.LedgerOperation("record_incoming", nil)
	m.LedgerOperation("record_incoming", nil)
	m.LedgerOperation("record_incoming", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ledgerOps.WithLabelValues("record_incoming", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ledgerOps.WithLabelValues("record_incoming", "error")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.LedgerOperation("x", nil)
		m.HTTPRequest("GET", "/", "200", time.Millisecond)
		m.RestockStatuses(map[string]int{"URGENT": 1})
	})
}

func TestRestockStatuses(t *testing.T) {
	m := New()
	m.RestockStatuses(map[string]int{"URGENT": 2, "PREPARE": 0})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.restockStatuses.WithLabelValues("URGENT")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.restockStatuses.WithLabelValues("PREPARE")))
}
