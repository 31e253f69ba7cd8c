package reporting

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/praya-stock/internal/domain/models"
	"github.com/mamadbah2/praya-stock/internal/repository"
	"github.com/mamadbah2/praya-stock/internal/repository/memory"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		stock, sales int
		want         Status
	}{
		{100, 30, StatusSufficient},
		{40, 30, StatusUrgent},
		{60, 30, StatusPrepare},
		{75, 30, StatusPrepare},
		{76, 30, StatusSufficient},
		{52, 30, StatusUrgent},
		{53, 30, StatusPrepare},
		{0, 0, StatusPrepare},
		{10, 0, StatusSufficient},
		{0, 1, StatusUrgent},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.stock, tt.sales), "stock=%d sales=%d", tt.stock, tt.sales)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, StatusAll, s)

	s, err = ParseStatus(" urgent ")
	require.NoError(t, err)
	assert.Equal(t, StatusUrgent, s)

	_, err = ParseStatus("LOW")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestFilterAndSortIsStable(t *testing.T) {
	entries := []Entry{
		{Item: models.Item{Name: "Gula"}, Status: StatusUrgent},
		{Item: models.Item{Name: "Kopi"}, Status: StatusSufficient},
		{Item: models.Item{Name: "Teh"}, Status: StatusPrepare},
		{Item: models.Item{Name: "Garam"}, Status: StatusUrgent},
		{Item: models.Item{Name: "Minyak"}, Status: StatusPrepare},
	}

	got := FilterAndSort(entries, "", StatusAll)
	names := make([]string, 0, len(got))
	for _, e := range got {
		names = append(names, e.Item.Name)
	}
	assert.Equal(t, []string{"Gula", "Garam", "Teh", "Minyak", "Kopi"}, names)

	got = FilterAndSort(entries, "GA", StatusAll)
	require.Len(t, got, 2)
	assert.Equal(t, "Gula", got[0].Item.Name)
	assert.Equal(t, "Garam", got[1].Item.Name)

	got = FilterAndSort(entries, "", StatusPrepare)
	require.Len(t, got, 2)
	assert.Equal(t, "Teh", got[0].Item.Name)
}

func TestWindowCoversWholeDays(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Makassar")
	require.NoError(t, err)

	from, to := Window(
		time.Date(2026, time.October, 1, 17, 30, 0, 0, loc),
		time.Date(2026, time.October, 3, 8, 0, 0, 0, loc),
		loc,
	)
	assert.Equal(t, time.Date(2026, time.October, 1, 0, 0, 0, 0, loc), from)
	assert.Equal(t, time.Date(2026, time.October, 3, 23, 59, 59, 999999999, loc), to)
}

type recorder struct{ counts map[string]int }

func (r *recorder) RestockStatuses(c map[string]int) { r.counts = c }

func TestSalesReportUsesInclusiveWindow(t *testing.T) {
	ctx := context.Background()
	loc, err := time.LoadLocation("Asia/Makassar")
	require.NoError(t, err)

	var clock time.Time
	items := memory.NewCollection[models.Item](repository.CollectionItems)
	outgoing := memory.NewCollection[models.OutgoingEvent](repository.CollectionOutgoing).
		WithClock(func() time.Time { return clock })

	gula, err := items.Create(ctx, models.Item{Code: "A1", Name: "Gula", Stock: 40})
	require.NoError(t, err)
	kopi, err := items.Create(ctx, models.Item{Code: "B1", Name: "Kopi", Stock: 100})
	require.NoError(t, err)

	sale := func(at time.Time, itemID string, qty int) {
		clock = at
		_, err := outgoing.Create(ctx, models.OutgoingEvent{ItemID: itemID, Quantity: qty})
		require.NoError(t, err)
	}
	sale(time.Date(2026, time.September, 30, 23, 59, 0, 0, loc), gula, 100)
	sale(time.Date(2026, time.October, 1, 0, 0, 0, 0, loc), gula, 10)
	sale(time.Date(2026, time.October, 3, 23, 59, 59, 0, loc), gula, 20)
	sale(time.Date(2026, time.October, 2, 12, 0, 0, 0, loc), kopi, 30)
	sale(time.Date(2026, time.October, 4, 0, 0, 0, 0, loc), kopi, 100)

	rec := &recorder{}
	svc := NewService(items, outgoing, loc, rec, nil)

	report, err := svc.SalesReport(ctx, Query{
		Start:  time.Date(2026, time.October, 1, 15, 0, 0, 0, loc),
		End:    time.Date(2026, time.October, 3, 9, 0, 0, 0, loc),
		Status: StatusAll,
	})
	require.NoError(t, err)
	require.Len(t, report.Entries, 2)

	assert.Equal(t, "Gula", report.Entries[0].Item.Name)
	assert.Equal(t, 30, report.Entries[0].Sales)
	assert.Equal(t, StatusUrgent, report.Entries[0].Status)
	assert.Len(t, report.Entries[0].Events, 2)

	assert.Equal(t, "Kopi", report.Entries[1].Item.Name)
	assert.Equal(t, 30, report.Entries[1].Sales)
	assert.Equal(t, StatusSufficient, report.Entries[1].Status)

	assert.Equal(t, 1, rec.counts["URGENT"])
	assert.Equal(t, 0, rec.counts["PREPARE"])
	assert.Equal(t, 1, rec.counts["SUFFICIENT"])
}

func TestSalesReportRejectsReversedWindow(t *testing.T) {
	svc := NewService(
		memory.NewCollection[models.Item](repository.CollectionItems),
		memory.NewCollection[models.OutgoingEvent](repository.CollectionOutgoing),
		time.UTC, nil, nil,
	)
	_, err := svc.SalesReport(context.Background(), Query{
		Start: time.Date(2026, time.October, 5, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrInvalidWindow)
}

func TestRestockSummaryListsItemsNeedingAttention(t *testing.T) {
	ctx := context.Background()
	items := memory.NewCollection[models.Item](repository.CollectionItems)
	outgoing := memory.NewCollection[models.OutgoingEvent](repository.CollectionOutgoing)

	gula, err := items.Create(ctx, models.Item{Code: "A1", Name: "Gula", Stock: 5})
	require.NoError(t, err)
	_, err = items.Create(ctx, models.Item{Code: "B1", Name: "Kopi", Stock: 100})
	require.NoError(t, err)
	_, err = outgoing.Create(ctx, models.OutgoingEvent{ItemID: gula, Quantity: 10})
	require.NoError(t, err)

	svc := NewService(items, outgoing, time.UTC, nil, nil)
	text, err := svc.RestockSummary(ctx, 7)
	require.NoError(t, err)

	assert.Contains(t, text, "1 URGENT")
	assert.Contains(t, text, "[URGENT] Gula (A1): stok 5, terjual 10")
	assert.NotContains(t, text, "Kopi")
}
