package reporting

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/domain/models"
	"github.com/mamadbah2/praya-stock/internal/repository"
)

// Status is the restock urgency of an item.
type Status string

const (
	StatusUrgent     Status = "URGENT"
	StatusPrepare    Status = "PREPARE"
	StatusSufficient Status = "SUFFICIENT"
	// StatusAll disables the status filter.
	StatusAll Status = "ALL"
)

var (
	ErrInvalidStatus = errors.New("status must be ALL, URGENT, PREPARE or SUFFICIENT")
	ErrInvalidWindow = errors.New("report start must not be after end")
)

var (
	urgentFactor     = decimal.RequireFromString("1.75")
	sufficientFactor = decimal.RequireFromString("2.5")
)

var statusRank = map[Status]int{
	StatusUrgent:     0,
	StatusPrepare:    1,
	StatusSufficient: 2,
}

// Classify maps current stock and sales over a window to a restock status.
// Stock above 2.5x sales is sufficient, below 1.75x sales is urgent.
func Classify(stock, sales int) Status {
	s := decimal.NewFromInt(int64(stock))
	v := decimal.NewFromInt(int64(sales))

	if s.GreaterThan(v.Mul(sufficientFactor)) {
		return StatusSufficient
	}
	if s.LessThan(v.Mul(urgentFactor)) {
		return StatusUrgent
	}
	return StatusPrepare
}

// ParseStatus accepts a status filter; empty means ALL.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.ToUpper(strings.TrimSpace(raw)))
	if status == "" {
		return StatusAll, nil
	}
	if status == StatusAll {
		return status, nil
	}
	if _, ok := statusRank[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return status, nil
}

// Window turns two calendar dates into an inclusive instant range in loc: the
// start of the first day to the last nanosecond of the second.
func Window(start, end time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}
	start = start.In(loc)
	end = end.In(loc)
	from := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
	to := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	return from, to
}

// Entry is one item's line in the sales report.
type Entry struct {
	Item   models.Item            `json:"item"`
	Sales  int                    `json:"sales"`
	Status Status                 `json:"status"`
	Events []models.OutgoingEvent `json:"events"`
}

// BuildReport sums sales per item and classifies every item, keeping item
// order. Events for unknown items are ignored.
func BuildReport(items []models.Item, events []models.OutgoingEvent) []Entry {
	byItem := make(map[string][]models.OutgoingEvent, len(items))
	for _, ev := range events {
		byItem[ev.ItemID] = append(byItem[ev.ItemID], ev)
	}

	entries := make([]Entry, 0, len(items))
	for _, item := range items {
		sold := byItem[item.ID]
		total := 0
		for _, ev := range sold {
			total += ev.Quantity
		}
		if sold == nil {
			sold = []models.OutgoingEvent{}
		}
		entries = append(entries, Entry{
			Item:   item,
			Sales:  total,
			Status: Classify(item.Stock, total),
			Events: sold,
		})
	}
	return entries
}

// FilterAndSort keeps entries whose name contains search (case-insensitive)
// and whose status matches, then orders them URGENT, PREPARE, SUFFICIENT.
// Equal statuses keep their relative order.
func FilterAndSort(entries []Entry, search string, status Status) []Entry {
	needle := strings.ToLower(strings.TrimSpace(search))

	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if needle != "" && !strings.Contains(strings.ToLower(e.Item.Name), needle) {
			continue
		}
		if status != "" && status != StatusAll && e.Status != status {
			continue
		}
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return statusRank[out[i].Status] < statusRank[out[j].Status]
	})
	return out
}

// Query selects a sales report.
type Query struct {
	Start  time.Time
	End    time.Time
	Search string
	Status Status
}

// Report is a classified sales report. Counts cover every item, before
// filtering.
type Report struct {
	Start   time.Time      `json:"start"`
	End     time.Time      `json:"end"`
	Entries []Entry        `json:"entries"`
	Counts  map[Status]int `json:"counts"`
}

// StatusRecorder receives the status counts of each generated report.
type StatusRecorder interface {
	RestockStatuses(counts map[string]int)
}

// Service builds sales reports from the item and outgoing collections.
type Service struct {
	items    repository.Collection[models.Item]
	outgoing repository.Collection[models.OutgoingEvent]
	recorder StatusRecorder
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(
	items repository.Collection[models.Item],
	outgoing repository.Collection[models.OutgoingEvent],
	loc *time.Location,
	recorder StatusRecorder,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		items:    items,
		outgoing: outgoing,
		recorder: recorder,
		loc:      loc,
		now:      time.Now,
		logger:   logger,
	}
}

// SalesReport builds the classified, filtered and sorted report for q.
func (s *Service) SalesReport(ctx context.Context, q Query) (Report, error) {
	from, to := Window(q.Start, q.End, s.loc)
	if from.After(to) {
		return Report{}, ErrInvalidWindow
	}

	items, err := s.items.List(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("load items: %w", err)
	}
	events, err := s.outgoing.QueryByDateRange(ctx, from.UTC(), to.UTC())
	if err != nil {
		return Report{}, fmt.Errorf("load outgoing events: %w", err)
	}

	entries := BuildReport(items, events)
	counts := map[Status]int{StatusUrgent: 0, StatusPrepare: 0, StatusSufficient: 0}
	for _, e := range entries {
		counts[e.Status]++
	}
	s.recordCounts(counts)

	s.logger.Debug("sales report built",
		zap.Time("start", from),
		zap.Time("end", to),
		zap.Int("items", len(items)),
		zap.Int("events", len(events)),
	)

	return Report{
		Start:   from,
		End:     to,
		Entries: FilterAndSort(entries, q.Search, q.Status),
		Counts:  counts,
	}, nil
}

// RestockSummary formats the items needing attention over the last days days,
// ending today.
func (s *Service) RestockSummary(ctx context.Context, days int) (string, error) {
	if days < 1 {
		days = 1
	}
	end := s.now().In(s.loc)
	start := end.AddDate(0, 0, -(days - 1))

	report, err := s.SalesReport(ctx, Query{Start: start, End: end, Status: StatusAll})
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Laporan restok %s - %s: %d URGENT, %d PREPARE, %d SUFFICIENT.",
		models.FormatDate(report.Start), models.FormatDate(report.End),
		report.Counts[StatusUrgent], report.Counts[StatusPrepare], report.Counts[StatusSufficient])

	listed := 0
	for _, e := range report.Entries {
		if e.Status == StatusSufficient {
			continue
		}
		fmt.Fprintf(&b, "\n- [%s] %s (%s): stok %d, terjual %d", e.Status, e.Item.Name, e.Item.Code, e.Item.Stock, e.Sales)
		listed++
	}
	if listed == 0 {
		b.WriteString("\nSemua stok aman.")
	}
	return b.String(), nil
}

func (s *Service) recordCounts(counts map[Status]int) {
	if s.recorder == nil {
		return
	}
	plain := make(map[string]int, len(counts))
	for status, n := range counts {
		plain[string(status)] = n
	}
	s.recorder.RestockStatuses(plain)
}
