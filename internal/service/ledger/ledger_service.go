package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/domain/models"
	"github.com/mamadbah2/praya-stock/internal/messaging"
	"github.com/mamadbah2/praya-stock/internal/repository"
)

// Recorder receives one call per ledger operation.
type Recorder interface {
	LedgerOperation(op string, err error)
}

type nopRecorder struct{}

func (nopRecorder) LedgerOperation(string, error) {}

// Service keeps item stock consistent with incoming and outgoing events.
//
// Every mutation adjusts the stored stock as a side effect of writing or
// deleting an event. Mutations are serialised within the process; nothing
// protects against other processes writing the same documents, which is what
// Reconcile is for.
type Service struct {
	items     repository.Collection[models.Item]
	incoming  repository.Collection[models.IncomingEvent]
	outgoing  repository.Collection[models.OutgoingEvent]
	publisher messaging.Publisher
	metrics   Recorder
	logger    *zap.Logger
	now       func() time.Time
	loc       *time.Location

	mu sync.Mutex
}

// Option customises a Service.
type Option func(*Service)

// WithPublisher publishes a StockEvent after each successful mutation.
func WithPublisher(p messaging.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithRecorder counts operations.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithClock overrides the time source used for date/time stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone used to format date/time stamps.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewService wires a ledger over the three collections.
func NewService(
	items repository.Collection[models.Item],
	incoming repository.Collection[models.IncomingEvent],
	outgoing repository.Collection[models.OutgoingEvent],
	logger *zap.Logger,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		items:     items,
		incoming:  incoming,
		outgoing:  outgoing,
		publisher: messaging.NopPublisher{},
		metrics:   nopRecorder{},
		logger:    logger,
		now:       time.Now,
		loc:       time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddItem registers a new item with its initial stock.
func (s *Service) AddItem(ctx context.Context, in models.NewItem) (item models.Item, err error) {
	defer func() { s.metrics.LedgerOperation("add_item", err) }()

	in, err = normalizeNewItem(in)
	if err != nil {
		return models.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	date, clock := s.stamp()
	return s.createItem(ctx, in, date, clock)
}

// AddItemsBulk registers every row with the same date/time stamp. Duplicate
// codes are accepted. Rows are validated before anything is written; if a
// write fails, items created earlier in the batch are removed again.
func (s *Service) AddItemsBulk(ctx context.Context, rows []models.ImportRow) (created []models.Item, err error) {
	defer func() { s.metrics.LedgerOperation("add_items_bulk", err) }()

	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}

	inputs := make([]models.NewItem, 0, len(rows))
	for i, row := range rows {
		in, err := normalizeNewItem(models.NewItem{Code: row.Code, Name: row.Name, Stock: row.Quantity})
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		inputs = append(inputs, in)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	date, clock := s.stamp()
	created = make([]models.Item, 0, len(inputs))
	for i, in := range inputs {
		item, err := s.createItem(ctx, in, date, clock)
		if err != nil {
			s.rollbackItems(ctx, created)
			return nil, fmt.Errorf("%w at row %d: %w", ErrBatchAborted, i+1, err)
		}
		created = append(created, item)
	}

	s.logger.Info("items imported", zap.Int("count", len(created)))
	return created, nil
}

// RenameItem changes only the item's name.
func (s *Service) RenameItem(ctx context.Context, id, name string) (item models.Item, err error) {
	defer func() { s.metrics.LedgerOperation("rename_item", err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return models.Item{}, ErrInvalidItem
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, err = s.getItem(ctx, id)
	if err != nil {
		return models.Item{}, err
	}

	if err := s.items.Update(ctx, id, repository.Fields{"name": name}); err != nil {
		return models.Item{}, fmt.Errorf("rename item %s: %w", id, err)
	}
	item.Name = name

	s.publish(ctx, models.EventItemRenamed, id, 0, item.Stock)
	return item, nil
}

// DeleteItem removes an item that no incoming or outgoing event references.
func (s *Service) DeleteItem(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.LedgerOperation("delete_item", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	incoming, err := s.incoming.FindByField(ctx, "item_id", id)
	if err != nil {
		return fmt.Errorf("check incoming history: %w", err)
	}
	outgoing, err := s.outgoing.FindByField(ctx, "item_id", id)
	if err != nil {
		return fmt.Errorf("check outgoing history: %w", err)
	}
	if len(incoming) > 0 || len(outgoing) > 0 {
		return fmt.Errorf("%w: %d incoming, %d outgoing", ErrItemHasHistory, len(incoming), len(outgoing))
	}

	if err := s.items.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, models.EventItemDeleted, id, 0, 0)
	return nil
}

// RecordIncoming stores a stock-in event and raises the item's stock.
func (s *Service) RecordIncoming(ctx context.Context, req models.IncomingRequest) (event models.IncomingEvent, err error) {
	defer func() { s.metrics.LedgerOperation("record_incoming", err) }()

	detail := strings.TrimSpace(req.Detail)
	switch {
	case req.Quantity <= 0:
		return models.IncomingEvent{}, ErrInvalidQuantity
	case !req.Source.Valid():
		return models.IncomingEvent{}, fmt.Errorf("%w: %q", ErrInvalidSource, req.Source)
	case detail == "":
		return models.IncomingEvent{}, ErrMissingDetail
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getItem(ctx, req.ItemID); err != nil {
		return models.IncomingEvent{}, err
	}

	date, clock := s.stamp()
	event = models.IncomingEvent{
		ItemID:   req.ItemID,
		Quantity: req.Quantity,
		Source:   req.Source,
		Date:     date,
		Time:     clock,
	}
	if req.Source == models.SourceExpedition {
		event.ExpeditionNumber = detail
	} else {
		event.ReturnReason = detail
	}

	id, err := s.incoming.Create(ctx, event)
	if err != nil {
		return models.IncomingEvent{}, fmt.Errorf("store incoming event: %w", err)
	}
	event.ID = id

	stock, err := s.adjustStock(ctx, req.ItemID, req.Quantity)
	if err != nil {
		if delErr := s.incoming.Delete(ctx, id); delErr != nil {
			s.logger.Error("failed to undo incoming event", zap.String("event_id", id), zap.Error(delErr))
		}
		return models.IncomingEvent{}, err
	}

	s.publish(ctx, models.EventStockIncoming, req.ItemID, req.Quantity, stock)
	return event, nil
}

// RecordOutgoing stores a single sale and lowers the item's stock.
func (s *Service) RecordOutgoing(ctx context.Context, req models.OutgoingRequest) (event models.OutgoingEvent, err error) {
	defer func() { s.metrics.LedgerOperation("record_outgoing", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.recordOutgoingBatch(ctx, []models.OutgoingRequest{req})
	if err != nil {
		return models.OutgoingEvent{}, err
	}
	return events[0], nil
}

// RecordOutgoingBatch validates every row against a running balance per item
// before writing anything: an unknown item or insufficient stock rejects the
// whole batch. Rows are then written one at a time; if a write fails the rows
// already written are rolled back.
func (s *Service) RecordOutgoingBatch(ctx context.Context, reqs []models.OutgoingRequest) (events []models.OutgoingEvent, err error) {
	defer func() { s.metrics.LedgerOperation("record_outgoing_batch", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.recordOutgoingBatch(ctx, reqs)
}

// ImportOutgoing resolves spreadsheet rows by item code (first item with the
// code wins) and records them as one outgoing batch.
func (s *Service) ImportOutgoing(ctx context.Context, rows []models.ImportRow) (events []models.OutgoingEvent, err error) {
	defer func() { s.metrics.LedgerOperation("import_outgoing", err) }()

	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	byCode := make(map[string]models.Item, len(items))
	for _, item := range items {
		if _, exists := byCode[item.Code]; !exists {
			byCode[item.Code] = item
		}
	}

	reqs := make([]models.OutgoingRequest, 0, len(rows))
	for i, row := range rows {
		item, ok := byCode[strings.TrimSpace(row.Code)]
		if !ok {
			return nil, fmt.Errorf("row %d: %w: %q", i+1, ErrUnknownItemCode, row.Code)
		}
		reqs = append(reqs, models.OutgoingRequest{ItemID: item.ID, Quantity: row.Quantity})
	}

	return s.recordOutgoingBatch(ctx, reqs)
}

// DeleteOutgoing removes a sale and gives its quantity back to the item.
func (s *Service) DeleteOutgoing(ctx context.Context, id string) (err error) {
	defer func() { s.metrics.LedgerOperation("delete_outgoing", err) }()

	s.mu.Lock()
	defer s.mu.Unlock()

	event, err := s.outgoing.Get(ctx, id)
	if err != nil {
		return err
	}

	stock, err := s.adjustStock(ctx, event.ItemID, event.Quantity)
	if err != nil {
		return err
	}

	if err := s.outgoing.Delete(ctx, id); err != nil {
		if _, undoErr := s.adjustStock(ctx, event.ItemID, -event.Quantity); undoErr != nil {
			s.logger.Error("failed to undo stock restore", zap.String("event_id", id), zap.Error(undoErr))
		}
		return fmt.Errorf("delete outgoing event: %w", err)
	}

	s.publish(ctx, models.EventOutgoingDeleted, event.ItemID, event.Quantity, stock)
	return nil
}

// ListItems returns every item in store order.
func (s *Service) ListItems(ctx context.Context) ([]models.Item, error) {
	return s.items.List(ctx)
}

// IncomingHistory lists incoming events joined with their item.
func (s *Service) IncomingHistory(ctx context.Context) ([]models.IncomingEntry, error) {
	index, err := s.itemIndex(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.incoming.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load incoming events: %w", err)
	}

	out := make([]models.IncomingEntry, 0, len(events))
	for _, ev := range events {
		item := index[ev.ItemID]
		out = append(out, models.IncomingEntry{IncomingEvent: ev, ItemCode: item.Code, ItemName: item.Name})
	}
	return out, nil
}

// OutgoingHistory lists outgoing events joined with their item.
func (s *Service) OutgoingHistory(ctx context.Context) ([]models.OutgoingEntry, error) {
	index, err := s.itemIndex(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.outgoing.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load outgoing events: %w", err)
	}

	out := make([]models.OutgoingEntry, 0, len(events))
	for _, ev := range events {
		item := index[ev.ItemID]
		out = append(out, models.OutgoingEntry{OutgoingEvent: ev, ItemCode: item.Code, ItemName: item.Name})
	}
	return out, nil
}

// SubscribeItems forwards live item snapshots.
func (s *Service) SubscribeItems(onChange func([]models.Item), onError func(error)) repository.Unsubscribe {
	return s.items.Subscribe(onChange, onError)
}

// SubscribeIncoming forwards live incoming event snapshots.
func (s *Service) SubscribeIncoming(onChange func([]models.IncomingEvent), onError func(error)) repository.Unsubscribe {
	return s.incoming.Subscribe(onChange, onError)
}

// SubscribeOutgoing forwards live outgoing event snapshots.
func (s *Service) SubscribeOutgoing(onChange func([]models.OutgoingEvent), onError func(error)) repository.Unsubscribe {
	return s.outgoing.Subscribe(onChange, onError)
}

func (s *Service) recordOutgoingBatch(ctx context.Context, reqs []models.OutgoingRequest) ([]models.OutgoingEvent, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}

	balances := make(map[string]int, len(reqs))
	for i, req := range reqs {
		if req.Quantity <= 0 {
			return nil, fmt.Errorf("row %d: %w", i+1, ErrInvalidQuantity)
		}

		balance, seen := balances[req.ItemID]
		var name string
		if !seen {
			item, err := s.getItem(ctx, req.ItemID)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			balance, name = item.Stock, item.Name
		}
		if balance < req.Quantity {
			if name == "" {
				if item, err := s.items.Get(ctx, req.ItemID); err == nil {
					name = item.Name
				}
			}
			return nil, fmt.Errorf("row %d: %w for item %q (available %d, requested %d)",
				i+1, ErrInsufficientStock, name, balance, req.Quantity)
		}
		balances[req.ItemID] = balance - req.Quantity
	}

	date, clock := s.stamp()
	committed := make([]models.OutgoingEvent, 0, len(reqs))
	for i, req := range reqs {
		event, err := s.commitOutgoing(ctx, req, date, clock)
		if err != nil {
			s.rollbackOutgoing(ctx, committed)
			return nil, fmt.Errorf("%w at row %d: %w", ErrBatchAborted, i+1, err)
		}
		committed = append(committed, event)
	}
	return committed, nil
}

func (s *Service) commitOutgoing(ctx context.Context, req models.OutgoingRequest, date, clock string) (models.OutgoingEvent, error) {
	event := models.OutgoingEvent{ItemID: req.ItemID, Quantity: req.Quantity, Date: date, Time: clock}

	id, err := s.outgoing.Create(ctx, event)
	if err != nil {
		return models.OutgoingEvent{}, fmt.Errorf("store outgoing event: %w", err)
	}
	event.ID = id

	stock, err := s.adjustStock(ctx, req.ItemID, -req.Quantity)
	if err != nil {
		if delErr := s.outgoing.Delete(ctx, id); delErr != nil {
			s.logger.Error("failed to undo outgoing event", zap.String("event_id", id), zap.Error(delErr))
		}
		return models.OutgoingEvent{}, err
	}

	s.publish(ctx, models.EventStockOutgoing, req.ItemID, req.Quantity, stock)
	return event, nil
}

func (s *Service) rollbackOutgoing(ctx context.Context, committed []models.OutgoingEvent) {
	for i := len(committed) - 1; i >= 0; i-- {
		event := committed[i]
		if _, err := s.adjustStock(ctx, event.ItemID, event.Quantity); err != nil {
			s.logger.Error("rollback: failed to restore stock", zap.String("event_id", event.ID), zap.Error(err))
			continue
		}
		if err := s.outgoing.Delete(ctx, event.ID); err != nil {
			s.logger.Error("rollback: failed to delete outgoing event", zap.String("event_id", event.ID), zap.Error(err))
		}
	}
	if len(committed) > 0 {
		s.logger.Warn("outgoing batch rolled back", zap.Int("rows", len(committed)))
	}
}

func (s *Service) rollbackItems(ctx context.Context, created []models.Item) {
	for i := len(created) - 1; i >= 0; i-- {
		if err := s.items.Delete(ctx, created[i].ID); err != nil {
			s.logger.Error("rollback: failed to delete item", zap.String("item_id", created[i].ID), zap.Error(err))
		}
	}
	if len(created) > 0 {
		s.logger.Warn("item batch rolled back", zap.Int("rows", len(created)))
	}
}

func (s *Service) createItem(ctx context.Context, in models.NewItem, date, clock string) (models.Item, error) {
	item := models.Item{
		Code:         in.Code,
		Name:         in.Name,
		Stock:        in.Stock,
		InitialStock: in.Stock,
		DateAdded:    date,
		TimeAdded:    clock,
	}

	id, err := s.items.Create(ctx, item)
	if err != nil {
		return models.Item{}, fmt.Errorf("store item %q: %w", in.Code, err)
	}
	item.ID = id

	s.publish(ctx, models.EventItemCreated, id, item.Stock, item.Stock)
	return item, nil
}

// adjustStock applies delta to the stored stock and returns the new value.
// An item that no longer exists is skipped silently.
func (s *Service) adjustStock(ctx context.Context, itemID string, delta int) (int, error) {
	item, err := s.items.Get(ctx, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("stock adjustment skipped, item vanished",
			zap.String("item_id", itemID), zap.Int("delta", delta))
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load item %s: %w", itemID, err)
	}

	stock := item.Stock + delta
	if err := s.items.Update(ctx, itemID, repository.Fields{"stock": stock}); err != nil {
		return 0, fmt.Errorf("update stock of %s: %w", itemID, err)
	}
	return stock, nil
}

func (s *Service) getItem(ctx context.Context, id string) (models.Item, error) {
	item, err := s.items.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Item{}, fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if err != nil {
		return models.Item{}, fmt.Errorf("load item %s: %w", id, err)
	}
	return item, nil
}

func (s *Service) itemIndex(ctx context.Context) (map[string]models.Item, error) {
	items, err := s.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	index := make(map[string]models.Item, len(items))
	for _, item := range items {
		index[item.ID] = item
	}
	return index, nil
}

func (s *Service) stamp() (string, string) {
	now := s.now().In(s.loc)
	return models.FormatDate(now), models.FormatTime(now)
}

func (s *Service) publish(ctx context.Context, kind models.StockEventType, itemID string, qty, stock int) {
	event := models.StockEvent{
		Type:      kind,
		ItemID:    itemID,
		Quantity:  qty,
		Stock:     stock,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.PublishStockEvent(ctx, event); err != nil {
		s.logger.Warn("failed to publish stock event", zap.String("type", string(kind)), zap.Error(err))
	}
}

func normalizeNewItem(in models.NewItem) (models.NewItem, error) {
	in.Code = strings.TrimSpace(in.Code)
	in.Name = strings.TrimSpace(in.Name)
	if in.Code == "" || in.Name == "" {
		return in, ErrInvalidItem
	}
	if in.Stock < 0 {
		return in, ErrNegativeStock
	}
	return in, nil
}
