package models

import "time"

// StockEventType names a ledger mutation published to downstream consumers.
type StockEventType string

const (
	EventItemCreated     StockEventType = "item.created"
	EventItemRenamed     StockEventType = "item.renamed"
	EventItemDeleted     StockEventType = "item.deleted"
	EventStockIncoming   StockEventType = "stock.incoming"
	EventStockOutgoing   StockEventType = "stock.outgoing"
	EventOutgoingDeleted StockEventType = "stock.outgoing_deleted"
	EventStockReconciled StockEventType = "stock.reconciled"
)

// StockEvent is the message emitted after each successful ledger mutation.
type StockEvent struct {
	Type      StockEventType `json:"type"`
	ItemID    string         `json:"item_id"`
	Quantity  int            `json:"quantity"`
	Stock     int            `json:"stock"`
	Timestamp time.Time      `json:"timestamp"`
}

// StockDrift describes an item whose stored stock disagrees with the stock
// derived from its event history.
type StockDrift struct {
	ItemID   string `json:"item_id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Stored   int    `json:"stored"`
	Derived  int    `json:"derived"`
	Repaired bool   `json:"repaired"`
}
