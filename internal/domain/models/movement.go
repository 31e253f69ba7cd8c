package models

import "time"

// IncomingSource tells where received stock came from.
type IncomingSource string

const (
	SourceExpedition IncomingSource = "EXPEDITION"
	SourceReturn     IncomingSource = "RETURN"
)

// Valid reports whether the source is one of the known values.
func (s IncomingSource) Valid() bool {
	return s == SourceExpedition || s == SourceReturn
}

// IncomingEvent records stock added to an item. ExpeditionNumber is set for
// expedition shipments, ReturnReason for customer returns, never both.
type IncomingEvent struct {
	ID               string         `bson:"_id,omitempty" json:"id"`
	ItemID           string         `bson:"item_id" json:"item_id"`
	Quantity         int            `bson:"quantity" json:"quantity"`
	Source           IncomingSource `bson:"source" json:"source"`
	ExpeditionNumber string         `bson:"expedition_number,omitempty" json:"expedition_number,omitempty"`
	ReturnReason     string         `bson:"return_reason,omitempty" json:"return_reason,omitempty"`
	Date             string         `bson:"date" json:"date"`
	Time             string         `bson:"time" json:"time"`
	CreatedAt        time.Time      `bson:"created_at" json:"created_at"`
}

// Detail returns the source specific detail field.
func (e IncomingEvent) Detail() string {
	if e.Source == SourceExpedition {
		return e.ExpeditionNumber
	}
	return e.ReturnReason
}

// OutgoingEvent records a sale.
type OutgoingEvent struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	ItemID    string    `bson:"item_id" json:"item_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	Date      string    `bson:"date" json:"date"`
	Time      string    `bson:"time" json:"time"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// IncomingRequest is the input for recording received stock.
type IncomingRequest struct {
	ItemID   string         `json:"item_id" binding:"required"`
	Quantity int            `json:"quantity" binding:"required"`
	Source   IncomingSource `json:"source" binding:"required"`
	Detail   string         `json:"detail"`
}

// OutgoingRequest is the input for recording a sale.
type OutgoingRequest struct {
	ItemID   string `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
}

// IncomingEntry is an incoming event joined with its item for listings.
type IncomingEntry struct {
	IncomingEvent
	ItemCode string `json:"item_code"`
	ItemName string `json:"item_name"`
}

// OutgoingEntry is an outgoing event joined with its item for listings.
type OutgoingEntry struct {
	OutgoingEvent
	ItemCode string `json:"item_code"`
	ItemName string `json:"item_name"`
}
