package models

import "time"

// Item is a trackable stock-keeping unit. Stock is only ever changed by the
// ledger; InitialStock keeps the quantity the item was created with so the
// current stock can be re-derived from the event history.
type Item struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	Code         string    `bson:"code" json:"code"`
	Name         string    `bson:"name" json:"name"`
	Stock        int       `bson:"stock" json:"stock"`
	InitialStock int       `bson:"initial_stock" json:"initial_stock"`
	DateAdded    string    `bson:"date_added" json:"date_added"`
	TimeAdded    string    `bson:"time_added" json:"time_added"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
}

// NewItem is the input accepted when registering an item.
type NewItem struct {
	Code  string `json:"code" binding:"required"`
	Name  string `json:"name" binding:"required"`
	Stock int    `json:"stock"`
}

// ImportRow is one row of an item or sales spreadsheet
// ("Kode Barang", "Nama Barang", "Jumlah").
type ImportRow struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}
