package model

import "time"

type InventoryStatus string

const (
	InventoryActive   InventoryStatus = "active"
	InventoryArchived InventoryStatus = "archived"
)

// InventoryRecord is the authoritative on-hand quantity for one item code at
// one location. Quantity changes only as a side effect of a committed ledger
// entry; rows are archived rather than deleted.
type InventoryRecord struct {
	ID        string          `db:"id" json:"id"`
	Code      string          `db:"code" json:"code"`
	Name      string          `db:"name" json:"name"`
	Unit      string          `db:"unit" json:"unit"`
	Category  string          `db:"category" json:"category"`
	Location  string          `db:"location" json:"location"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Status    InventoryStatus `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// ItemMeta carries the descriptive attributes used to seed a record on first
// receipt of a code at a location.
type ItemMeta struct {
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
}
