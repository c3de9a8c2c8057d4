package models

import "time"

// EntryType distinguishes ledger-generated audit rows from manual corrections.
type EntryType string

const (
	EntryTypeAutomatic EntryType = "automatic"
	EntryTypeManual    EntryType = "manual"
)

// ConsumptionLogEntry is one immutable audit row: how much of a stock item
// one lot was planned to consume on one calendar day, and how much was
// actually subtracted (they differ when the decrement clamped at zero).
// Quantities are kilograms regardless of the item's display unit.
// Append-only; the engine never mutates or deletes rows.
type ConsumptionLogEntry struct {
	ID          string    `bson:"_id" json:"id"`
	FarmID      string    `bson:"farm_id" json:"farm_id"`
	StockItemID string    `bson:"stock_item_id" json:"stock_item_id"`
	LotID       string    `bson:"lot_id" json:"lot_id"`
	Day         string    `bson:"day" json:"day"`
	PlannedKg   float64   `bson:"planned_kg" json:"planned_kg"`
	ConsumedKg  float64   `bson:"consumed_kg" json:"consumed_kg"`
	Type        EntryType `bson:"entry_type" json:"entry_type"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// Clamped reports whether the decrement for this row hit the zero floor.
func (e ConsumptionLogEntry) Clamped() bool {
	return e.ConsumedKg < e.PlannedKg
}

// JobRunMarker records, per farm, the last calendar day the ledger job
// committed. It lives in the shared store so that a second device cannot
// re-apply a committed day; it is read before any mutation and advanced
// only after every decrement succeeded.
type JobRunMarker struct {
	FarmID     string    `bson:"_id" json:"farm_id"`
	LastRunDay string    `bson:"last_run_day" json:"last_run_day"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
