package models

// StockCategory separates feed from other tracked supplies.
type StockCategory string

const (
	StockCategoryFeed  StockCategory = "feed"
	StockCategoryOther StockCategory = "other"
)

// Stock units understood by the unit conversion below.
const (
	UnitKilogram = "kg"
	UnitGram     = "g"
)

// StockItem is one tracked inventory position. Quantity is decremented
// exclusively by the consumption ledger job; restocks happen elsewhere.
// Quantity never goes negative: decrements clamp at zero.
type StockItem struct {
	ID              string        `bson:"_id" json:"id"`
	FarmID          string        `bson:"farm_id" json:"farm_id"`
	Name            string        `bson:"name" json:"name"`
	Category        StockCategory `bson:"category" json:"category"`
	Quantity        float64       `bson:"quantity" json:"quantity"`
	Unit            string        `bson:"unit" json:"unit"`
	MinThreshold    float64       `bson:"min_threshold" json:"min_threshold"`
	InitialQuantity float64       `bson:"initial_quantity,omitempty" json:"initial_quantity,omitempty"`
}

// StockStatus classifies a stock item for alerting. Exactly one status
// applies to any item; out-of-stock wins over low.
type StockStatus string

const (
	StockStatusOK         StockStatus = "ok"
	StockStatusLow        StockStatus = "low"
	StockStatusOut        StockStatus = "out"
	StockStatusUnassigned StockStatus = "unassigned"
)

// ClassifyStock resolves the status of a stock item in priority order:
// out > low > unassigned > ok. Unassigned only applies to feed items,
// since only feed is drawn down by lots.
func ClassifyStock(item StockItem, hasActiveAssignment bool) StockStatus {
	switch {
	case item.Quantity <= 0:
		return StockStatusOut
	case item.Quantity <= item.MinThreshold:
		return StockStatusLow
	case item.Category == StockCategoryFeed && !hasActiveAssignment:
		return StockStatusUnassigned
	default:
		return StockStatusOK
	}
}

// ConvertKgToUnit converts a kilogram amount into the item's unit. The
// second return reports whether the unit was recognized; unknown units
// are passed through as kilograms so a bad tag degrades instead of failing.
func ConvertKgToUnit(kg float64, unit string) (float64, bool) {
	switch unit {
	case UnitKilogram, "":
		return kg, true
	case UnitGram:
		return kg * 1000, true
	default:
		return kg, false
	}
}

// ConvertUnitToKg is the inverse of ConvertKgToUnit.
func ConvertUnitToKg(amount float64, unit string) (float64, bool) {
	switch unit {
	case UnitKilogram, "":
		return amount, true
	case UnitGram:
		return amount / 1000, true
	default:
		return amount, false
	}
}

// ConsumingLot describes one lot drawing from a stock item, as shown in
// the stock overview.
type ConsumingLot struct {
	LotID        string  `json:"lot_id"`
	LotName      string  `json:"lot_name"`
	Headcount    int     `json:"headcount"`
	DailyKg      float64 `json:"daily_kg"`
	CurveDerived bool    `json:"curve_derived"`
}

// StockOverviewItem is the UI-facing projection of one stock item.
// DaysRemaining is nil when nothing consumes the item (infinite horizon).
type StockOverviewItem struct {
	Item             StockItem      `json:"item"`
	Status           StockStatus    `json:"status"`
	DailyDrawDownKg  float64        `json:"daily_draw_down_kg"`
	DaysRemaining    *int           `json:"days_remaining,omitempty"`
	PercentRemaining *float64       `json:"percent_remaining,omitempty"`
	Consumers        []ConsumingLot `json:"consumers,omitempty"`
}

// StockOverview aggregates the per-item projections for one farm.
type StockOverview struct {
	FarmID string              `json:"farm_id"`
	Day    string              `json:"day"`
	Items  []StockOverviewItem `json:"items"`
}
