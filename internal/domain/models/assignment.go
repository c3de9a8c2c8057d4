package models

// LotStockAssignment links a lot to the stock item feeding it. A positive
// DailyPerBirdKg is a manual override ration; zero means "derive the
// ration from the species feed curve". At most one active assignment per
// lot is the intended invariant; when the data violates it the resolver
// keeps the first and logs the rest.
type LotStockAssignment struct {
	ID             string  `bson:"_id" json:"id"`
	FarmID         string  `bson:"farm_id" json:"farm_id"`
	LotID          string  `bson:"lot_id" json:"lot_id"`
	StockItemID    string  `bson:"stock_item_id" json:"stock_item_id"`
	DailyPerBirdKg float64 `bson:"daily_per_bird_kg" json:"daily_per_bird_kg"`
	Active         bool    `bson:"active" json:"active"`
}

// ManualOverride reports whether the assignment carries an explicit ration.
func (a LotStockAssignment) ManualOverride() bool {
	return a.DailyPerBirdKg > 0
}
