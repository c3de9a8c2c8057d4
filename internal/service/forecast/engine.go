package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/domain/models"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/service/assignment"
)

// Store is the read-only slice of the remote store the forecast needs.
// Forecasting never mutates anything and tolerates stale reads.
type Store interface {
	ActiveLots(ctx context.Context, farmID string) ([]models.Lot, error)
	ActiveAssignments(ctx context.Context, farmID string) ([]models.LotStockAssignment, error)
	StockItems(ctx context.Context, farmID string) ([]models.StockItem, error)
	ConsumptionEntriesSince(ctx context.Context, farmID, sinceDay string) ([]models.ConsumptionLogEntry, error)
}

// DefaultTrailingWindowDays is how far back the engine looks when deriving
// a draw-down rate from audit history instead of assignments.
const DefaultTrailingWindowDays = 7

// DaysRemaining returns how many whole days of stock remain at the given
// daily draw-down. The second return is false when the draw-down is not
// positive: "no active consumers" is a valid state with an infinite
// horizon, not a division error.
func DaysRemaining(quantityKg, dailyDrawDownKg float64) (int, bool) {
	if dailyDrawDownKg <= 0 {
		return 0, false
	}
	if quantityKg <= 0 {
		return 0, true
	}

	days := decimal.NewFromFloat(quantityKg).
		Div(decimal.NewFromFloat(dailyDrawDownKg)).
		Floor().
		IntPart()
	return int(days), true
}

// Engine assembles the stock overview the UI consumes: per item status,
// draw-down, days-remaining and the consuming-lot breakdown.
type Engine struct {
	store              Store
	resolver           *assignment.Resolver
	loc                *time.Location
	trailingWindowDays int
	logger             *zap.Logger
	now                func() time.Time
}

// NewEngine constructs a forecast engine.
func NewEngine(store Store, resolver *assignment.Resolver, loc *time.Location, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{
		store:              store,
		resolver:           resolver,
		loc:                loc,
		trailingWindowDays: DefaultTrailingWindowDays,
		logger:             logger,
		now:                time.Now,
	}
}

// Overview computes the current stock projection for one farm. Pure read;
// safe to call concurrently and as often as the UI likes.
func (e *Engine) Overview(ctx context.Context, farmID string) (*models.StockOverview, error) {
	lots, err := e.store.ActiveLots(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("load active lots: %w", err)
	}
	assignments, err := e.store.ActiveAssignments(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("load active assignments: %w", err)
	}
	items, err := e.store.StockItems(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("load stock items: %w", err)
	}

	stock := make(map[string]models.StockItem, len(items))
	for _, item := range items {
		stock[item.ID] = item
	}

	today := e.now()
	resolutions := e.resolver.Resolve(lots, assignments, stock, today, e.loc)

	consumers := make(map[string][]models.ConsumingLot)
	assigned := make(map[string]decimal.Decimal)
	for _, res := range resolutions {
		assigned[res.StockItemID] = assigned[res.StockItemID].Add(decimal.NewFromFloat(res.DailyKg))
		consumers[res.StockItemID] = append(consumers[res.StockItemID], models.ConsumingLot{
			LotID:        res.Lot.ID,
			LotName:      res.Lot.Name,
			Headcount:    res.Lot.Headcount,
			DailyKg:      res.DailyKg,
			CurveDerived: res.CurveDerived,
		})
	}

	trailing := e.trailingRates(ctx, farmID, today)

	overview := &models.StockOverview{
		FarmID: farmID,
		Day:    models.Day(today, e.loc),
		Items:  make([]models.StockOverviewItem, 0, len(items)),
	}

	for _, item := range items {
		rate := assigned[item.ID]
		if rate.IsZero() {
			rate = trailing[item.ID]
		}
		drawDownKg := rate.Round(6).InexactFloat64()

		quantityKg, known := models.ConvertUnitToKg(item.Quantity, item.Unit)
		if !known {
			e.logger.Warn("stock item has unknown unit, treating as kg",
				zap.String("stock_item_id", item.ID), zap.String("unit", item.Unit))
		}

		entry := models.StockOverviewItem{
			Item:            item,
			Status:          models.ClassifyStock(item, len(consumers[item.ID]) > 0),
			DailyDrawDownKg: drawDownKg,
			Consumers:       consumers[item.ID],
		}
		if days, finite := DaysRemaining(quantityKg, drawDownKg); finite {
			entry.DaysRemaining = &days
		}
		if item.InitialQuantity > 0 {
			pct := item.Quantity / item.InitialQuantity * 100
			if pct < 0 {
				pct = 0
			}
			if pct > 100 {
				pct = 100
			}
			entry.PercentRemaining = &pct
		}

		overview.Items = append(overview.Items, entry)
	}

	return overview, nil
}

// trailingRates derives an average daily draw-down per stock item from the
// recent audit history. Used for items that are consumed manually or whose
// assignments went inactive; failures degrade to "no rate" silently since
// the assigned rate path does not depend on history.
func (e *Engine) trailingRates(ctx context.Context, farmID string, today time.Time) map[string]decimal.Decimal {
	since := models.Day(today.AddDate(0, 0, -e.trailingWindowDays), e.loc)
	entries, err := e.store.ConsumptionEntriesSince(ctx, farmID, since)
	if err != nil {
		e.logger.Warn("trailing consumption lookup failed", zap.String("farm_id", farmID), zap.Error(err))
		return nil
	}

	sums := make(map[string]decimal.Decimal)
	days := make(map[string]map[string]bool)
	for _, entry := range entries {
		sums[entry.StockItemID] = sums[entry.StockItemID].Add(decimal.NewFromFloat(entry.ConsumedKg))
		if days[entry.StockItemID] == nil {
			days[entry.StockItemID] = make(map[string]bool)
		}
		days[entry.StockItemID][entry.Day] = true
	}

	rates := make(map[string]decimal.Decimal, len(sums))
	for id, sum := range sums {
		if n := len(days[id]); n > 0 {
			rates[id] = sum.Div(decimal.NewFromInt(int64(n)))
		}
	}
	return rates
}
