package ledger

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/domain/models"
	"github.com/Latif-jpg/site-aviprod-sub002/internal/service/assignment"
)

// Store is the slice of the remote store the ledger job needs. Every
// mutation it performs must be atomic at the store: the clamped decrement
// is a single compare-and-set style operation, never a read-modify-write
// here on the client side.
type Store interface {
	JobRunMarker(ctx context.Context, farmID string) (string, error)
	SetJobRunMarker(ctx context.Context, farmID, day string) error
	ActiveLots(ctx context.Context, farmID string) ([]models.Lot, error)
	ActiveAssignments(ctx context.Context, farmID string) ([]models.LotStockAssignment, error)
	StockItems(ctx context.Context, farmID string) ([]models.StockItem, error)
	HasAutomaticEntries(ctx context.Context, farmID, stockItemID, day string) (bool, error)
	// DecrementStockClamped subtracts amount (in the item's unit) from the
	// item's quantity, clamping at zero, and returns the amount actually
	// consumed.
	DecrementStockClamped(ctx context.Context, stockItemID string, amount float64) (float64, error)
	AppendConsumptionEntries(ctx context.Context, entries []models.ConsumptionLogEntry) error
}

// Exporter receives committed run reports, e.g. to append a summary row to
// a spreadsheet. Export failures never affect the run outcome.
type Exporter interface {
	ExportRunReport(ctx context.Context, report RunReport) error
}

// RunStatus is the terminal state of one ledger run.
type RunStatus string

const (
	StatusCommitted       RunStatus = "committed"
	StatusPartiallyFailed RunStatus = "partially_failed"
	StatusSkipped         RunStatus = "skipped"
)

// ItemResult records what happened to one stock item during a run.
type ItemResult struct {
	StockItemID    string  `json:"stock_item_id"`
	Name           string  `json:"name"`
	PlannedKg      float64 `json:"planned_kg"`
	ConsumedKg     float64 `json:"consumed_kg"`
	Clamped        bool    `json:"clamped"`
	AlreadyApplied bool    `json:"already_applied"`
	Error          string  `json:"error,omitempty"`
}

// RunReport summarizes one invocation of the daily ledger job.
type RunReport struct {
	FarmID  string       `json:"farm_id"`
	Day     string       `json:"day"`
	Status  RunStatus    `json:"status"`
	Lots    int          `json:"lots"`
	Entries int          `json:"entries"`
	Items   []ItemResult `json:"items,omitempty"`
}

// Job applies each day's feed draw-down to stock exactly once per farm.
// The JobRunMarker in the shared store is the idempotency gate: it is read
// before any mutation and advanced only after every per-item decrement
// succeeded, so an abandoned or partially failed run is retried in full.
// Items already carrying automatic audit rows for the day are skipped on
// retry, which keeps the per-item decrement safe under at-least-once
// invocation.
type Job struct {
	store    Store
	resolver *assignment.Resolver
	exporter Exporter
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewJob wires a ledger job. exporter may be nil.
func NewJob(store Store, resolver *assignment.Resolver, exporter Exporter, loc *time.Location, logger *zap.Logger) *Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Job{
		store:    store,
		resolver: resolver,
		exporter: exporter,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// RunDaily executes one ledger run for the farm. It is safe to call any
// number of times per day and from any number of hosts: once a day is
// committed, further calls are no-ops. A returned error means the run
// could not start (marker or load failure) and should simply be retried
// on the next trigger; per-item failures are reported in the RunReport
// with status PartiallyFailed instead.
func (j *Job) RunDaily(ctx context.Context, farmID string) (*RunReport, error) {
	day := models.Day(j.now(), j.loc)

	lastRun, err := j.store.JobRunMarker(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("read job run marker: %w", err)
	}
	if lastRun == day {
		j.logger.Debug("ledger already committed for day, skipping",
			zap.String("farm_id", farmID), zap.String("day", day))
		return &RunReport{FarmID: farmID, Day: day, Status: StatusSkipped}, nil
	}

	lots, err := j.store.ActiveLots(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("load active lots: %w", err)
	}
	assignments, err := j.store.ActiveAssignments(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("load active assignments: %w", err)
	}
	items, err := j.store.StockItems(ctx, farmID)
	if err != nil {
		return nil, fmt.Errorf("load stock items: %w", err)
	}

	stock := make(map[string]models.StockItem, len(items))
	for _, item := range items {
		stock[item.ID] = item
	}

	resolutions := j.resolver.Resolve(lots, assignments, stock, j.now(), j.loc)
	report := &RunReport{FarmID: farmID, Day: day, Lots: len(resolutions)}

	if len(resolutions) == 0 {
		// Nothing to draw down: commit trivially with an empty log.
		if err := j.store.SetJobRunMarker(ctx, farmID, day); err != nil {
			return nil, fmt.Errorf("advance job run marker: %w", err)
		}
		report.Status = StatusCommitted
		return report, nil
	}

	totals := make(map[string]decimal.Decimal)
	contributions := make(map[string][]assignment.Resolution)
	for _, res := range resolutions {
		totals[res.StockItemID] = totals[res.StockItemID].Add(decimal.NewFromFloat(res.DailyKg))
		contributions[res.StockItemID] = append(contributions[res.StockItemID], res)
	}

	itemIDs := make([]string, 0, len(totals))
	for id := range totals {
		itemIDs = append(itemIDs, id)
	}
	sort.Strings(itemIDs)

	failed := false
	for _, itemID := range itemIDs {
		result := j.applyItem(ctx, farmID, day, stock[itemID], totals[itemID], contributions[itemID])
		if result.Error != "" {
			failed = true
		}
		if !result.AlreadyApplied && result.Error == "" {
			report.Entries += len(contributions[itemID])
		}
		report.Items = append(report.Items, result)
	}

	if failed {
		report.Status = StatusPartiallyFailed
		j.logger.Warn("ledger run partially failed, marker not advanced",
			zap.String("farm_id", farmID), zap.String("day", day))
		return report, nil
	}

	if err := j.store.SetJobRunMarker(ctx, farmID, day); err != nil {
		report.Status = StatusPartiallyFailed
		j.logger.Error("failed advancing job run marker",
			zap.String("farm_id", farmID), zap.String("day", day), zap.Error(err))
		return report, nil
	}
	report.Status = StatusCommitted

	j.logger.Info("ledger run committed",
		zap.String("farm_id", farmID),
		zap.String("day", day),
		zap.Int("lots", report.Lots),
		zap.Int("entries", report.Entries))

	if j.exporter != nil {
		if err := j.exporter.ExportRunReport(ctx, *report); err != nil {
			j.logger.Warn("run report export failed", zap.String("farm_id", farmID), zap.Error(err))
		}
	}

	return report, nil
}

// applyItem decrements one stock item and appends its audit rows. When the
// item already carries automatic rows for the day (a retried run after a
// partial failure) the decrement is skipped entirely.
func (j *Job) applyItem(
	ctx context.Context,
	farmID, day string,
	item models.StockItem,
	plannedKg decimal.Decimal,
	lots []assignment.Resolution,
) ItemResult {
	result := ItemResult{
		StockItemID: item.ID,
		Name:        item.Name,
		PlannedKg:   plannedKg.Round(6).InexactFloat64(),
	}

	if plannedKg.LessThanOrEqual(decimal.Zero) {
		result.AlreadyApplied = true
		return result
	}

	applied, err := j.store.HasAutomaticEntries(ctx, farmID, item.ID, day)
	if err != nil {
		result.Error = fmt.Sprintf("check applied entries: %v", err)
		return result
	}
	if applied {
		result.AlreadyApplied = true
		j.logger.Debug("stock item already decremented for day, skipping",
			zap.String("stock_item_id", item.ID), zap.String("day", day))
		return result
	}

	amount, known := models.ConvertKgToUnit(result.PlannedKg, item.Unit)
	if !known {
		j.logger.Warn("stock item has unknown unit, treating as kg",
			zap.String("stock_item_id", item.ID), zap.String("unit", item.Unit))
	}

	consumed, err := j.store.DecrementStockClamped(ctx, item.ID, amount)
	if err != nil {
		result.Error = fmt.Sprintf("decrement stock: %v", err)
		return result
	}

	consumedKg, _ := models.ConvertUnitToKg(consumed, item.Unit)
	consumedDec := decimal.NewFromFloat(consumedKg)
	result.ConsumedKg = consumedDec.Round(6).InexactFloat64()
	result.Clamped = consumedDec.LessThan(plannedKg)

	// Attribute the actually-consumed amount to lots proportionally to
	// their planned share, so entries still sum to the subtracted total
	// when the decrement clamped.
	scale := consumedDec.Div(plannedKg)
	now := j.now().UTC()
	entries := make([]models.ConsumptionLogEntry, 0, len(lots))
	for _, res := range lots {
		lotPlanned := decimal.NewFromFloat(res.DailyKg)
		entries = append(entries, models.ConsumptionLogEntry{
			ID:          uuid.NewString(),
			FarmID:      farmID,
			StockItemID: item.ID,
			LotID:       res.Lot.ID,
			Day:         day,
			PlannedKg:   lotPlanned.Round(6).InexactFloat64(),
			ConsumedKg:  lotPlanned.Mul(scale).Round(6).InexactFloat64(),
			Type:        models.EntryTypeAutomatic,
			CreatedAt:   now,
		})
	}

	if err := j.store.AppendConsumptionEntries(ctx, entries); err != nil {
		// The decrement already landed but its witness rows did not; the
		// retry will decrement again. Surfaced loudly for monitoring.
		j.logger.Error("audit append failed after decrement",
			zap.String("stock_item_id", item.ID), zap.String("day", day), zap.Error(err))
		result.Error = fmt.Sprintf("append audit entries: %v", err)
		return result
	}

	if result.Clamped {
		j.logger.Warn("draw-down clamped at zero stock",
			zap.String("stock_item_id", item.ID),
			zap.Float64("planned_kg", result.PlannedKg),
			zap.Float64("consumed_kg", result.ConsumedKg))
	}

	return result
}
