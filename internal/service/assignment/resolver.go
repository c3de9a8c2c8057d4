package assignment

import (
	"time"

	"go.uber.org/zap"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/domain/models"
)

// Resolution is the resolved feeding plan for one lot: which stock item it
// draws from and at what daily rate.
type Resolution struct {
	Lot          models.Lot
	StockItemID  string
	PerBirdKg    float64
	DailyKg      float64
	CurveDerived bool
}

// Resolver maps active lots onto the stock items feeding them. Manual
// override rations on an assignment take precedence over the species feed
// curve; lots without an active assignment are excluded, not defaulted.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver constructs an assignment resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve computes the per-lot feeding plan for one calendar day. Lots that
// are not active, have zero headcount, or carry no active assignment yield
// no resolution. An assignment pointing at a stock item missing from the
// provided set is a data inconsistency: skipped and logged, never fatal.
func (r *Resolver) Resolve(
	lots []models.Lot,
	assignments []models.LotStockAssignment,
	stock map[string]models.StockItem,
	today time.Time,
	loc *time.Location,
) []Resolution {
	active := make(map[string]models.LotStockAssignment, len(assignments))
	for _, a := range assignments {
		if !a.Active {
			continue
		}
		if prev, exists := active[a.LotID]; exists {
			r.logger.Warn("lot has multiple active assignments, keeping first",
				zap.String("lot_id", a.LotID),
				zap.String("kept_assignment_id", prev.ID),
				zap.String("ignored_assignment_id", a.ID))
			continue
		}
		active[a.LotID] = a
	}

	var resolutions []Resolution
	for _, lot := range lots {
		if lot.Status != models.LotStatusActive || lot.Headcount <= 0 {
			continue
		}

		asg, ok := active[lot.ID]
		if !ok {
			continue
		}

		if _, exists := stock[asg.StockItemID]; !exists {
			r.logger.Warn("assignment references missing stock item, skipping lot",
				zap.String("lot_id", lot.ID),
				zap.String("stock_item_id", asg.StockItemID))
			continue
		}

		perBirdKg := asg.DailyPerBirdKg
		curveDerived := false
		if !asg.ManualOverride() {
			grams := models.DailyGramsPerBird(lot.Species, lot.AgeDays(today, loc))
			perBirdKg = grams / 1000
			curveDerived = true
		}

		resolutions = append(resolutions, Resolution{
			Lot:          lot,
			StockItemID:  asg.StockItemID,
			PerBirdKg:    perBirdKg,
			DailyKg:      perBirdKg * float64(lot.Headcount),
			CurveDerived: curveDerived,
		})
	}

	return resolutions
}

// AssignedLotIDs returns the set of lot ids that currently hold an active
// assignment, used by the alert layer to surface unassigned feed items.
func AssignedLotIDs(assignments []models.LotStockAssignment) map[string]bool {
	ids := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if a.Active {
			ids[a.LotID] = true
		}
	}
	return ids
}

// AssignedStockIDs returns the set of stock item ids with at least one
// active assignment pointing at them.
func AssignedStockIDs(assignments []models.LotStockAssignment) map[string]bool {
	ids := make(map[string]bool, len(assignments))
	for _, a := range assignments {
		if a.Active {
			ids[a.StockItemID] = true
		}
	}
	return ids
}
