package alerts

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/domain/models"
)

// ItemAlert is the evaluated condition of one stock item.
type ItemAlert struct {
	StockItemID   string             `json:"stock_item_id"`
	Name          string             `json:"name"`
	Status        models.StockStatus `json:"status"`
	DaysRemaining *int               `json:"days_remaining,omitempty"`
}

// CollaboratorCounts carries the externally-owned tallies that feed the
// farm-wide critical count: unread critical/warning notifications and
// overdue scheduled treatments.
type CollaboratorCounts struct {
	UnreadCriticalNotifications int
	OverdueTreatments           int
}

// Evaluation is the full alert picture for one farm at one instant. The
// Signature summarizes the set of non-ok conditions; the dispatcher
// compares it against the last-sent one so repeated evaluations of an
// unchanged farm never double-fire.
type Evaluation struct {
	FarmID        string      `json:"farm_id"`
	Day           string      `json:"day"`
	Items         []ItemAlert `json:"items"`
	CriticalCount int         `json:"critical_count"`
	Signature     string      `json:"signature"`
}

// Evaluate classifies every stock item in the overview and aggregates the
// farm-wide critical count. Pure function: same inputs, same output.
func Evaluate(overview *models.StockOverview, counts CollaboratorCounts) Evaluation {
	eval := Evaluation{
		FarmID: overview.FarmID,
		Day:    overview.Day,
		Items:  make([]ItemAlert, 0, len(overview.Items)),
	}

	var signatureParts []string
	for _, entry := range overview.Items {
		alert := ItemAlert{
			StockItemID:   entry.Item.ID,
			Name:          entry.Item.Name,
			Status:        entry.Status,
			DaysRemaining: entry.DaysRemaining,
		}
		eval.Items = append(eval.Items, alert)

		switch entry.Status {
		case models.StockStatusLow, models.StockStatusOut:
			eval.CriticalCount++
			signatureParts = append(signatureParts, fmt.Sprintf("%s=%s", entry.Item.ID, entry.Status))
		case models.StockStatusUnassigned:
			signatureParts = append(signatureParts, fmt.Sprintf("%s=%s", entry.Item.ID, entry.Status))
		}
	}

	eval.CriticalCount += counts.UnreadCriticalNotifications + counts.OverdueTreatments

	sort.Strings(signatureParts)
	eval.Signature = strings.Join(signatureParts, ";")

	return eval
}

// CountsStore reads the collaborator-owned tallies from the shared store.
type CountsStore interface {
	CountUnreadCriticalNotifications(ctx context.Context, farmID string) (int, error)
	CountOverdueTreatments(ctx context.Context, farmID, day string) (int, error)
}

// Evaluator fetches collaborator counts and runs the pure evaluation.
// Count lookups that fail degrade to zero rather than blocking the alert
// picture for the stock items themselves.
type Evaluator struct {
	store  CountsStore
	logger *zap.Logger
}

// NewEvaluator constructs an alert evaluator.
func NewEvaluator(store CountsStore, logger *zap.Logger) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{store: store, logger: logger}
}

// Evaluate produces the alert evaluation for a previously computed overview.
func (e *Evaluator) Evaluate(ctx context.Context, overview *models.StockOverview) Evaluation {
	var counts CollaboratorCounts

	unread, err := e.store.CountUnreadCriticalNotifications(ctx, overview.FarmID)
	if err != nil {
		e.logger.Warn("unread notification count failed", zap.String("farm_id", overview.FarmID), zap.Error(err))
	} else {
		counts.UnreadCriticalNotifications = unread
	}

	overdue, err := e.store.CountOverdueTreatments(ctx, overview.FarmID, overview.Day)
	if err != nil {
		e.logger.Warn("overdue treatment count failed", zap.String("farm_id", overview.FarmID), zap.Error(err))
	} else {
		counts.OverdueTreatments = overdue
	}

	return Evaluate(overview, counts)
}
