package advisor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/domain/models"
)

// wasteTolerance is how far actual usage may exceed the assigned plan
// before we call it out, as a fraction of the plan.
const wasteTolerance = 0.10

// Advisor derives human-readable action suggestions from the stock
// overview and trailing consumption history. Stateless and advisory:
// nothing breaks if a suggestion is ignored, and every suggestion only
// references items present in its inputs.
type Advisor struct {
	logger *zap.Logger
}

// NewAdvisor constructs an advisor.
func NewAdvisor(logger *zap.Logger) *Advisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Advisor{logger: logger}
}

// Advise ranks suggestions most-urgent first: stock-outs, then low stock,
// then recorded shortfalls, then unassigned feed, then usage above plan.
func (a *Advisor) Advise(overview *models.StockOverview, history []models.ConsumptionLogEntry) []models.Suggestion {
	if overview == nil {
		return nil
	}

	known := make(map[string]models.StockOverviewItem, len(overview.Items))
	for _, entry := range overview.Items {
		known[entry.Item.ID] = entry
	}

	shortfalls := make(map[string]float64)
	consumedDays := make(map[string]map[string]float64)
	for _, entry := range history {
		if _, exists := known[entry.StockItemID]; !exists {
			continue
		}
		if entry.Clamped() {
			shortfalls[entry.StockItemID] += entry.PlannedKg - entry.ConsumedKg
		}
		if consumedDays[entry.StockItemID] == nil {
			consumedDays[entry.StockItemID] = make(map[string]float64)
		}
		consumedDays[entry.StockItemID][entry.Day] += entry.ConsumedKg
	}

	var suggestions []models.Suggestion

	for _, entry := range overview.Items {
		if entry.Status != models.StockStatusOut {
			continue
		}
		suggestions = append(suggestions, models.Suggestion{
			Title:       fmt.Sprintf("Restock %s now", entry.Item.Name),
			Description: fmt.Sprintf("%s is exhausted; the lots feeding from it are no longer covered.", entry.Item.Name),
			Actions:     []string{fmt.Sprintf("Order %s", entry.Item.Name), "Review lot assignments"},
		})
	}

	for _, entry := range overview.Items {
		if entry.Status != models.StockStatusLow {
			continue
		}
		desc := fmt.Sprintf("%s is below its minimum threshold.", entry.Item.Name)
		if entry.DaysRemaining != nil {
			desc = fmt.Sprintf("%s runs out in about %d day(s) at the current draw-down.", entry.Item.Name, *entry.DaysRemaining)
		}
		suggestions = append(suggestions, models.Suggestion{
			Title:       fmt.Sprintf("Plan a restock of %s", entry.Item.Name),
			Description: desc,
			Actions:     []string{fmt.Sprintf("Order %s before it runs out", entry.Item.Name)},
		})
	}

	for _, entry := range overview.Items {
		missed, ok := shortfalls[entry.Item.ID]
		if !ok || missed <= 0 {
			continue
		}
		suggestions = append(suggestions, models.Suggestion{
			Title:       fmt.Sprintf("Feed shortfall on %s", entry.Item.Name),
			Description: fmt.Sprintf("Recent rations were short by %.1f kg because %s ran dry; growth may lag the curve.", missed, entry.Item.Name),
			Actions:     []string{"Check lot weights", fmt.Sprintf("Top up %s", entry.Item.Name)},
		})
	}

	for _, entry := range overview.Items {
		if entry.Status != models.StockStatusUnassigned {
			continue
		}
		suggestions = append(suggestions, models.Suggestion{
			Title:       fmt.Sprintf("Assign a lot to %s", entry.Item.Name),
			Description: fmt.Sprintf("%s is feed but no active lot draws from it, so it is invisible to forecasts.", entry.Item.Name),
			Actions:     []string{fmt.Sprintf("Link a lot to %s", entry.Item.Name)},
		})
	}

	for _, entry := range overview.Items {
		if entry.DailyDrawDownKg <= 0 || len(entry.Consumers) == 0 {
			continue
		}
		avg := averageDailyKg(consumedDays[entry.Item.ID])
		if avg <= entry.DailyDrawDownKg*(1+wasteTolerance) {
			continue
		}
		savings := (avg - entry.DailyDrawDownKg) * 30
		if savings < 0 {
			savings = 0
		}
		suggestions = append(suggestions, models.Suggestion{
			Title:              fmt.Sprintf("Usage of %s is above plan", entry.Item.Name),
			Description:        fmt.Sprintf("Actual consumption averages %.1f kg/day against a planned %.1f kg/day. Tightening rations could save feed.", avg, entry.DailyDrawDownKg),
			EstimatedSavingsKg: savings,
			Actions:            []string{"Check feeders for spillage", "Review manual ration overrides"},
		})
	}

	a.logger.Debug("advisor produced suggestions",
		zap.String("farm_id", overview.FarmID), zap.Int("count", len(suggestions)))

	return suggestions
}

func averageDailyKg(byDay map[string]float64) float64 {
	if len(byDay) == 0 {
		return 0
	}
	var total float64
	for _, kg := range byDay {
		total += kg
	}
	return total / float64(len(byDay))
}
