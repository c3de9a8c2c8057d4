package advisor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/domain/models"
)

func item(id, name string, status models.StockStatus) models.StockOverviewItem {
	return models.StockOverviewItem{
		Item:   models.StockItem{ID: id, Name: name, Category: models.StockCategoryFeed},
		Status: status,
	}
}

func TestAdvise_RanksOutagesFirst(t *testing.T) {
	two := 2
	overview := &models.StockOverview{
		FarmID: "farm-1",
		Items: []models.StockOverviewItem{
			func() models.StockOverviewItem {
				i := item("feed-2", "Grower feed", models.StockStatusLow)
				i.DaysRemaining = &two
				return i
			}(),
			item("feed-1", "Starter feed", models.StockStatusOut),
			item("feed-3", "Finisher feed", models.StockStatusUnassigned),
		},
	}

	suggestions := NewAdvisor(nil).Advise(overview, nil)
	require.Len(t, suggestions, 3)
	assert.Equal(t, "Restock Starter feed now", suggestions[0].Title)
	assert.Equal(t, "Plan a restock of Grower feed", suggestions[1].Title)
	assert.Contains(t, suggestions[1].Description, "2 day(s)")
	assert.Equal(t, "Assign a lot to Finisher feed", suggestions[2].Title)
}

func TestAdvise_ShortfallFromClampedHistory(t *testing.T) {
	overview := &models.StockOverview{
		FarmID: "farm-1",
		Items: []models.StockOverviewItem{
			item("feed-1", "Starter feed", models.StockStatusOK),
		},
	}
	history := []models.ConsumptionLogEntry{
		{StockItemID: "feed-1", Day: "2026-08-18", PlannedKg: 45, ConsumedKg: 30, Type: models.EntryTypeAutomatic},
		{StockItemID: "feed-1", Day: "2026-08-19", PlannedKg: 45, ConsumedKg: 45, Type: models.EntryTypeAutomatic},
	}

	suggestions := NewAdvisor(nil).Advise(overview, history)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Feed shortfall on Starter feed", suggestions[0].Title)
	assert.Contains(t, suggestions[0].Description, "15.0 kg")
}

func TestAdvise_UsageAbovePlan(t *testing.T) {
	overview := &models.StockOverview{
		FarmID: "farm-1",
		Items: []models.StockOverviewItem{
			{
				Item:            models.StockItem{ID: "feed-1", Name: "Starter feed", Category: models.StockCategoryFeed},
				Status:          models.StockStatusOK,
				DailyDrawDownKg: 40,
				Consumers:       []models.ConsumingLot{{LotID: "lot-1", DailyKg: 40}},
			},
		},
	}
	// Manual corrections on top of automatic rows push actual usage to
	// 50 kg/day against a 40 kg plan, past the tolerance band.
	history := []models.ConsumptionLogEntry{
		{StockItemID: "feed-1", Day: "2026-08-18", PlannedKg: 40, ConsumedKg: 40, Type: models.EntryTypeAutomatic},
		{StockItemID: "feed-1", Day: "2026-08-18", ConsumedKg: 10, Type: models.EntryTypeManual},
		{StockItemID: "feed-1", Day: "2026-08-19", PlannedKg: 40, ConsumedKg: 40, Type: models.EntryTypeAutomatic},
		{StockItemID: "feed-1", Day: "2026-08-19", ConsumedKg: 10, Type: models.EntryTypeManual},
	}

	suggestions := NewAdvisor(nil).Advise(overview, history)
	require.Len(t, suggestions, 1)
	assert.Equal(t, "Usage of Starter feed is above plan", suggestions[0].Title)
	assert.InDelta(t, 300.0, suggestions[0].EstimatedSavingsKg, 1e-9)
}

func TestAdvise_UsageWithinToleranceIsQuiet(t *testing.T) {
	overview := &models.StockOverview{
		FarmID: "farm-1",
		Items: []models.StockOverviewItem{
			{
				Item:            models.StockItem{ID: "feed-1", Name: "Starter feed", Category: models.StockCategoryFeed},
				Status:          models.StockStatusOK,
				DailyDrawDownKg: 40,
				Consumers:       []models.ConsumingLot{{LotID: "lot-1", DailyKg: 40}},
			},
		},
	}
	history := []models.ConsumptionLogEntry{
		{StockItemID: "feed-1", Day: "2026-08-19", PlannedKg: 40, ConsumedKg: 43, Type: models.EntryTypeAutomatic},
	}

	assert.Empty(t, NewAdvisor(nil).Advise(overview, history))
}

func TestAdvise_IgnoresHistoryForUnknownItems(t *testing.T) {
	overview := &models.StockOverview{
		FarmID: "farm-1",
		Items: []models.StockOverviewItem{
			item("feed-1", "Starter feed", models.StockStatusOK),
		},
	}
	history := []models.ConsumptionLogEntry{
		{StockItemID: "deleted-item", Day: "2026-08-19", PlannedKg: 45, ConsumedKg: 10, Type: models.EntryTypeAutomatic},
	}

	suggestions := NewAdvisor(nil).Advise(overview, history)
	assert.Empty(t, suggestions)

	for _, s := range suggestions {
		assert.False(t, strings.Contains(s.Title, "deleted-item"))
	}
}

func TestAdvise_NilOverview(t *testing.T) {
	assert.Nil(t, NewAdvisor(nil).Advise(nil, nil))
}

func TestAdvise_SavingsNeverNegative(t *testing.T) {
	overview := &models.StockOverview{
		FarmID: "farm-1",
		Items: []models.StockOverviewItem{
			{
				Item:            models.StockItem{ID: "feed-1", Name: "Starter feed", Category: models.StockCategoryFeed},
				Status:          models.StockStatusOK,
				DailyDrawDownKg: 40,
				Consumers:       []models.ConsumingLot{{LotID: "lot-1", DailyKg: 40}},
			},
		},
	}
	history := []models.ConsumptionLogEntry{
		{StockItemID: "feed-1", Day: "2026-08-19", PlannedKg: 40, ConsumedKg: 60, Type: models.EntryTypeAutomatic},
	}

	for _, s := range NewAdvisor(nil).Advise(overview, history) {
		assert.GreaterOrEqual(t, s.EstimatedSavingsKg, 0.0)
	}
}
