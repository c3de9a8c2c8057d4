package assignment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/domain/models"
)

var testDay = time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)

func testStock() map[string]models.StockItem {
	return map[string]models.StockItem{
		"feed-1": {ID: "feed-1", Category: models.StockCategoryFeed, Quantity: 500, Unit: models.UnitKilogram},
		"feed-2": {ID: "feed-2", Category: models.StockCategoryFeed, Quantity: 300, Unit: models.UnitKilogram},
	}
}

func TestResolver_CurveDerivedRation(t *testing.T) {
	resolver := NewResolver(nil)

	// Broiler lot of 1000 birds at age 10 days: 45 g/bird, 45 kg/day total.
	lots := []models.Lot{{
		ID:        "lot-1",
		Species:   models.SpeciesBroiler,
		Headcount: 1000,
		EntryDate: testDay.AddDate(0, 0, -10),
		Status:    models.LotStatusActive,
	}}
	assignments := []models.LotStockAssignment{
		{ID: "a1", LotID: "lot-1", StockItemID: "feed-1", Active: true},
	}

	resolutions := resolver.Resolve(lots, assignments, testStock(), testDay, time.UTC)
	require.Len(t, resolutions, 1)
	assert.Equal(t, "feed-1", resolutions[0].StockItemID)
	assert.True(t, resolutions[0].CurveDerived)
	assert.InDelta(t, 0.045, resolutions[0].PerBirdKg, 1e-9)
	assert.InDelta(t, 45.0, resolutions[0].DailyKg, 1e-9)
}

func TestResolver_ManualOverrideWins(t *testing.T) {
	resolver := NewResolver(nil)

	lots := []models.Lot{{
		ID:        "lot-1",
		Species:   models.SpeciesBroiler,
		Headcount: 200,
		EntryDate: testDay.AddDate(0, 0, -10),
		Status:    models.LotStatusActive,
	}}
	assignments := []models.LotStockAssignment{
		{ID: "a1", LotID: "lot-1", StockItemID: "feed-1", DailyPerBirdKg: 0.1, Active: true},
	}

	resolutions := resolver.Resolve(lots, assignments, testStock(), testDay, time.UTC)
	require.Len(t, resolutions, 1)
	assert.False(t, resolutions[0].CurveDerived)
	assert.InDelta(t, 20.0, resolutions[0].DailyKg, 1e-9)
}

func TestResolver_SkipsLotsWithoutActiveAssignment(t *testing.T) {
	resolver := NewResolver(nil)

	lots := []models.Lot{
		{ID: "lot-1", Species: models.SpeciesBroiler, Headcount: 100, EntryDate: testDay, Status: models.LotStatusActive},
		{ID: "lot-2", Species: models.SpeciesBroiler, Headcount: 100, EntryDate: testDay, Status: models.LotStatusActive},
	}
	assignments := []models.LotStockAssignment{
		{ID: "a1", LotID: "lot-1", StockItemID: "feed-1", Active: true},
		{ID: "a2", LotID: "lot-2", StockItemID: "feed-2", Active: false},
	}

	resolutions := resolver.Resolve(lots, assignments, testStock(), testDay, time.UTC)
	require.Len(t, resolutions, 1)
	assert.Equal(t, "lot-1", resolutions[0].Lot.ID)
}

func TestResolver_SkipsInactiveAndEmptyLots(t *testing.T) {
	resolver := NewResolver(nil)

	lots := []models.Lot{
		{ID: "sold", Species: models.SpeciesBroiler, Headcount: 100, EntryDate: testDay, Status: models.LotStatusSold},
		{ID: "completed", Species: models.SpeciesBroiler, Headcount: 100, EntryDate: testDay, Status: models.LotStatusCompleted},
		{ID: "empty", Species: models.SpeciesBroiler, Headcount: 0, EntryDate: testDay, Status: models.LotStatusActive},
	}
	assignments := []models.LotStockAssignment{
		{ID: "a1", LotID: "sold", StockItemID: "feed-1", Active: true},
		{ID: "a2", LotID: "completed", StockItemID: "feed-1", Active: true},
		{ID: "a3", LotID: "empty", StockItemID: "feed-1", Active: true},
	}

	assert.Empty(t, resolver.Resolve(lots, assignments, testStock(), testDay, time.UTC))
}

func TestResolver_SkipsAssignmentToMissingStockItem(t *testing.T) {
	resolver := NewResolver(nil)

	lots := []models.Lot{
		{ID: "lot-1", Species: models.SpeciesBroiler, Headcount: 100, EntryDate: testDay, Status: models.LotStatusActive},
	}
	assignments := []models.LotStockAssignment{
		{ID: "a1", LotID: "lot-1", StockItemID: "deleted-item", Active: true},
	}

	assert.Empty(t, resolver.Resolve(lots, assignments, testStock(), testDay, time.UTC))
}

func TestResolver_DuplicateActiveAssignmentsKeepFirst(t *testing.T) {
	resolver := NewResolver(nil)

	lots := []models.Lot{
		{ID: "lot-1", Species: models.SpeciesBroiler, Headcount: 100, EntryDate: testDay, Status: models.LotStatusActive},
	}
	assignments := []models.LotStockAssignment{
		{ID: "a1", LotID: "lot-1", StockItemID: "feed-1", DailyPerBirdKg: 0.05, Active: true},
		{ID: "a2", LotID: "lot-1", StockItemID: "feed-2", DailyPerBirdKg: 0.2, Active: true},
	}

	resolutions := resolver.Resolve(lots, assignments, testStock(), testDay, time.UTC)
	require.Len(t, resolutions, 1)
	assert.Equal(t, "feed-1", resolutions[0].StockItemID)
}
