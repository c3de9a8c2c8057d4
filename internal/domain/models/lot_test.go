package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLot_AgeDays(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Conakry")
	require.NoError(t, err)

	entry := time.Date(2026, 8, 1, 14, 30, 0, 0, loc)

	testCases := []struct {
		name     string
		offset   int
		today    time.Time
		expected int
	}{
		{"same day", 0, time.Date(2026, 8, 1, 23, 59, 0, 0, loc), 0},
		{"next morning counts one day", 0, time.Date(2026, 8, 2, 0, 1, 0, 0, loc), 1},
		{"ten days later", 0, time.Date(2026, 8, 11, 8, 0, 0, 0, loc), 10},
		{"offset added", 7, time.Date(2026, 8, 11, 8, 0, 0, 0, loc), 17},
		{"entry in future clamps to offset", 21, time.Date(2026, 7, 20, 8, 0, 0, 0, loc), 21},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lot := Lot{EntryDate: entry, AgeOffsetDays: tc.offset}
			assert.Equal(t, tc.expected, lot.AgeDays(tc.today, loc))
		})
	}
}

func TestLot_AgeDays_SameCalendarDayAgrees(t *testing.T) {
	loc := time.UTC
	lot := Lot{EntryDate: time.Date(2026, 8, 1, 22, 0, 0, 0, loc), AgeOffsetDays: 3}

	morning := lot.AgeDays(time.Date(2026, 8, 10, 0, 30, 0, 0, loc), loc)
	evening := lot.AgeDays(time.Date(2026, 8, 10, 23, 30, 0, 0, loc), loc)
	assert.Equal(t, morning, evening)
}

func TestDay(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Conakry")
	require.NoError(t, err)

	// 23:30 UTC on the 9th is already the 9th in Conakry (UTC+0), but the
	// same instant shifted into a UTC+2 zone belongs to the 10th.
	instant := time.Date(2026, 8, 9, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2026-08-09", Day(instant, loc))

	plus2 := time.FixedZone("plus2", 2*3600)
	assert.Equal(t, "2026-08-10", Day(instant, plus2))
}
