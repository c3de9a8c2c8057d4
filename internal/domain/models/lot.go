package models

import (
	"math"
	"time"
)

// Species enumerates the animal species a lot may contain.
type Species string

const (
	SpeciesBroiler Species = "broiler"
	SpeciesLayer   Species = "layer"
	SpeciesOther   Species = "other"
)

// LotStatus describes the lifecycle state of a lot.
type LotStatus string

const (
	LotStatusActive    LotStatus = "active"
	LotStatusCompleted LotStatus = "completed"
	LotStatusSold      LotStatus = "sold"
)

// Lot represents a band of animals raised together on one farm. Lots are
// mutated by farm-management workflows; the consumption engine only reads them.
type Lot struct {
	ID            string    `bson:"_id" json:"id"`
	FarmID        string    `bson:"farm_id" json:"farm_id"`
	Name          string    `bson:"name" json:"name"`
	Species       Species   `bson:"species" json:"species"`
	Headcount     int       `bson:"headcount" json:"headcount"`
	EntryDate     time.Time `bson:"entry_date" json:"entry_date"`
	AgeOffsetDays int       `bson:"age_offset_days" json:"age_offset_days"`
	Status        LotStatus `bson:"status" json:"status"`
}

// AgeDays returns the lot's current age in days: the recorded age offset
// plus whole calendar days elapsed since the entry date. Both dates are
// normalized to midnight in the reference zone so that two calls on the
// same calendar day always agree. A future entry date clamps to the offset.
func (l Lot) AgeDays(today time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}

	elapsed := midnight(today, loc).Sub(midnight(l.EntryDate, loc))
	days := int(math.Round(elapsed.Hours() / 24))
	if days < 0 {
		days = 0
	}

	return l.AgeOffsetDays + days
}

func midnight(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayLayout is the calendar-day format used for job markers and audit rows.
const DayLayout = "2006-01-02"

// Day formats a timestamp as its calendar day in the reference zone.
func Day(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DayLayout)
}
