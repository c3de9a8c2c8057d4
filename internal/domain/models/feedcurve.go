package models

// curveStep applies to ages strictly below UpperAgeDays.
type curveStep struct {
	UpperAgeDays int
	Grams        float64
}

// feedCurve is an age-indexed step function. Ages at or beyond the last
// step use the terminal value as an asymptote.
type feedCurve struct {
	Steps    []curveStep
	Terminal float64
}

var broilerCurve = feedCurve{
	Steps: []curveStep{
		{7, 25},
		{14, 45},
		{21, 65},
		{28, 90},
		{35, 120},
	},
	Terminal: 145,
}

var layerCurve = feedCurve{
	Steps: []curveStep{
		{60, 45},
		{120, 95},
	},
	Terminal: 115,
}

// genericCurve covers SpeciesOther and any species we have no table for.
var genericCurve = feedCurve{
	Steps: []curveStep{
		{30, 40},
		{90, 80},
	},
	Terminal: 110,
}

var curvesBySpecies = map[Species]feedCurve{
	SpeciesBroiler: broilerCurve,
	SpeciesLayer:   layerCurve,
	SpeciesOther:   genericCurve,
}

// DailyGramsPerBird returns the daily feed requirement in grams for one
// animal of the given species and age. Total function: negative ages are
// treated as day zero and unknown species fall back to the generic curve,
// so every call yields a positive value.
func DailyGramsPerBird(species Species, ageDays int) float64 {
	curve, ok := curvesBySpecies[species]
	if !ok {
		curve = genericCurve
	}

	if ageDays < 0 {
		ageDays = 0
	}

	for _, step := range curve.Steps {
		if ageDays < step.UpperAgeDays {
			return step.Grams
		}
	}

	return curve.Terminal
}
