package models

// Suggestion is one advisory line derived from stock and consumption
// signals. EstimatedSavingsKg is feed mass per month and is never
// negative; Actions are short imperative hints for the UI.
type Suggestion struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	EstimatedSavingsKg float64  `json:"estimated_savings_kg"`
	Actions            []string `json:"actions,omitempty"`
}
