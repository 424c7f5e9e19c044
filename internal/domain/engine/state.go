package engine

import "time"

// DailyState is the signal detector's output for one user on one day.
// Derived on demand from the day's schedule items, never persisted.
type DailyState struct {
	EnergyLevel    int     `json:"energy_level"`    // 1..10
	StressLevel    int     `json:"stress_level"`    // 1..10
	CompletionRate float64 `json:"completion_rate"` // 0..1

	TotalItems     int `json:"total_items"`
	CompletedItems int `json:"completed_items"`
	SkippedItems   int `json:"skipped_items"`
	PendingItems   int `json:"pending_items"`

	EvaluatedAt time.Time `json:"evaluated_at"`
}
