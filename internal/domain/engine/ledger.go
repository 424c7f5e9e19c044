package engine

import "time"

// Ledger payload fields consulted for dedup matching.
const (
	LedgerFieldTargetText    = "target_text"
	LedgerFieldScheduleTitle = "schedule_title"
)

// MaxLedgerEntriesPerDay caps each user's daily action ledger; the
// oldest entries are dropped on overflow.
const MaxLedgerEntriesPerDay = 50

// LedgerEntry records one action an agent took for a user today.
// Ledger entries are advisory dedup state, never a learning input.
type LedgerEntry struct {
	Agent      string            `json:"agent"`
	ActionType string            `json:"action_type"`
	Payload    map[string]string `json:"payload,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}
