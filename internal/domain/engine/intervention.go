package engine

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Action types the engine can fire. Values double as preference
// categories.
const (
	ActionRiskAlert    = "risk_alert"
	ActionSuggestion   = "suggestion"
	ActionAddSchedule  = "add_schedule"
	ActionPacingAdjust = "pacing_adjust"
	ActionCelebration  = "celebration"
)

// AllActionTypes is the dedup scope: a recent ledger entry of any of
// these types blocks a new action on the same target.
var AllActionTypes = []string{
	ActionRiskAlert,
	ActionSuggestion,
	ActionAddSchedule,
	ActionPacingAdjust,
	ActionCelebration,
}

// Feedback values a user can give on a fired intervention.
const (
	FeedbackAccepted  = "accepted"
	FeedbackDismissed = "dismissed"
	FeedbackIgnored   = "ignored"
)

func ValidFeedback(v string) bool {
	switch v {
	case FeedbackAccepted, FeedbackDismissed, FeedbackIgnored:
		return true
	}
	return false
}

// InterventionLog is one row per fired intervention. Rows are never
// deleted by the engine; history feeds future learning. Feedback is set
// at most once, only by the user-response path.
type InterventionLog struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index:idx_intervention_log_user_type,priority:1" json:"user_id"`
	ActionType string    `gorm:"column:action_type;not null;index:idx_intervention_log_user_type,priority:2" json:"action_type"`

	// Payload carries the dedup key fields (target_text, schedule_title)
	// plus whatever the firing agent finds useful.
	Payload datatypes.JSON `gorm:"type:jsonb;column:payload" json:"payload,omitempty"`

	FiredAt    time.Time  `gorm:"column:fired_at;not null;index" json:"fired_at"`
	Feedback   string     `gorm:"column:feedback;not null;default:''" json:"feedback,omitempty"`
	FeedbackAt *time.Time `gorm:"column:feedback_at" json:"feedback_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (InterventionLog) TableName() string { return "intervention_log" }

func (l *InterventionLog) HasFeedback() bool {
	return l != nil && l.Feedback != ""
}

// FeedbackStat is the learned weight for one (user, action type) pair.
// Owned exclusively by the feedback aggregator; read-only to the policy
// layer. WeightMultiplier stays in [0.1, 2.0].
type FeedbackStat struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_feedback_stat,priority:1" json:"user_id"`
	ActionType string    `gorm:"column:action_type;not null;uniqueIndex:uq_feedback_stat,priority:2" json:"action_type"`

	WeightMultiplier float64 `gorm:"column:weight_multiplier;not null;default:1" json:"weight_multiplier"`
	TotalCount       int     `gorm:"column:total_count;not null;default:0" json:"total_count"`
	AcceptedCount    int     `gorm:"column:accepted_count;not null;default:0" json:"accepted_count"`
	DismissedCount   int     `gorm:"column:dismissed_count;not null;default:0" json:"dismissed_count"`

	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (FeedbackStat) TableName() string { return "feedback_stat" }
