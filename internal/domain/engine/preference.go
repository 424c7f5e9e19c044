package engine

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Time-of-day blocks for preference bucketing.
const (
	BlockMorning   = "morning"   // local hour < 12
	BlockAfternoon = "afternoon" // 12 <= local hour < 18
	BlockEvening   = "evening"   // local hour >= 18
)

// BlockForHour maps a local hour to its time block.
func BlockForHour(hour int) string {
	switch {
	case hour < 12:
		return BlockMorning
	case hour < 18:
		return BlockAfternoon
	default:
		return BlockEvening
	}
}

// SuggestionPreference is one row per user: learned category weights and
// time-of-day acceptance scores over a rolling 28-day window. Owned by
// the preference aggregator.
type SuggestionPreference struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`

	// CategoryWeights maps category -> weight in [0.2, 3.0].
	CategoryWeights datatypes.JSON `gorm:"type:jsonb;column:category_weights" json:"category_weights,omitempty"`
	// TimeCategoryScores maps block -> category -> acceptance ratio in [0,1].
	TimeCategoryScores datatypes.JSON `gorm:"type:jsonb;column:time_category_scores" json:"time_category_scores,omitempty"`
	// TopCategories and AvoidCategories are derived from CategoryWeights.
	TopCategories   datatypes.JSON `gorm:"type:jsonb;column:top_categories" json:"top_categories,omitempty"`
	AvoidCategories datatypes.JSON `gorm:"type:jsonb;column:avoid_categories" json:"avoid_categories,omitempty"`

	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (SuggestionPreference) TableName() string { return "suggestion_preference" }

func (p *SuggestionPreference) DecodeCategoryWeights() map[string]float64 {
	out := map[string]float64{}
	if p == nil || len(p.CategoryWeights) == 0 {
		return out
	}
	_ = json.Unmarshal(p.CategoryWeights, &out)
	return out
}

func (p *SuggestionPreference) DecodeTimeCategoryScores() map[string]map[string]float64 {
	out := map[string]map[string]float64{}
	if p == nil || len(p.TimeCategoryScores) == 0 {
		return out
	}
	_ = json.Unmarshal(p.TimeCategoryScores, &out)
	return out
}

func (p *SuggestionPreference) DecodeTopCategories() []string {
	var out []string
	if p == nil || len(p.TopCategories) == 0 {
		return out
	}
	_ = json.Unmarshal(p.TopCategories, &out)
	return out
}

func (p *SuggestionPreference) DecodeAvoidCategories() []string {
	var out []string
	if p == nil || len(p.AvoidCategories) == 0 {
		return out
	}
	_ = json.Unmarshal(p.AvoidCategories, &out)
	return out
}
