package schedule

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
)

// ScheduleItem is one planned activity on a user's day. The engine only
// reads these; CRUD lives in the product surface.
type ScheduleItem struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_schedule_item_user_day,priority:1" json:"user_id"`

	Title  string `gorm:"not null;column:title" json:"title"`
	Status string `gorm:"column:status;not null;default:'pending';index" json:"status"`

	// ScheduledOn is the calendar day (midnight UTC) the item belongs to.
	ScheduledOn time.Time  `gorm:"column:scheduled_on;not null;index:idx_schedule_item_user_day,priority:2" json:"scheduled_on"`
	ScheduledAt *time.Time `gorm:"column:scheduled_at" json:"scheduled_at,omitempty"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ScheduleItem) TableName() string { return "schedule_item" }

func (s *ScheduleItem) Resolved() bool {
	return s != nil && (s.Status == StatusCompleted || s.Status == StatusSkipped)
}
