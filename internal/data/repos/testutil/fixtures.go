package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lumehq/lume-backend/internal/domain"
)

func SeedUser(tb testing.TB, tx *gorm.DB) *types.User {
	tb.Helper()
	u := &types.User{
		ID:          uuid.New(),
		Email:       fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8]),
		DisplayName: "Test User",
		Timezone:    "UTC",
		Active:      true,
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedScheduleItem(tb testing.TB, tx *gorm.DB, userID uuid.UUID, title, status string, day time.Time) *types.ScheduleItem {
	tb.Helper()
	it := &types.ScheduleItem{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Status:      status,
		ScheduledOn: day,
	}
	if err := tx.Create(it).Error; err != nil {
		tb.Fatalf("seed schedule item: %v", err)
	}
	return it
}

func SeedInterventionLog(tb testing.TB, tx *gorm.DB, userID uuid.UUID, actionType, feedback string, firedAt time.Time) *types.InterventionLog {
	tb.Helper()
	l := &types.InterventionLog{
		ID:         uuid.New(),
		UserID:     userID,
		ActionType: actionType,
		FiredAt:    firedAt,
		Feedback:   feedback,
	}
	if feedback != "" {
		at := firedAt.Add(time.Minute)
		l.FeedbackAt = &at
	}
	if err := tx.Create(l).Error; err != nil {
		tb.Fatalf("seed intervention log: %v", err)
	}
	return l
}
