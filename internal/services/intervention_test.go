package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/apperr"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

func interventionTestService(t *testing.T, logRepo *fakeInterventionLogRepo) InterventionService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewInterventionService(log, logRepo)
}

func TestRecordFeedback_OneShot(t *testing.T) {
	logRepo := &fakeInterventionLogRepo{}
	svc := interventionTestService(t, logRepo)
	ctx := context.Background()

	userID := uuid.New()
	row, err := svc.RecordFired(ctx, userID, types.ActionSuggestion, map[string]string{
		types.LedgerFieldTargetText: "deep work",
	})
	if err != nil {
		t.Fatalf("RecordFired: %v", err)
	}

	if err := svc.RecordFeedback(ctx, userID, row.ID, types.FeedbackAccepted); err != nil {
		t.Fatalf("first feedback: %v", err)
	}
	err = svc.RecordFeedback(ctx, userID, row.ID, types.FeedbackDismissed)
	if !errors.Is(err, apperr.ErrAlreadySet) {
		t.Fatalf("second feedback err = %v, want ErrAlreadySet", err)
	}

	got, err := svc.GetByID(ctx, row.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Feedback != types.FeedbackAccepted {
		t.Fatalf("feedback = %q, first write must win", got.Feedback)
	}
}

func TestRecordFeedback_Validation(t *testing.T) {
	svc := interventionTestService(t, &fakeInterventionLogRepo{})
	ctx := context.Background()

	if err := svc.RecordFeedback(ctx, uuid.New(), uuid.New(), "meh"); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("invalid value err = %v, want ErrInvalidArgument", err)
	}
	if err := svc.RecordFeedback(ctx, uuid.Nil, uuid.New(), types.FeedbackIgnored); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("missing user err = %v, want ErrInvalidArgument", err)
	}
	if err := svc.RecordFeedback(ctx, uuid.New(), uuid.New(), types.FeedbackIgnored); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing log err = %v, want ErrNotFound", err)
	}
}

func TestRecordFeedback_RejectsOtherUsersLog(t *testing.T) {
	logRepo := &fakeInterventionLogRepo{}
	svc := interventionTestService(t, logRepo)
	ctx := context.Background()

	owner := uuid.New()
	row, err := svc.RecordFired(ctx, owner, types.ActionRiskAlert, nil)
	if err != nil {
		t.Fatalf("RecordFired: %v", err)
	}

	err = svc.RecordFeedback(ctx, uuid.New(), row.ID, types.FeedbackDismissed)
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("cross-user feedback err = %v, want ErrNotFound", err)
	}

	got, err := svc.GetByID(ctx, row.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.HasFeedback() {
		t.Fatalf("another user must not set feedback, got %q", got.Feedback)
	}

	if err := svc.RecordFeedback(ctx, owner, row.ID, types.FeedbackAccepted); err != nil {
		t.Fatalf("owner feedback after rejected attempt: %v", err)
	}
}

func TestRecordFired_KeepsHistory(t *testing.T) {
	logRepo := &fakeInterventionLogRepo{}
	svc := interventionTestService(t, logRepo).(*interventionService)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	userID := uuid.New()

	for i := 0; i < 3; i++ {
		if _, err := svc.RecordFired(ctx, userID, types.ActionCelebration, nil); err != nil {
			t.Fatalf("RecordFired %d: %v", i, err)
		}
	}
	if len(logRepo.rows) != 3 {
		t.Fatalf("history rows = %d, want 3", len(logRepo.rows))
	}
}
