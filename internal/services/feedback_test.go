package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

func feedbackLogs(userID uuid.UUID, actionType string, accepted, dismissed, ignored int) []*types.InterventionLog {
	var out []*types.InterventionLog
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	add := func(n int, feedback string) {
		for i := 0; i < n; i++ {
			fbAt := at.Add(time.Minute)
			out = append(out, &types.InterventionLog{
				ID:         uuid.New(),
				UserID:     userID,
				ActionType: actionType,
				FiredAt:    at,
				Feedback:   feedback,
				FeedbackAt: &fbAt,
			})
			at = at.Add(time.Hour)
		}
	}
	add(accepted, types.FeedbackAccepted)
	add(dismissed, types.FeedbackDismissed)
	add(ignored, types.FeedbackIgnored)
	return out
}

func feedbackTestService(t *testing.T, logRepo *fakeInterventionLogRepo, statRepo *fakeFeedbackStatRepo) *feedbackService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	svc := NewFeedbackService(log, logRepo, statRepo).(*feedbackService)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestComputeWeights_RiskAlertExample(t *testing.T) {
	userID := uuid.New()
	logRepo := &fakeInterventionLogRepo{rows: feedbackLogs(userID, types.ActionRiskAlert, 6, 2, 2)}
	statRepo := newFakeFeedbackStatRepo()
	svc := feedbackTestService(t, logRepo, statRepo)

	if err := svc.ComputeWeights(context.Background(), userID); err != nil {
		t.Fatalf("ComputeWeights: %v", err)
	}

	stat, err := statRepo.Get(dbctx.Context{Ctx: context.Background()}, userID, types.ActionRiskAlert)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stat == nil {
		t.Fatalf("expected a stat row")
	}
	// acceptRate 0.6, dismissRate 0.2 -> 0.6/0.3 = 2.0, at the cap.
	if stat.WeightMultiplier != 2.0 {
		t.Fatalf("weight = %v, want 2.0", stat.WeightMultiplier)
	}
	if stat.TotalCount != 10 || stat.AcceptedCount != 6 || stat.DismissedCount != 2 {
		t.Fatalf("counts: %+v", stat)
	}
}

func TestComputeWeights_ClampBounds(t *testing.T) {
	ctx := context.Background()

	// All dismissed: 0 / (1.0 + 0.1) = 0 -> floor 0.1.
	userID := uuid.New()
	logRepo := &fakeInterventionLogRepo{rows: feedbackLogs(userID, types.ActionSuggestion, 0, 5, 0)}
	statRepo := newFakeFeedbackStatRepo()
	svc := feedbackTestService(t, logRepo, statRepo)
	if err := svc.ComputeWeights(ctx, userID); err != nil {
		t.Fatalf("ComputeWeights: %v", err)
	}
	stat, _ := statRepo.Get(dbctx.Context{Ctx: ctx}, userID, types.ActionSuggestion)
	if stat.WeightMultiplier != weightFloor {
		t.Fatalf("weight = %v, want floor %v", stat.WeightMultiplier, weightFloor)
	}

	// All accepted: 1.0 / 0.1 = 10 -> cap 2.0.
	userID = uuid.New()
	logRepo = &fakeInterventionLogRepo{rows: feedbackLogs(userID, types.ActionSuggestion, 5, 0, 0)}
	statRepo = newFakeFeedbackStatRepo()
	svc = feedbackTestService(t, logRepo, statRepo)
	if err := svc.ComputeWeights(ctx, userID); err != nil {
		t.Fatalf("ComputeWeights: %v", err)
	}
	stat, _ = statRepo.Get(dbctx.Context{Ctx: ctx}, userID, types.ActionSuggestion)
	if stat.WeightMultiplier != weightCeil {
		t.Fatalf("weight = %v, want cap %v", stat.WeightMultiplier, weightCeil)
	}
}

func TestComputeWeights_NoFeedbackIsNoop(t *testing.T) {
	userID := uuid.New()
	logRepo := &fakeInterventionLogRepo{}
	statRepo := newFakeFeedbackStatRepo()
	svc := feedbackTestService(t, logRepo, statRepo)

	if err := svc.ComputeWeights(context.Background(), userID); err != nil {
		t.Fatalf("ComputeWeights: %v", err)
	}
	if len(statRepo.stats) != 0 {
		t.Fatalf("expected no stat rows, got %d", len(statRepo.stats))
	}
}

func TestComputeWeights_Idempotent(t *testing.T) {
	userID := uuid.New()
	logRepo := &fakeInterventionLogRepo{rows: feedbackLogs(userID, types.ActionCelebration, 3, 1, 1)}
	statRepo := newFakeFeedbackStatRepo()
	svc := feedbackTestService(t, logRepo, statRepo)
	ctx := context.Background()

	if err := svc.ComputeWeights(ctx, userID); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, _ := statRepo.Get(dbctx.Context{Ctx: ctx}, userID, types.ActionCelebration)

	if err := svc.ComputeWeights(ctx, userID); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, _ := statRepo.Get(dbctx.Context{Ctx: ctx}, userID, types.ActionCelebration)

	if *first != *second {
		t.Fatalf("recompute not idempotent: %+v vs %+v", first, second)
	}
}

func TestComputeWeightsForAllUsers_IsolatesFailures(t *testing.T) {
	okUser := uuid.New()
	badUser := uuid.New()

	logRepo := &failingLogRepo{
		fakeInterventionLogRepo: fakeInterventionLogRepo{
			rows: append(
				feedbackLogs(okUser, types.ActionSuggestion, 2, 1, 0),
				feedbackLogs(badUser, types.ActionSuggestion, 1, 1, 0)...,
			),
		},
		failFor: badUser,
	}
	statRepo := newFakeFeedbackStatRepo()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	svc := NewFeedbackService(log, logRepo, statRepo)

	res, err := svc.ComputeWeightsForAllUsers(context.Background())
	if err != nil {
		t.Fatalf("ComputeWeightsForAllUsers: %v", err)
	}
	if res.Processed != 1 || res.Errors != 1 {
		t.Fatalf("result = %+v, want 1 processed / 1 error", res)
	}
	if stat, _ := statRepo.Get(dbctx.Context{Ctx: context.Background()}, okUser, types.ActionSuggestion); stat == nil {
		t.Fatalf("healthy user should still be processed")
	}
}

// failingLogRepo fails ListWithFeedback for one user.
type failingLogRepo struct {
	fakeInterventionLogRepo
	failFor uuid.UUID
}

func (f *failingLogRepo) ListWithFeedback(dbc dbctx.Context, userID uuid.UUID) ([]*types.InterventionLog, error) {
	if userID == f.failFor {
		return nil, context.DeadlineExceeded
	}
	return f.fakeInterventionLogRepo.ListWithFeedback(dbc, userID)
}
