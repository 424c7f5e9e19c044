package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	interventionrepo "github.com/lumehq/lume-backend/internal/data/repos/intervention"
	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

func prefLog(userID uuid.UUID, actionType, feedback string, firedAt time.Time) *types.InterventionLog {
	l := &types.InterventionLog{
		ID:         uuid.New(),
		UserID:     userID,
		ActionType: actionType,
		FiredAt:    firedAt,
		Feedback:   feedback,
	}
	if feedback != "" {
		at := firedAt.Add(5 * time.Minute)
		l.FeedbackAt = &at
	}
	return l
}

func preferenceTestService(t *testing.T, u *types.User, logRepo interventionrepo.InterventionLogRepo, prefRepo *fakePreferenceRepo, now time.Time) *preferenceService {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	svc := NewPreferenceService(log, newFakeUserRepo(u), logRepo, prefRepo).(*preferenceService)
	svc.now = func() time.Time { return now }
	return svc
}

func TestComputeSuggestionPreferences(t *testing.T) {
	u := &types.User{ID: uuid.New(), Timezone: "UTC", Active: true}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	morning := time.Date(2026, 3, 8, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC)

	logRepo := &fakeInterventionLogRepo{rows: []*types.InterventionLog{
		// suggestion: 4 shown, 3 accepted (morning), 1 dismissed.
		prefLog(u.ID, types.ActionSuggestion, types.FeedbackAccepted, morning),
		prefLog(u.ID, types.ActionSuggestion, types.FeedbackAccepted, morning.Add(time.Hour)),
		prefLog(u.ID, types.ActionSuggestion, types.FeedbackAccepted, morning.Add(2*time.Hour)),
		prefLog(u.ID, types.ActionSuggestion, types.FeedbackDismissed, evening),
		// celebration: 2 shown, 0 accepted.
		prefLog(u.ID, types.ActionCelebration, types.FeedbackDismissed, evening),
		prefLog(u.ID, types.ActionCelebration, "", evening.Add(time.Hour)),
		// outside the 28-day window, must not count.
		prefLog(u.ID, types.ActionRiskAlert, types.FeedbackAccepted, now.Add(-29*24*time.Hour)),
	}}
	prefRepo := newFakePreferenceRepo()
	svc := preferenceTestService(t, u, logRepo, prefRepo, now)

	row, err := svc.ComputeSuggestionPreferences(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("ComputeSuggestionPreferences: %v", err)
	}
	if row == nil {
		t.Fatalf("expected a preference row")
	}

	weights := row.DecodeCategoryWeights()
	// suggestion rate 0.75, celebration rate 0; avg 0.375.
	// suggestion: 0.75/0.475 ~ 1.58; celebration: 0 -> floor 0.2.
	if w := weights[types.ActionSuggestion]; w < 1.57 || w > 1.59 {
		t.Fatalf("suggestion weight = %v, want ~1.58", w)
	}
	if w := weights[types.ActionCelebration]; w != categoryFloor {
		t.Fatalf("celebration weight = %v, want floor %v", w, categoryFloor)
	}
	if _, ok := weights[types.ActionRiskAlert]; ok {
		t.Fatalf("rows outside the window must not contribute")
	}

	scores := row.DecodeTimeCategoryScores()
	if got := scores[types.BlockMorning][types.ActionSuggestion]; got != 1.0 {
		t.Fatalf("morning suggestion score = %v, want 1.0", got)
	}
	if got := scores[types.BlockEvening][types.ActionSuggestion]; got != 0 {
		t.Fatalf("evening suggestion score = %v, want 0", got)
	}

	top := row.DecodeTopCategories()
	if len(top) != 2 || top[0] != types.ActionSuggestion {
		t.Fatalf("top categories = %v", top)
	}
	avoid := row.DecodeAvoidCategories()
	if len(avoid) != 1 || avoid[0] != types.ActionCelebration {
		t.Fatalf("avoid categories = %v", avoid)
	}
}

func TestComputeSuggestionPreferences_TimeScoresStayInUnitRange(t *testing.T) {
	u := &types.User{ID: uuid.New(), Timezone: "UTC", Active: true}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// One alert fired in the evening but accepted the next morning,
	// another fired and accepted in the morning. Acceptance counts
	// against the fired block, so morning is 1/1 and evening 1/1;
	// feedback-hour bucketing would put two acceptances against one
	// morning showing.
	late := prefLog(u.ID, types.ActionRiskAlert, types.FeedbackAccepted, time.Date(2026, 3, 9, 20, 0, 0, 0, time.UTC))
	nextMorning := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	late.FeedbackAt = &nextMorning
	logRepo := &fakeInterventionLogRepo{rows: []*types.InterventionLog{
		late,
		prefLog(u.ID, types.ActionRiskAlert, types.FeedbackAccepted, time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)),
	}}
	prefRepo := newFakePreferenceRepo()
	svc := preferenceTestService(t, u, logRepo, prefRepo, now)

	row, err := svc.ComputeSuggestionPreferences(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("ComputeSuggestionPreferences: %v", err)
	}

	scores := row.DecodeTimeCategoryScores()
	if got := scores[types.BlockMorning][types.ActionRiskAlert]; got != 1.0 {
		t.Fatalf("morning score = %v, want 1.0", got)
	}
	if got := scores[types.BlockEvening][types.ActionRiskAlert]; got != 1.0 {
		t.Fatalf("evening score = %v, want 1.0", got)
	}
	for block, byCat := range scores {
		for cat, score := range byCat {
			if score < 0 || score > 1 {
				t.Fatalf("score for %s/%s = %v outside [0, 1]", block, cat, score)
			}
		}
	}
}

func TestComputeSuggestionPreferences_CategoryWeightBounds(t *testing.T) {
	u := &types.User{ID: uuid.New(), Active: true}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	fired := now.Add(-24 * time.Hour)

	// A single always-accepted category: rate 1.0, avg 1.0 ->
	// 1.0/1.1 ~ 0.91, inside bounds. A never-shown-accepted mix pushes
	// the spread to the clamp edges.
	rows := []*types.InterventionLog{
		prefLog(u.ID, types.ActionRiskAlert, types.FeedbackAccepted, fired),
	}
	for i := 0; i < 20; i++ {
		rows = append(rows, prefLog(u.ID, types.ActionCelebration, types.FeedbackDismissed, fired))
	}
	logRepo := &fakeInterventionLogRepo{rows: rows}
	prefRepo := newFakePreferenceRepo()
	svc := preferenceTestService(t, u, logRepo, prefRepo, now)

	row, err := svc.ComputeSuggestionPreferences(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("ComputeSuggestionPreferences: %v", err)
	}
	for cat, w := range row.DecodeCategoryWeights() {
		if w < categoryFloor || w > categoryCeil {
			t.Fatalf("weight for %s = %v outside [%v, %v]", cat, w, categoryFloor, categoryCeil)
		}
	}
}

func TestComputeSuggestionPreferences_NoWindowRows(t *testing.T) {
	u := &types.User{ID: uuid.New(), Active: true}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := preferenceTestService(t, u, &fakeInterventionLogRepo{}, newFakePreferenceRepo(), now)

	row, err := svc.ComputeSuggestionPreferences(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("ComputeSuggestionPreferences: %v", err)
	}
	if row != nil {
		t.Fatalf("expected no row without window data, got %+v", row)
	}
}

func TestGetPreferences_RecomputeOnMissOnce(t *testing.T) {
	u := &types.User{ID: uuid.New(), Active: true}
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	logRepo := &countingLogRepo{
		fakeInterventionLogRepo: fakeInterventionLogRepo{rows: []*types.InterventionLog{
			prefLog(u.ID, types.ActionSuggestion, types.FeedbackAccepted, now.Add(-time.Hour)),
		}},
		gate: make(chan struct{}),
	}
	prefRepo := newFakePreferenceRepo()
	svc := preferenceTestService(t, u, logRepo, prefRepo, now)

	const callers = 4
	var wg sync.WaitGroup
	results := make([]*types.SuggestionPreference, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.GetPreferences(context.Background(), u.ID)
		}(i)
	}
	// Let all callers reach the singleflight before the window read
	// returns.
	time.Sleep(50 * time.Millisecond)
	close(logRepo.gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if results[i] == nil {
			t.Fatalf("caller %d: nil preferences", i)
		}
	}
	if n := atomic.LoadInt32(&logRepo.listCalls); n != 1 {
		t.Fatalf("window read ran %d times, want 1", n)
	}
}

type countingLogRepo struct {
	fakeInterventionLogRepo
	gate      chan struct{}
	listCalls int32
}

func (c *countingLogRepo) ListFiredSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.InterventionLog, error) {
	atomic.AddInt32(&c.listCalls, 1)
	<-c.gate
	return c.fakeInterventionLogRepo.ListFiredSince(dbc, userID, since)
}
