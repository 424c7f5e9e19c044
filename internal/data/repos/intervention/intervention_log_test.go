package intervention

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lumehq/lume-backend/internal/data/repos/testutil"
	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
)

func TestInterventionLogRepo_CreateAndGet(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	repo := NewInterventionLogRepo(db, log)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	u := testutil.SeedUser(t, tx)

	row, err := repo.Create(dbc, &types.InterventionLog{
		UserID:     u.ID,
		ActionType: types.ActionSuggestion,
		FiredAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if row.ID == uuid.Nil {
		t.Fatalf("expected generated id")
	}

	got, err := repo.GetByID(dbc, row.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got == nil || got.ActionType != types.ActionSuggestion {
		t.Fatalf("unexpected row: %+v", got)
	}
	if got.HasFeedback() {
		t.Fatalf("new row should carry no feedback")
	}
}

func TestInterventionLogRepo_SetFeedbackOnce(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	repo := NewInterventionLogRepo(db, log)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	u := testutil.SeedUser(t, tx)
	row := testutil.SeedInterventionLog(t, tx, u.ID, types.ActionRiskAlert, "", time.Now().UTC())

	now := time.Now().UTC()

	// A different user's write must not match the row.
	other := testutil.SeedUser(t, tx)
	set, err := repo.SetFeedbackOnce(dbc, row.ID, other.ID, types.FeedbackDismissed, now)
	if err != nil {
		t.Fatalf("SetFeedbackOnce other user: %v", err)
	}
	if set {
		t.Fatalf("feedback is owner-only")
	}

	set, err = repo.SetFeedbackOnce(dbc, row.ID, u.ID, types.FeedbackAccepted, now)
	if err != nil {
		t.Fatalf("SetFeedbackOnce: %v", err)
	}
	if !set {
		t.Fatalf("expected first write to win")
	}

	// Second write on the same row must be a no-op.
	set, err = repo.SetFeedbackOnce(dbc, row.ID, u.ID, types.FeedbackDismissed, now)
	if err != nil {
		t.Fatalf("SetFeedbackOnce second: %v", err)
	}
	if set {
		t.Fatalf("feedback must be write-once")
	}

	got, err := repo.GetByID(dbc, row.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Feedback != types.FeedbackAccepted {
		t.Fatalf("feedback = %q, want %q", got.Feedback, types.FeedbackAccepted)
	}
	if got.FeedbackAt == nil {
		t.Fatalf("feedback_at should be set")
	}

	set, err = repo.SetFeedbackOnce(dbc, uuid.New(), u.ID, types.FeedbackAccepted, now)
	if err != nil {
		t.Fatalf("SetFeedbackOnce missing: %v", err)
	}
	if set {
		t.Fatalf("missing row should report false")
	}
}

func TestInterventionLogRepo_Lists(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	repo := NewInterventionLogRepo(db, log)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	u := testutil.SeedUser(t, tx)
	other := testutil.SeedUser(t, tx)
	base := time.Now().UTC().Add(-3 * time.Hour)

	testutil.SeedInterventionLog(t, tx, u.ID, types.ActionSuggestion, types.FeedbackAccepted, base)
	testutil.SeedInterventionLog(t, tx, u.ID, types.ActionCelebration, "", base.Add(time.Hour))
	testutil.SeedInterventionLog(t, tx, u.ID, types.ActionRiskAlert, types.FeedbackDismissed, base.Add(2*time.Hour))
	testutil.SeedInterventionLog(t, tx, other.ID, types.ActionSuggestion, types.FeedbackIgnored, base)

	withFeedback, err := repo.ListWithFeedback(dbc, u.ID)
	if err != nil {
		t.Fatalf("ListWithFeedback: %v", err)
	}
	if len(withFeedback) != 2 {
		t.Fatalf("got %d feedback rows, want 2", len(withFeedback))
	}
	if withFeedback[0].ActionType != types.ActionSuggestion || withFeedback[1].ActionType != types.ActionRiskAlert {
		t.Fatalf("rows not ordered oldest first: %+v", withFeedback)
	}

	recent, err := repo.ListFiredSince(dbc, u.ID, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("ListFiredSince: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("got %d recent rows, want 2", len(recent))
	}

	ids, err := repo.DistinctUserIDsWithFeedback(dbc)
	if err != nil {
		t.Fatalf("DistinctUserIDsWithFeedback: %v", err)
	}
	seen := map[uuid.UUID]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[u.ID] || !seen[other.ID] {
		t.Fatalf("expected both users in %v", ids)
	}
}
