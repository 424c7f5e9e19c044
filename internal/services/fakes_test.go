package services

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
)

// In-memory repo fakes shared by the service tests.

type fakeUserRepo struct {
	users map[uuid.UUID]*types.User
	err   error
}

func newFakeUserRepo(users ...*types.User) *fakeUserRepo {
	m := map[uuid.UUID]*types.User{}
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (f *fakeUserRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

func (f *fakeUserRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*types.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) ListActiveIDs(dbc dbctx.Context) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []uuid.UUID
	for id, u := range f.users {
		if u.Active {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

type fakeScheduleRepo struct {
	items []*types.ScheduleItem
	err   error
}

func (f *fakeScheduleRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ScheduleItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*types.ScheduleItem
	for _, it := range f.items {
		for _, id := range ids {
			if it.ID == id {
				out = append(out, it)
			}
		}
	}
	return out, nil
}

func (f *fakeScheduleRepo) ListForUserBetween(dbc dbctx.Context, userID uuid.UUID, from, to time.Time) ([]*types.ScheduleItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*types.ScheduleItem
	for _, it := range f.items {
		if it.UserID == userID && !it.ScheduledOn.Before(from) && it.ScheduledOn.Before(to) {
			out = append(out, it)
		}
	}
	return out, nil
}

type fakeInterventionLogRepo struct {
	rows []*types.InterventionLog
	err  error
}

func (f *fakeInterventionLogRepo) Create(dbc dbctx.Context, row *types.InterventionLog) (*types.InterventionLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.rows = append(f.rows, row)
	return row, nil
}

func (f *fakeInterventionLogRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.InterventionLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, r := range f.rows {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeInterventionLogRepo) ListWithFeedback(dbc dbctx.Context, userID uuid.UUID) ([]*types.InterventionLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*types.InterventionLog
	for _, r := range f.rows {
		if r.UserID == userID && r.Feedback != "" {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.Before(out[j].FiredAt) })
	return out, nil
}

func (f *fakeInterventionLogRepo) ListFiredSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.InterventionLog, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*types.InterventionLog
	for _, r := range f.rows {
		if r.UserID == userID && !r.FiredAt.Before(since) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FiredAt.Before(out[j].FiredAt) })
	return out, nil
}

func (f *fakeInterventionLogRepo) DistinctUserIDsWithFeedback(dbc dbctx.Context) ([]uuid.UUID, error) {
	if f.err != nil {
		return nil, f.err
	}
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, r := range f.rows {
		if r.Feedback != "" && !seen[r.UserID] {
			seen[r.UserID] = true
			out = append(out, r.UserID)
		}
	}
	return out, nil
}

func (f *fakeInterventionLogRepo) SetFeedbackOnce(dbc dbctx.Context, id, userID uuid.UUID, value string, at time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, r := range f.rows {
		if r.ID == id {
			if r.UserID != userID || r.Feedback != "" {
				return false, nil
			}
			r.Feedback = value
			t := at
			r.FeedbackAt = &t
			return true, nil
		}
	}
	return false, nil
}

type statKey struct {
	userID     uuid.UUID
	actionType string
}

type fakeFeedbackStatRepo struct {
	stats map[statKey]*types.FeedbackStat
	err   error
}

func newFakeFeedbackStatRepo() *fakeFeedbackStatRepo {
	return &fakeFeedbackStatRepo{stats: map[statKey]*types.FeedbackStat{}}
}

func (f *fakeFeedbackStatRepo) Get(dbc dbctx.Context, userID uuid.UUID, actionType string) (*types.FeedbackStat, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats[statKey{userID, actionType}], nil
}

func (f *fakeFeedbackStatRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.FeedbackStat, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*types.FeedbackStat
	for k, v := range f.stats {
		if k.userID == userID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActionType < out[j].ActionType })
	return out, nil
}

func (f *fakeFeedbackStatRepo) Upsert(dbc dbctx.Context, row *types.FeedbackStat) error {
	if f.err != nil {
		return f.err
	}
	k := statKey{row.UserID, row.ActionType}
	if existing, ok := f.stats[k]; ok {
		row.ID = existing.ID
	} else if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	cp := *row
	f.stats[k] = &cp
	return nil
}

type fakePreferenceRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*types.SuggestionPreference
	err  error
}

func newFakePreferenceRepo() *fakePreferenceRepo {
	return &fakePreferenceRepo{rows: map[uuid.UUID]*types.SuggestionPreference{}}
}

func (f *fakePreferenceRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.SuggestionPreference, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[userID], nil
}

func (f *fakePreferenceRepo) Upsert(dbc dbctx.Context, row *types.SuggestionPreference) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if existing, ok := f.rows[row.UserID]; ok {
		row.ID = existing.ID
	} else if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	cp := *row
	f.rows[row.UserID] = &cp
	return nil
}
