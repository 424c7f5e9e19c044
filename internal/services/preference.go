package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	interventionrepo "github.com/lumehq/lume-backend/internal/data/repos/intervention"
	preferencerepo "github.com/lumehq/lume-backend/internal/data/repos/preference"
	userrepo "github.com/lumehq/lume-backend/internal/data/repos/user"
	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/apperr"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

const (
	preferenceWindow = 28 * 24 * time.Hour
	categoryFloor    = 0.2
	categoryCeil     = 3.0
	topCategoryCount = 2
	avoidBelowWeight = 0.3
)

// PreferenceService learns which intervention categories a user takes
// to, and when. Full recompute over a rolling window; reads are O(1)
// row lookups between recomputes.
type PreferenceService interface {
	ComputeSuggestionPreferences(ctx context.Context, userID uuid.UUID) (*types.SuggestionPreference, error)
	// GetPreferences returns the stored row, recomputing on a miss.
	// Concurrent misses for the same user share one recompute.
	GetPreferences(ctx context.Context, userID uuid.UUID) (*types.SuggestionPreference, error)
	ComputePreferencesForAllUsers(ctx context.Context) (BatchResult, error)
}

type preferenceService struct {
	log      *logger.Logger
	userRepo userrepo.UserRepo
	logRepo  interventionrepo.InterventionLogRepo
	prefRepo preferencerepo.SuggestionPreferenceRepo
	group    singleflight.Group
	now      func() time.Time
}

func NewPreferenceService(
	log *logger.Logger,
	userRepo userrepo.UserRepo,
	logRepo interventionrepo.InterventionLogRepo,
	prefRepo preferencerepo.SuggestionPreferenceRepo,
) PreferenceService {
	return &preferenceService{
		log:      log.With("service", "PreferenceService"),
		userRepo: userRepo,
		logRepo:  logRepo,
		prefRepo: prefRepo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *preferenceService) GetPreferences(ctx context.Context, userID uuid.UUID) (*types.SuggestionPreference, error) {
	if userID == uuid.Nil {
		return nil, apperr.ErrInvalidArgument
	}
	row, err := s.prefRepo.GetByUserID(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	if row != nil {
		return row, nil
	}

	v, err, _ := s.group.Do(userID.String(), func() (interface{}, error) {
		return s.ComputeSuggestionPreferences(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	pref, _ := v.(*types.SuggestionPreference)
	return pref, nil
}

func (s *preferenceService) ComputeSuggestionPreferences(ctx context.Context, userID uuid.UUID) (*types.SuggestionPreference, error) {
	if userID == uuid.Nil {
		return nil, apperr.ErrInvalidArgument
	}
	dbc := dbctx.Context{Ctx: ctx}

	u, err := s.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apperr.ErrNotFound
	}
	loc := u.Location()

	rows, err := s.logRepo.ListFiredSince(dbc, userID, s.now().Add(-preferenceWindow))
	if err != nil {
		return nil, fmt.Errorf("list window logs: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	type tally struct {
		shown     int
		accepted  int
		dismissed int
	}
	byCat := map[string]*tally{}
	blockShown := map[string]map[string]int{}
	blockAccepted := map[string]map[string]int{}

	bump := func(m map[string]map[string]int, block, cat string) {
		if m[block] == nil {
			m[block] = map[string]int{}
		}
		m[block][cat]++
	}

	for _, r := range rows {
		cat := r.ActionType
		t := byCat[cat]
		if t == nil {
			t = &tally{}
			byCat[cat] = t
		}
		t.shown++
		// Accepted counts share the fired block; each block's ratio is
		// then shown-vs-accepted over one population and stays in [0,1].
		block := types.BlockForHour(r.FiredAt.In(loc).Hour())
		bump(blockShown, block, cat)

		switch r.Feedback {
		case types.FeedbackAccepted:
			t.accepted++
			bump(blockAccepted, block, cat)
		case types.FeedbackDismissed:
			t.dismissed++
		}
	}

	rates := map[string]float64{}
	var rateSum float64
	for cat, t := range byCat {
		rates[cat] = float64(t.accepted) / float64(t.shown)
		rateSum += rates[cat]
	}
	avgRate := rateSum / float64(len(byCat))

	weights := map[string]float64{}
	for cat, rate := range rates {
		weights[cat] = clampFloat(rate/(avgRate+rateSmoothing), categoryFloor, categoryCeil)
	}

	timeScores := map[string]map[string]float64{}
	for block, shown := range blockShown {
		timeScores[block] = map[string]float64{}
		for cat, n := range shown {
			timeScores[block][cat] = float64(blockAccepted[block][cat]) / float64(n)
		}
	}

	cats := make([]string, 0, len(weights))
	for cat := range weights {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		if weights[cats[i]] != weights[cats[j]] {
			return weights[cats[i]] > weights[cats[j]]
		}
		return cats[i] < cats[j]
	})
	top := cats
	if len(top) > topCategoryCount {
		top = top[:topCategoryCount]
	}
	var avoid []string
	for _, cat := range cats {
		if weights[cat] < avoidBelowWeight {
			avoid = append(avoid, cat)
		}
	}
	sort.Strings(avoid)

	row := &types.SuggestionPreference{
		UserID:             userID,
		CategoryWeights:    mustMarshal(weights),
		TimeCategoryScores: mustMarshal(timeScores),
		TopCategories:      mustMarshal(top),
		AvoidCategories:    mustMarshal(avoid),
		UpdatedAt:          s.now(),
	}
	if err := s.prefRepo.Upsert(dbc, row); err != nil {
		return nil, fmt.Errorf("upsert preferences: %w", err)
	}
	return row, nil
}

func (s *preferenceService) ComputePreferencesForAllUsers(ctx context.Context) (BatchResult, error) {
	var res BatchResult

	userIDs, err := s.userRepo.ListActiveIDs(dbctx.Context{Ctx: ctx})
	if err != nil {
		return res, fmt.Errorf("list active users: %w", err)
	}

	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := s.ComputeSuggestionPreferences(ctx, userID); err != nil {
			s.log.Warn("preference recompute failed for user", "user_id", userID, "error", err)
			res.Errors++
			continue
		}
		res.Processed++
	}
	return res, nil
}

func mustMarshal(v interface{}) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}
