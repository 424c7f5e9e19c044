package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lumehq/lume-backend/internal/clients/delivery"
	interventionrepo "github.com/lumehq/lume-backend/internal/data/repos/intervention"
	preferencerepo "github.com/lumehq/lume-backend/internal/data/repos/preference"
	userrepo "github.com/lumehq/lume-backend/internal/data/repos/user"
	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/apperr"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

// Candidate rule thresholds. Tuned values; change with care.
const (
	riskStressMin      = 8
	riskRateBelow      = 0.5
	pacingPendingMin   = 4
	pacingHourFrom     = 18
	freeCapacityItems  = 3
	freeCapacityEnergy = 6
	celebrateRateMin   = 0.8
	celebrateDoneMin   = 3

	basePriorityRiskAlert    = 0.9
	basePriorityPacingAdjust = 0.7
	basePriorityAddSchedule  = 0.5
	basePriorityCelebration  = 0.4

	policyAgent = "policy"
)

// BlendConfig is the configurable scoring blend. The final score is
//
//	base * weight^Alpha * catWeight^Gamma * (Floor + (1-Floor)*timeScore)^Beta
//
// where weight is the learned multiplier for the action type, catWeight
// the preference category weight, and timeScore the acceptance ratio
// for the current time block.
type BlendConfig struct {
	Alpha              float64 `yaml:"alpha"`
	Beta               float64 `yaml:"beta"`
	Gamma              float64 `yaml:"gamma"`
	TimeScoreFloor     float64 `yaml:"time_score_floor"`
	FireThreshold      float64 `yaml:"fire_threshold"`
	DedupWindowMinutes int     `yaml:"dedup_window_minutes"`
}

func DefaultBlendConfig() BlendConfig {
	return BlendConfig{
		Alpha:              1.0,
		Beta:               1.0,
		Gamma:              1.0,
		TimeScoreFloor:     0.25,
		FireThreshold:      0.35,
		DedupWindowMinutes: 120,
	}
}

// Candidate is one possible intervention for a user right now.
type Candidate struct {
	ActionType   string
	BasePriority float64
	TargetText   string
	Channel      string
}

// Decision summarizes one policy evaluation.
type Decision struct {
	Fired      bool              `json:"fired"`
	ActionType string            `json:"action_type,omitempty"`
	Message    string            `json:"message,omitempty"`
	Delivered  bool              `json:"delivered"`
	LogID      uuid.UUID         `json:"log_id,omitempty"`
	Reason     string            `json:"reason,omitempty"`
	Score      float64           `json:"score,omitempty"`
	State      *types.DailyState `json:"state,omitempty"`
}

// PolicyService is the decision layer: it reads the user's state,
// learned weights, preferences and the shared action ledger, ranks the
// candidate interventions, and fires at most one. Read-path problems
// degrade to "no intervention"; they never break the caller's request.
type PolicyService interface {
	Evaluate(ctx context.Context, userID uuid.UUID) (*Decision, error)
}

type policyService struct {
	log        *logger.Logger
	blend      BlendConfig
	userRepo   userrepo.UserRepo
	statRepo   interventionrepo.FeedbackStatRepo
	prefRepo   preferencerepo.SuggestionPreferenceRepo
	signals    SignalService
	ledger     LedgerService
	history    InterventionService
	generation GenerationService
	dispatch   DispatchService
	now        func() time.Time
}

func NewPolicyService(
	log *logger.Logger,
	blend BlendConfig,
	userRepo userrepo.UserRepo,
	statRepo interventionrepo.FeedbackStatRepo,
	prefRepo preferencerepo.SuggestionPreferenceRepo,
	signals SignalService,
	ledger LedgerService,
	history InterventionService,
	generation GenerationService,
	dispatch DispatchService,
) PolicyService {
	if blend.FireThreshold <= 0 {
		blend = DefaultBlendConfig()
	}
	return &policyService{
		log:        log.With("service", "PolicyService"),
		blend:      blend,
		userRepo:   userRepo,
		statRepo:   statRepo,
		prefRepo:   prefRepo,
		signals:    signals,
		ledger:     ledger,
		history:    history,
		generation: generation,
		dispatch:   dispatch,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *policyService) Evaluate(ctx context.Context, userID uuid.UUID) (*Decision, error) {
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

	state, err := s.signals.DetectDailyState(ctx, userID)
	if err != nil {
		s.log.Warn("daily state unavailable", "user_id", userID, "error", err)
		return &Decision{Fired: false, Reason: "state unavailable"}, nil
	}

	localHour := s.now().In(u.Location()).Hour()
	candidates := buildCandidates(state, localHour)
	if len(candidates) == 0 {
		return &Decision{Fired: false, Reason: "no candidates", State: state}, nil
	}

	// Learned weights and preferences are optional inputs; without
	// them every multiplier is neutral.
	stats, err := s.statRepo.GetByUserID(dbc, userID)
	if err != nil {
		s.log.Warn("feedback stats unavailable", "user_id", userID, "error", err)
		stats = nil
	}
	weightByType := map[string]float64{}
	for _, st := range stats {
		weightByType[st.ActionType] = st.WeightMultiplier
	}

	pref, err := s.prefRepo.GetByUserID(dbc, userID)
	if err != nil {
		s.log.Warn("preferences unavailable", "user_id", userID, "error", err)
		pref = nil
	}
	catWeights := pref.DecodeCategoryWeights()
	timeScores := pref.DecodeTimeCategoryScores()
	block := types.BlockForHour(localHour)

	window := time.Duration(s.blend.DedupWindowMinutes) * time.Minute
	recent, err := s.ledger.RecentActions(ctx, userID, window)
	if err != nil {
		recent = nil
	}

	type scored struct {
		c     Candidate
		score float64
	}
	var ranked []scored
	deduped := 0
	for _, c := range candidates {
		if HasRecentAction(recent, c.TargetText, types.AllActionTypes) {
			deduped++
			continue
		}
		ranked = append(ranked, scored{c: c, score: s.score(c, weightByType, catWeights, timeScores, block)})
	}
	if len(ranked) == 0 {
		return &Decision{Fired: false, Reason: "recently acted on", State: state}, nil
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	top := ranked[0]
	if top.score < s.blend.FireThreshold {
		return &Decision{Fired: false, Reason: "below threshold", Score: top.score, State: state}, nil
	}

	// Ledger and history rows land before dispatch: a crash mid-send
	// must look like "already acted", not invite a duplicate.
	payload := map[string]string{types.LedgerFieldTargetText: top.c.TargetText}
	if err := s.ledger.LogAction(ctx, userID, policyAgent, top.c.ActionType, payload); err != nil {
		s.log.Warn("ledger write failed", "user_id", userID, "error", err)
	}
	row, err := s.history.RecordFired(ctx, userID, top.c.ActionType, payload)
	if err != nil {
		return nil, fmt.Errorf("record intervention: %w", err)
	}

	text := s.generation.Phrase(ctx, u, top.c, state)
	delivered := s.dispatch.Dispatch(ctx, userID, top.c.Channel, delivery.Message{
		ActionType: top.c.ActionType,
		Body:       text,
		Payload:    payload,
	})

	return &Decision{
		Fired:      true,
		ActionType: top.c.ActionType,
		Message:    text,
		Delivered:  delivered,
		LogID:      row.ID,
		Score:      top.score,
		State:      state,
	}, nil
}

func buildCandidates(state *types.DailyState, localHour int) []Candidate {
	var out []Candidate

	if state.StressLevel >= riskStressMin && state.CompletionRate < riskRateBelow {
		out = append(out, Candidate{
			ActionType:   types.ActionRiskAlert,
			BasePriority: basePriorityRiskAlert,
			TargetText:   "overload check-in",
			Channel:      delivery.ChannelChat,
		})
	}
	if state.PendingItems >= pacingPendingMin && localHour >= pacingHourFrom {
		out = append(out, Candidate{
			ActionType:   types.ActionPacingAdjust,
			BasePriority: basePriorityPacingAdjust,
			TargetText:   "evening pacing",
			Channel:      delivery.ChannelPush,
		})
	}
	if state.TotalItems < freeCapacityItems && state.EnergyLevel >= freeCapacityEnergy {
		out = append(out, Candidate{
			ActionType:   types.ActionAddSchedule,
			BasePriority: basePriorityAddSchedule,
			TargetText:   "open schedule slot",
			Channel:      delivery.ChannelPush,
		})
	}
	if state.CompletionRate >= celebrateRateMin && state.CompletedItems >= celebrateDoneMin {
		out = append(out, Candidate{
			ActionType:   types.ActionCelebration,
			BasePriority: basePriorityCelebration,
			TargetText:   "daily win",
			Channel:      delivery.ChannelPush,
		})
	}
	return out
}

func (s *policyService) score(c Candidate, weights, catWeights map[string]float64, timeScores map[string]map[string]float64, block string) float64 {
	weight := 1.0
	if w, ok := weights[c.ActionType]; ok {
		weight = w
	}
	catWeight := 1.0
	if w, ok := catWeights[c.ActionType]; ok {
		catWeight = w
	}
	timeFactor := 1.0
	if blockScores, ok := timeScores[block]; ok {
		if ts, ok := blockScores[c.ActionType]; ok {
			floor := s.blend.TimeScoreFloor
			timeFactor = floor + (1-floor)*ts
		}
	}

	return c.BasePriority *
		math.Pow(weight, s.blend.Alpha) *
		math.Pow(catWeight, s.blend.Gamma) *
		math.Pow(timeFactor, s.blend.Beta)
}
