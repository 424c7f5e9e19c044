package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	schedulerepo "github.com/lumehq/lume-backend/internal/data/repos/schedule"
	userrepo "github.com/lumehq/lume-backend/internal/data/repos/user"
	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/apperr"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

// Tuned product thresholds. Do not retune without product sign-off.
const (
	stressBase          = 5
	stressHeavyDayItems = 8 // +2
	stressBusyDayItems  = 5 // +1
	stressLowRate       = 0.3
	stressMidRate       = 0.5
	stressCalmRate      = 0.8
	stressManySkipped   = 3
	stressEveningHour   = 18
	stressEveningPile   = 3

	energyBase        = 5
	energyHighRate    = 0.8
	energyHighDone    = 3
	energyGoodRate    = 0.6
	energyGoodDone    = 2
	energyLowRate     = 0.3
	energyMorningFrom = 6
	energyMorningTo   = 10
	energySlumpFrom   = 15
	energySlumpTo     = 17
	emptyDayEnergy    = 5
	emptyDayStress    = 3
	signalFloor       = 1
	signalCeil        = 10
)

// SignalService derives a user's daily state from today's schedule.
// Deterministic aside from the schedule read; safe to call repeatedly
// and concurrently for the same user.
type SignalService interface {
	DetectDailyState(ctx context.Context, userID uuid.UUID) (*types.DailyState, error)
}

type signalService struct {
	log          *logger.Logger
	userRepo     userrepo.UserRepo
	scheduleRepo schedulerepo.ScheduleItemRepo
	now          func() time.Time
}

func NewSignalService(log *logger.Logger, userRepo userrepo.UserRepo, scheduleRepo schedulerepo.ScheduleItemRepo) SignalService {
	return &signalService{
		log:          log.With("service", "SignalService"),
		userRepo:     userRepo,
		scheduleRepo: scheduleRepo,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *signalService) DetectDailyState(ctx context.Context, userID uuid.UUID) (*types.DailyState, error) {
	dbc := dbctx.Context{Ctx: ctx}

	u, err := s.userRepo.GetByID(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return nil, apperr.ErrNotFound
	}

	localNow := s.now().In(u.Location())
	y, m, d := localNow.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	items, err := s.scheduleRepo.ListForUserBetween(dbc, userID, day, day.Add(24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("load schedule items: %w", err)
	}

	return computeDailyState(items, localNow), nil
}

func computeDailyState(items []*types.ScheduleItem, localNow time.Time) *types.DailyState {
	var completed, skipped, pending int
	for _, it := range items {
		switch it.Status {
		case types.ScheduleStatusCompleted:
			completed++
		case types.ScheduleStatusSkipped:
			skipped++
		default:
			pending++
		}
	}

	resolved := completed + skipped
	rate := 0.0
	if resolved > 0 {
		rate = float64(completed) / float64(resolved)
	}

	state := &types.DailyState{
		CompletionRate: rate,
		TotalItems:     len(items),
		CompletedItems: completed,
		SkippedItems:   skipped,
		PendingItems:   pending,
		EvaluatedAt:    localNow,
	}
	hour := localNow.Hour()

	stress := stressBase
	switch {
	case len(items) >= stressHeavyDayItems:
		stress += 2
	case len(items) >= stressBusyDayItems:
		stress++
	}
	switch {
	case rate < stressLowRate:
		stress += 2
	case rate < stressMidRate:
		stress++
	case rate >= stressCalmRate:
		stress -= 2
	}
	if skipped >= stressManySkipped {
		stress++
	}
	if hour >= stressEveningHour && pending > stressEveningPile {
		stress++
	}

	energy := energyBase
	switch {
	case rate >= energyHighRate && completed >= energyHighDone:
		energy = 8
	case rate >= energyGoodRate && completed >= energyGoodDone:
		energy = 7
	case rate < energyLowRate && resolved > 0:
		energy = 3
	}

	// An empty day fully resets both signals, hour included. Applied
	// after the density/completion deltas so nothing partial leaks in.
	if len(items) == 0 {
		state.EnergyLevel = emptyDayEnergy
		state.StressLevel = emptyDayStress
		return state
	}

	if hour >= energyMorningFrom && hour <= energyMorningTo {
		energy++
	}
	if hour >= energySlumpFrom && hour <= energySlumpTo {
		energy--
	}

	state.StressLevel = clampInt(stress, signalFloor, signalCeil)
	state.EnergyLevel = clampInt(energy, signalFloor, signalCeil)
	return state
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
