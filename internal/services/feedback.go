package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	interventionrepo "github.com/lumehq/lume-backend/internal/data/repos/intervention"
	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

const (
	weightFloor   = 0.1
	weightCeil    = 2.0
	rateSmoothing = 0.1
)

// BatchResult summarizes a per-user batch run.
type BatchResult struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}

// FeedbackService turns accumulated intervention feedback into per
// action-type weight multipliers. Every run is a full recompute from
// history; concurrent runs are last-writer-wins and land on the same
// result.
type FeedbackService interface {
	ComputeWeights(ctx context.Context, userID uuid.UUID) error
	ComputeWeightsForAllUsers(ctx context.Context) (BatchResult, error)
}

type feedbackService struct {
	log      *logger.Logger
	logRepo  interventionrepo.InterventionLogRepo
	statRepo interventionrepo.FeedbackStatRepo
	now      func() time.Time
}

func NewFeedbackService(log *logger.Logger, logRepo interventionrepo.InterventionLogRepo, statRepo interventionrepo.FeedbackStatRepo) FeedbackService {
	return &feedbackService{
		log:      log.With("service", "FeedbackService"),
		logRepo:  logRepo,
		statRepo: statRepo,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *feedbackService) ComputeWeights(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return nil
	}
	dbc := dbctx.Context{Ctx: ctx}

	rows, err := s.logRepo.ListWithFeedback(dbc, userID)
	if err != nil {
		return fmt.Errorf("list feedback logs: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	type tally struct {
		total     int
		accepted  int
		dismissed int
	}
	byType := map[string]*tally{}
	for _, r := range rows {
		t := byType[r.ActionType]
		if t == nil {
			t = &tally{}
			byType[r.ActionType] = t
		}
		t.total++
		switch r.Feedback {
		case types.FeedbackAccepted:
			t.accepted++
		case types.FeedbackDismissed:
			t.dismissed++
		}
	}

	for actionType, t := range byType {
		acceptRate := float64(t.accepted) / float64(t.total)
		dismissRate := float64(t.dismissed) / float64(t.total)
		weight := clampFloat(acceptRate/(dismissRate+rateSmoothing), weightFloor, weightCeil)

		err := s.statRepo.Upsert(dbc, &types.FeedbackStat{
			UserID:           userID,
			ActionType:       actionType,
			WeightMultiplier: weight,
			TotalCount:       t.total,
			AcceptedCount:    t.accepted,
			DismissedCount:   t.dismissed,
			UpdatedAt:        s.now(),
		})
		if err != nil {
			return fmt.Errorf("upsert feedback stat %s: %w", actionType, err)
		}
	}
	return nil
}

func (s *feedbackService) ComputeWeightsForAllUsers(ctx context.Context) (BatchResult, error) {
	var res BatchResult

	userIDs, err := s.logRepo.DistinctUserIDsWithFeedback(dbctx.Context{Ctx: ctx})
	if err != nil {
		return res, fmt.Errorf("list users with feedback: %w", err)
	}

	// Sequential on purpose: bounds load on the database, and one bad
	// user's history never aborts the rest.
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := s.ComputeWeights(ctx, userID); err != nil {
			s.log.Warn("feedback recompute failed for user", "user_id", userID, "error", err)
			res.Errors++
			continue
		}
		res.Processed++
	}
	return res, nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
