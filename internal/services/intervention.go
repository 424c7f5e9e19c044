package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	interventionrepo "github.com/lumehq/lume-backend/internal/data/repos/intervention"
	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/apperr"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

// InterventionService owns the fired-intervention history and the
// one-shot feedback transition on it.
type InterventionService interface {
	RecordFired(ctx context.Context, userID uuid.UUID, actionType string, payload map[string]string) (*types.InterventionLog, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.InterventionLog, error)
	// RecordFeedback transitions feedback from unset to value exactly
	// once, for a log owned by userID. A second write returns
	// apperr.ErrAlreadySet; another user's log is ErrNotFound.
	RecordFeedback(ctx context.Context, userID, logID uuid.UUID, value string) error
}

type interventionService struct {
	log     *logger.Logger
	logRepo interventionrepo.InterventionLogRepo
	now     func() time.Time
}

func NewInterventionService(log *logger.Logger, logRepo interventionrepo.InterventionLogRepo) InterventionService {
	return &interventionService{
		log:     log.With("service", "InterventionService"),
		logRepo: logRepo,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *interventionService) RecordFired(ctx context.Context, userID uuid.UUID, actionType string, payload map[string]string) (*types.InterventionLog, error) {
	if userID == uuid.Nil || actionType == "" {
		return nil, apperr.ErrInvalidArgument
	}

	row := &types.InterventionLog{
		UserID:     userID,
		ActionType: actionType,
		FiredAt:    s.now(),
	}
	if len(payload) > 0 {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		row.Payload = datatypes.JSON(raw)
	}

	created, err := s.logRepo.Create(dbctx.Context{Ctx: ctx}, row)
	if err != nil {
		return nil, fmt.Errorf("create intervention log: %w", err)
	}
	return created, nil
}

func (s *interventionService) GetByID(ctx context.Context, id uuid.UUID) (*types.InterventionLog, error) {
	row, err := s.logRepo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.ErrNotFound
	}
	return row, nil
}

func (s *interventionService) RecordFeedback(ctx context.Context, userID, logID uuid.UUID, value string) error {
	if userID == uuid.Nil || logID == uuid.Nil || !types.ValidFeedback(value) {
		return apperr.ErrInvalidArgument
	}
	dbc := dbctx.Context{Ctx: ctx}

	set, err := s.logRepo.SetFeedbackOnce(dbc, logID, userID, value, s.now())
	if err != nil {
		return fmt.Errorf("set feedback: %w", err)
	}
	if set {
		return nil
	}

	// Zero rows matched: missing, owned by someone else, or feedback
	// already recorded. Another user's log reads as not found.
	row, err := s.logRepo.GetByID(dbc, logID)
	if err != nil {
		return fmt.Errorf("load intervention log: %w", err)
	}
	if row == nil || row.UserID != userID {
		return apperr.ErrNotFound
	}
	return apperr.ErrAlreadySet
}
