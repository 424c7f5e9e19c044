package schedule

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

type ScheduleItemRepo interface {
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ScheduleItem, error)
	// ListForUserBetween returns the user's items with scheduled_on in
	// [from, to), oldest first.
	ListForUserBetween(dbc dbctx.Context, userID uuid.UUID, from, to time.Time) ([]*types.ScheduleItem, error)
}

type scheduleItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScheduleItemRepo(db *gorm.DB, baseLog *logger.Logger) ScheduleItemRepo {
	return &scheduleItemRepo{db: db, log: baseLog.With("repo", "ScheduleItemRepo")}
}

func (r *scheduleItemRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ScheduleItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.ScheduleItem
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *scheduleItemRepo) ListForUserBetween(dbc dbctx.Context, userID uuid.UUID, from, to time.Time) ([]*types.ScheduleItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.ScheduleItem
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND scheduled_on >= ? AND scheduled_on < ?", userID, from, to).
		Order("scheduled_on ASC, created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
