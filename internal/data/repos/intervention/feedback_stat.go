package intervention

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

type FeedbackStatRepo interface {
	Get(dbc dbctx.Context, userID uuid.UUID, actionType string) (*types.FeedbackStat, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.FeedbackStat, error)
	Upsert(dbc dbctx.Context, row *types.FeedbackStat) error
}

type feedbackStatRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFeedbackStatRepo(db *gorm.DB, baseLog *logger.Logger) FeedbackStatRepo {
	return &feedbackStatRepo{db: db, log: baseLog.With("repo", "FeedbackStatRepo")}
}

func (r *feedbackStatRepo) Get(dbc dbctx.Context, userID uuid.UUID, actionType string) (*types.FeedbackStat, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil || actionType == "" {
		return nil, nil
	}
	var out types.FeedbackStat
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND action_type = ?", userID, actionType).
		Limit(1).
		Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *feedbackStatRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.FeedbackStat, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.FeedbackStat
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Order("action_type ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *feedbackStatRepo) Upsert(dbc dbctx.Context, row *types.FeedbackStat) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil || row.ActionType == "" {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()

	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "action_type"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"weight_multiplier",
				"total_count",
				"accepted_count",
				"dismissed_count",
				"updated_at",
			}),
		}).
		Create(row).Error
}
