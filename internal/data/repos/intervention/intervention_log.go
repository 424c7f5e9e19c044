package intervention

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

type InterventionLogRepo interface {
	Create(dbc dbctx.Context, row *types.InterventionLog) (*types.InterventionLog, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.InterventionLog, error)

	// ListWithFeedback returns every log for the user that carries
	// feedback, oldest first.
	ListWithFeedback(dbc dbctx.Context, userID uuid.UUID) ([]*types.InterventionLog, error)
	// ListFiredSince returns logs fired at or after the cutoff.
	ListFiredSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.InterventionLog, error)
	// DistinctUserIDsWithFeedback lists users with at least one
	// feedback-bearing log.
	DistinctUserIDsWithFeedback(dbc dbctx.Context) ([]uuid.UUID, error)

	// SetFeedbackOnce transitions feedback from unset to value for a
	// log owned by userID. Returns false when the row is missing, owned
	// by someone else, or feedback was already set; the guard lives in
	// the WHERE clause, not in application reads.
	SetFeedbackOnce(dbc dbctx.Context, id, userID uuid.UUID, value string, at time.Time) (bool, error)
}

type interventionLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInterventionLogRepo(db *gorm.DB, baseLog *logger.Logger) InterventionLogRepo {
	return &interventionLogRepo{db: db, log: baseLog.With("repo", "InterventionLogRepo")}
}

func (r *interventionLogRepo) Create(dbc dbctx.Context, row *types.InterventionLog) (*types.InterventionLog, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil {
		return nil, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.FiredAt.IsZero() {
		row.FiredAt = time.Now().UTC()
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *interventionLogRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.InterventionLog, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.InterventionLog
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *interventionLogRepo) ListWithFeedback(dbc dbctx.Context, userID uuid.UUID) ([]*types.InterventionLog, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.InterventionLog
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND feedback <> ''", userID).
		Order("fired_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *interventionLogRepo) ListFiredSince(dbc dbctx.Context, userID uuid.UUID, since time.Time) ([]*types.InterventionLog, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.InterventionLog
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND fired_at >= ?", userID, since).
		Order("fired_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *interventionLogRepo) DistinctUserIDsWithFeedback(dbc dbctx.Context) ([]uuid.UUID, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []uuid.UUID
	if err := t.WithContext(dbc.Ctx).
		Model(&types.InterventionLog{}).
		Where("feedback <> ''").
		Distinct("user_id").
		Pluck("user_id", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *interventionLogRepo) SetFeedbackOnce(dbc dbctx.Context, id, userID uuid.UUID, value string, at time.Time) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || userID == uuid.Nil || value == "" {
		return false, nil
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.InterventionLog{}).
		Where("id = ? AND user_id = ? AND feedback = ''", id, userID).
		Updates(map[string]interface{}{
			"feedback":    value,
			"feedback_at": at,
			"updated_at":  at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
