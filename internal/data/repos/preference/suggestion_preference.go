package preference

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

type SuggestionPreferenceRepo interface {
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.SuggestionPreference, error)
	Upsert(dbc dbctx.Context, row *types.SuggestionPreference) error
}

type suggestionPreferenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSuggestionPreferenceRepo(db *gorm.DB, baseLog *logger.Logger) SuggestionPreferenceRepo {
	return &suggestionPreferenceRepo{db: db, log: baseLog.With("repo", "SuggestionPreferenceRepo")}
}

func (r *suggestionPreferenceRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.SuggestionPreference, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var out types.SuggestionPreference
	if err := t.WithContext(dbc.Ctx).Where("user_id = ?", userID).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if out.ID == uuid.Nil {
		return nil, nil
	}
	return &out, nil
}

func (r *suggestionPreferenceRepo) Upsert(dbc dbctx.Context, row *types.SuggestionPreference) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.UpdatedAt = time.Now().UTC()

	return t.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"category_weights",
				"time_category_scores",
				"top_categories",
				"avoid_categories",
				"updated_at",
			}),
		}).
		Create(row).Error
}
