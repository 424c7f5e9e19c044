package preference_refresh

import (
	"gorm.io/gorm"

	"github.com/lumehq/lume-backend/internal/platform/logger"
	"github.com/lumehq/lume-backend/internal/services"
)

type Pipeline struct {
	db          *gorm.DB
	log         *logger.Logger
	preferences services.PreferenceService
}

func New(db *gorm.DB, baseLog *logger.Logger, preferences services.PreferenceService) *Pipeline {
	return &Pipeline{
		db:          db,
		log:         baseLog.With("job", "preference_refresh"),
		preferences: preferences,
	}
}

func (p *Pipeline) Type() string { return "preference_refresh" }
