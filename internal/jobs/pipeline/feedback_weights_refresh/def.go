package feedback_weights_refresh

import (
	"gorm.io/gorm"

	"github.com/lumehq/lume-backend/internal/platform/logger"
	"github.com/lumehq/lume-backend/internal/services"
)

type Pipeline struct {
	db       *gorm.DB
	log      *logger.Logger
	feedback services.FeedbackService
}

func New(db *gorm.DB, baseLog *logger.Logger, feedback services.FeedbackService) *Pipeline {
	return &Pipeline{
		db:       db,
		log:      baseLog.With("job", "feedback_weights_refresh"),
		feedback: feedback,
	}
}

func (p *Pipeline) Type() string { return "feedback_weights_refresh" }
