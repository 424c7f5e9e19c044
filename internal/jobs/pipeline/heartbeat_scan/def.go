package heartbeat_scan

import (
	"gorm.io/gorm"

	userrepo "github.com/lumehq/lume-backend/internal/data/repos/user"
	"github.com/lumehq/lume-backend/internal/platform/logger"
	"github.com/lumehq/lume-backend/internal/services"
)

type Pipeline struct {
	db     *gorm.DB
	log    *logger.Logger
	users  userrepo.UserRepo
	policy services.PolicyService
}

func New(db *gorm.DB, baseLog *logger.Logger, users userrepo.UserRepo, policy services.PolicyService) *Pipeline {
	return &Pipeline{
		db:     db,
		log:    baseLog.With("job", "heartbeat_scan"),
		users:  users,
		policy: policy,
	}
}

func (p *Pipeline) Type() string { return "heartbeat_scan" }
