package app

import (
	"github.com/lumehq/lume-backend/internal/handlers"
	"github.com/lumehq/lume-backend/internal/middleware"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

type Middleware struct {
	Auth     *middleware.AuthMiddleware
	Internal *middleware.InternalTokenMiddleware
}

type Handlers struct {
	Intervention *handlers.InterventionHandler
	Jobs         *handlers.JobsHandler
}

func wireHandlers(svcs Services) Handlers {
	return Handlers{
		Intervention: handlers.NewInterventionHandler(svcs.Policy, svcs.Intervention, svcs.Preference),
		Jobs:         handlers.NewJobsHandler(svcs.Jobs),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config, svcs Services) Middleware {
	return Middleware{
		Auth:     middleware.NewAuthMiddleware(log, svcs.Auth),
		Internal: middleware.NewInternalTokenMiddleware(log, cfg.InternalAPIToken),
	}
}
