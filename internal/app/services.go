package app

import (
	"gorm.io/gorm"

	deliveryclient "github.com/lumehq/lume-backend/internal/clients/delivery"
	openaiclient "github.com/lumehq/lume-backend/internal/clients/openai"
	redisclient "github.com/lumehq/lume-backend/internal/clients/redis"
	"github.com/lumehq/lume-backend/internal/jobs/pipeline/feedback_weights_refresh"
	"github.com/lumehq/lume-backend/internal/jobs/pipeline/heartbeat_scan"
	"github.com/lumehq/lume-backend/internal/jobs/pipeline/preference_refresh"
	jobrt "github.com/lumehq/lume-backend/internal/jobs/runtime"
	"github.com/lumehq/lume-backend/internal/platform/breaker"
	"github.com/lumehq/lume-backend/internal/platform/logger"
	"github.com/lumehq/lume-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Signal       services.SignalService
	Ledger       services.LedgerService
	Feedback     services.FeedbackService
	Preference   services.PreferenceService
	Intervention services.InterventionService
	Generation   services.GenerationService
	Dispatch     services.DispatchService
	Policy       services.PolicyService
	Jobs         services.JobService

	Breakers    *breaker.Registry
	JobRegistry *jobrt.Registry
	LedgerStore redisclient.LedgerStore
}

// wireServices builds the engine bottom-up. Collaborator clients that
// fail to initialize are wired as absent: the services they back
// degrade instead of blocking startup.
func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos) (Services, error) {
	breakers := breaker.NewRegistry(breaker.DefaultConfig())

	ledgerStore, err := redisclient.NewLedgerStore(log)
	if err != nil {
		log.Warn("redis ledger unavailable, dedup degraded", "error", err)
		ledgerStore = nil
	}

	openaiClient, err := openaiclient.NewClient(log)
	if err != nil {
		log.Warn("openai unavailable, using template phrasing", "error", err)
		openaiClient = nil
	}

	var deliverers []deliveryclient.Deliverer
	if push, err := deliveryclient.NewPushDeliverer(log); err != nil {
		log.Warn("push deliverer unavailable", "error", err)
	} else {
		deliverers = append(deliverers, push)
	}
	if chat, err := deliveryclient.NewChatDeliverer(log); err != nil {
		log.Warn("chat deliverer unavailable", "error", err)
	} else {
		deliverers = append(deliverers, chat)
	}

	auth := services.NewAuthService(db, log, repos.User, cfg.JWTSecretKey)
	signal := services.NewSignalService(log, repos.User, repos.Schedule)
	ledger := services.NewLedgerService(log, ledgerStore)
	feedback := services.NewFeedbackService(log, repos.InterventionLog, repos.FeedbackStat)
	preference := services.NewPreferenceService(log, repos.User, repos.InterventionLog, repos.Preference)
	intervention := services.NewInterventionService(log, repos.InterventionLog)
	generation := services.NewGenerationService(log, openaiClient, breakers)
	dispatch := services.NewDispatchService(log, breakers, deliverers...)
	policy := services.NewPolicyService(
		log,
		cfg.Blend,
		repos.User,
		repos.FeedbackStat,
		repos.Preference,
		signal,
		ledger,
		intervention,
		generation,
		dispatch,
	)

	jobRegistry := jobrt.NewRegistry()
	for _, h := range []jobrt.Handler{
		feedback_weights_refresh.New(db, log, feedback),
		preference_refresh.New(db, log, preference),
		heartbeat_scan.New(db, log, repos.User, policy),
	} {
		if err := jobRegistry.Register(h); err != nil {
			return Services{}, err
		}
	}
	jobs := services.NewJobService(db, log, repos.JobRun, jobRegistry)

	return Services{
		Auth:         auth,
		Signal:       signal,
		Ledger:       ledger,
		Feedback:     feedback,
		Preference:   preference,
		Intervention: intervention,
		Generation:   generation,
		Dispatch:     dispatch,
		Policy:       policy,
		Jobs:         jobs,
		Breakers:     breakers,
		JobRegistry:  jobRegistry,
		LedgerStore:  ledgerStore,
	}, nil
}
