package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	jobsrepo "github.com/lumehq/lume-backend/internal/data/repos/jobs"
	types "github.com/lumehq/lume-backend/internal/domain"
	jobrt "github.com/lumehq/lume-backend/internal/jobs/runtime"
	"github.com/lumehq/lume-backend/internal/platform/apperr"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

// JobService creates job_run rows and executes registered pipelines.
// Each run is a short-lived unit of work in its own goroutine; there is
// no long-running coordinator.
type JobService interface {
	Run(ctx context.Context, jobType string, payload map[string]any) (*types.JobRun, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	db       *gorm.DB
	log      *logger.Logger
	repo     jobsrepo.JobRunRepo
	registry *jobrt.Registry
	// timeout bounds one background run.
	timeout time.Duration
}

func NewJobService(db *gorm.DB, log *logger.Logger, repo jobsrepo.JobRunRepo, registry *jobrt.Registry) JobService {
	return &jobService{
		db:       db,
		log:      log.With("service", "JobService"),
		repo:     repo,
		registry: registry,
		timeout:  30 * time.Minute,
	}
}

func (s *jobService) Run(ctx context.Context, jobType string, payload map[string]any) (*types.JobRun, error) {
	handler, ok := s.registry.Get(jobType)
	if !ok {
		return nil, fmt.Errorf("unknown job type %q: %w", jobType, apperr.ErrNotFound)
	}

	row := &types.JobRun{
		JobType: jobType,
		Status:  types.JobStatusQueued,
		Stage:   "queued",
	}
	if len(payload) > 0 {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
		row.Payload = datatypes.JSON(raw)
	}

	created, err := s.repo.Create(dbctx.Context{Ctx: ctx}, row)
	if err != nil {
		return nil, fmt.Errorf("create job run: %w", err)
	}

	go s.execute(handler, created)
	return created, nil
}

func (s *jobService) execute(handler jobrt.Handler, job *types.JobRun) {
	// Detached from the trigger request on purpose: the caller does
	// not wait for batch work.
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	now := time.Now().UTC()
	ok, err := s.repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, job.ID, []string{types.JobStatusCanceled}, map[string]interface{}{
		"status":       types.JobStatusRunning,
		"stage":        "start",
		"heartbeat_at": now,
		"updated_at":   now,
	})
	if err != nil || !ok {
		s.log.Warn("job claim failed", "job_type", job.JobType, "job_id", job.ID, "error", err)
		return
	}
	job.Status = types.JobStatusRunning

	jc := jobrt.NewContext(ctx, s.db, s.log, job, s.repo)
	defer func() {
		if r := recover(); r != nil {
			jc.Fail("panic", fmt.Errorf("job panicked: %v", r))
		}
	}()

	if err := handler.Run(jc); err != nil {
		jc.Fail("run", err)
	}
}

func (s *jobService) GetByID(ctx context.Context, id uuid.UUID) (*types.JobRun, error) {
	row, err := s.repo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apperr.ErrNotFound
	}
	return row, nil
}
