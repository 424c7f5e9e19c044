package runtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	jobsrepo "github.com/lumehq/lume-backend/internal/data/repos/jobs"
	types "github.com/lumehq/lume-backend/internal/domain"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
	"github.com/lumehq/lume-backend/internal/platform/logger"
)

// Context is the execution handle for one job run. Pipelines report
// progress and terminate through it; they never touch the job_run row
// directly. Lifecycle writes are guarded so a canceled job is never
// overwritten.
type Context struct {
	Ctx  context.Context
	DB   *gorm.DB
	Log  *logger.Logger
	Job  *types.JobRun
	Repo jobsrepo.JobRunRepo

	payload map[string]any
}

func NewContext(ctx context.Context, db *gorm.DB, log *logger.Logger, job *types.JobRun, repo jobsrepo.JobRunRepo) *Context {
	c := &Context{
		Ctx:  ctx,
		DB:   db,
		Log:  log,
		Job:  job,
		Repo: repo,
	}
	_ = c.decodePayload()
	return c
}

func (c *Context) decodePayload() error {
	if c.Job == nil {
		return nil
	}
	if len(c.Job.Payload) == 0 {
		c.payload = map[string]any{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(c.Job.Payload, &m); err != nil {
		c.payload = map[string]any{}
		return err
	}
	c.payload = m
	return nil
}

// Payload never returns nil.
func (c *Context) Payload() map[string]any {
	if c.payload == nil {
		c.payload = map[string]any{}
	}
	return c.payload
}

func (c *Context) PayloadUUID(key string) (uuid.UUID, bool) {
	v, ok := c.Payload()[key]
	if !ok || v == nil {
		return uuid.Nil, false
	}
	s, ok := v.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func (c *Context) Progress(stage string, pct int, msg string) {
	if c == nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now().UTC()

	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, c.Job.ID, []string{types.JobStatusCanceled}, map[string]interface{}{
			"stage":        stage,
			"progress":     pct,
			"message":      msg,
			"heartbeat_at": now,
			"updated_at":   now,
		})
		if !ok {
			return
		}
	}

	if c.Job != nil {
		c.Job.Stage = stage
		c.Job.Progress = pct
		c.Job.Message = msg
		c.Job.HeartbeatAt = &now
		c.Job.UpdatedAt = now
	}
	if c.Log != nil {
		c.Log.Info("job progress", "job_type", c.Job.JobType, "job_id", c.Job.ID, "stage", stage, "pct", pct)
	}
}

func (c *Context) Fail(stage string, err error) {
	if c == nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now().UTC()
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, c.Job.ID, []string{types.JobStatusCanceled}, map[string]interface{}{
			"status":        types.JobStatusFailed,
			"stage":         stage,
			"message":       "",
			"error":         msg,
			"last_error_at": now,
			"updated_at":    now,
		})
		if !ok {
			return
		}
	}

	if c.Job != nil {
		c.Job.Status = types.JobStatusFailed
		c.Job.Stage = stage
		c.Job.Message = ""
		c.Job.Error = msg
		c.Job.LastErrorAt = &now
		c.Job.UpdatedAt = now
	}
	if c.Log != nil {
		c.Log.Warn("job failed", "job_type", c.Job.JobType, "job_id", c.Job.ID, "stage", stage, "error", msg)
	}
}

func (c *Context) Succeed(finalStage string, result map[string]any) {
	if c == nil {
		return
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	now := time.Now().UTC()

	var raw datatypes.JSON
	if result != nil {
		if b, err := json.Marshal(result); err == nil {
			raw = datatypes.JSON(b)
		}
	}

	if c.Repo != nil && c.Job != nil && c.Job.ID != uuid.Nil {
		updates := map[string]interface{}{
			"status":     types.JobStatusSucceeded,
			"stage":      finalStage,
			"progress":   100,
			"updated_at": now,
		}
		if raw != nil {
			updates["result"] = raw
		}
		ok, _ := c.Repo.UpdateFieldsUnlessStatus(dbctx.Context{Ctx: ctx}, c.Job.ID, []string{types.JobStatusCanceled}, updates)
		if !ok {
			return
		}
	}

	if c.Job != nil {
		c.Job.Status = types.JobStatusSucceeded
		c.Job.Stage = finalStage
		c.Job.Progress = 100
		if raw != nil {
			c.Job.Result = raw
		}
		c.Job.UpdatedAt = now
	}
	if c.Log != nil {
		c.Log.Info("job succeeded", "job_type", c.Job.JobType, "job_id", c.Job.ID, "stage", finalStage)
	}
}
