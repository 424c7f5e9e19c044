package feedback_weights_refresh

import (
	"fmt"

	"github.com/google/uuid"

	jobrt "github.com/lumehq/lume-backend/internal/jobs/runtime"
)

// Run recomputes feedback weights. With a user_id payload it refreshes
// one user; without, it walks every user with feedback history.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if p == nil || p.feedback == nil {
		jc.Fail("validate", fmt.Errorf("feedback_weights_refresh: pipeline not configured"))
		return nil
	}

	if userID, ok := jc.PayloadUUID("user_id"); ok && userID != uuid.Nil {
		jc.Progress("recompute", 10, "Recomputing weights for one user")
		if err := p.feedback.ComputeWeights(jc.Ctx, userID); err != nil {
			jc.Fail("recompute", err)
			return nil
		}
		jc.Succeed("done", map[string]any{"processed": 1, "errors": 0})
		return nil
	}

	jc.Progress("recompute", 10, "Recomputing weights for all users")
	res, err := p.feedback.ComputeWeightsForAllUsers(jc.Ctx)
	if err != nil {
		jc.Fail("recompute", err)
		return nil
	}
	jc.Succeed("done", map[string]any{"processed": res.Processed, "errors": res.Errors})
	return nil
}
