package preference_refresh

import (
	"fmt"

	"github.com/google/uuid"

	jobrt "github.com/lumehq/lume-backend/internal/jobs/runtime"
)

// Run recomputes suggestion preferences over the rolling window, for
// one user when a user_id payload is present, otherwise for every
// active user.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if p == nil || p.preferences == nil {
		jc.Fail("validate", fmt.Errorf("preference_refresh: pipeline not configured"))
		return nil
	}

	if userID, ok := jc.PayloadUUID("user_id"); ok && userID != uuid.Nil {
		jc.Progress("recompute", 10, "Recomputing preferences for one user")
		if _, err := p.preferences.ComputeSuggestionPreferences(jc.Ctx, userID); err != nil {
			jc.Fail("recompute", err)
			return nil
		}
		jc.Succeed("done", map[string]any{"processed": 1, "errors": 0})
		return nil
	}

	jc.Progress("recompute", 10, "Recomputing preferences for active users")
	res, err := p.preferences.ComputePreferencesForAllUsers(jc.Ctx)
	if err != nil {
		jc.Fail("recompute", err)
		return nil
	}
	jc.Succeed("done", map[string]any{"processed": res.Processed, "errors": res.Errors})
	return nil
}
