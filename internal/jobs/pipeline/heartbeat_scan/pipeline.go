package heartbeat_scan

import (
	"fmt"

	jobrt "github.com/lumehq/lume-backend/internal/jobs/runtime"
	"github.com/lumehq/lume-backend/internal/platform/dbctx"
)

// Run evaluates the policy layer once for every active user. Users are
// walked sequentially to bound load; one user's failure is counted and
// skipped, never fatal to the scan.
func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	if p == nil || p.users == nil || p.policy == nil {
		jc.Fail("validate", fmt.Errorf("heartbeat_scan: pipeline not configured"))
		return nil
	}

	jc.Progress("scan", 5, "Listing active users")
	userIDs, err := p.users.ListActiveIDs(dbctx.Context{Ctx: jc.Ctx})
	if err != nil {
		jc.Fail("scan", err)
		return nil
	}

	var fired, errors int
	for i, userID := range userIDs {
		if err := jc.Ctx.Err(); err != nil {
			jc.Fail("scan", err)
			return nil
		}

		d, err := p.policy.Evaluate(jc.Ctx, userID)
		if err != nil {
			p.log.Warn("heartbeat evaluation failed for user", "user_id", userID, "error", err)
			errors++
		} else if d != nil && d.Fired {
			fired++
		}

		if len(userIDs) > 10 && (i+1)%10 == 0 {
			pct := 5 + (i+1)*90/len(userIDs)
			jc.Progress("scan", pct, fmt.Sprintf("Evaluated %d/%d users", i+1, len(userIDs)))
		}
	}

	jc.Succeed("done", map[string]any{
		"users":  len(userIDs),
		"fired":  fired,
		"errors": errors,
	})
	return nil
}
