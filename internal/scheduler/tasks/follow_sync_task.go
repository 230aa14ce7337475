package tasks

import (
	"context"
	"fmt"
)

// newFollowSyncTask runs the agent. The run gate still decides whether a
// given tick does any work.
func newFollowSyncTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", FollowSync)

	return func(ctx context.Context) error {
		report, err := deps.Agent.Run(ctx)
		if err != nil {
			return fmt.Errorf("follow sync failed: %w", err)
		}
		if report.Skipped {
			log.DebugContext(ctx, "Follow sync skipped by run gate", "run_id", report.RunID)
			return nil
		}
		log.InfoContext(ctx, "Follow sync completed",
			"run_id", report.RunID,
			"followed", report.Followed.Succeeded,
			"unfollowed", report.Unfollowed.Succeeded)
		return nil
	}
}
