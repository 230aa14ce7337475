package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// newSQLMaintenanceTask compacts the record store. It is skipped when the
// store does not answer a ping, so a broken connection is reported as such
// rather than as a failed VACUUM.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	base := deps.Logger.With("task", SQLMaintenance)

	return func(ctx context.Context) error {
		log := base.With("maintenance_id", uuid.NewString())

		if err := deps.Store.Ping(ctx); err != nil {
			return fmt.Errorf("store unreachable before maintenance: %w", err)
		}

		startTime := time.Now()
		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			return fmt.Errorf("sql maintenance failed after %s: %w", time.Since(startTime).Round(time.Millisecond), err)
		}

		log.InfoContext(ctx, "Record store compacted", "duration", time.Since(startTime))
		return nil
	}
}
