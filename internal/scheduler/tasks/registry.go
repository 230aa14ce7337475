// Package tasks implements the scheduled tasks of followbot.
package tasks

import (
	"context"
	"log/slog"

	"github.com/edgard/followbot/internal/agent"
	"github.com/edgard/followbot/internal/database"
)

// ScheduledTaskFunc is the signature of every scheduled task. The context
// is cancelled when the scheduler stops.
type ScheduledTaskFunc func(ctx context.Context) error

// Runner performs one agent invocation.
type Runner interface {
	Run(ctx context.Context) (*agent.Report, error)
}

// TaskDeps contains the dependencies shared by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Agent  Runner
}

// Task names, matching the keys under scheduler.tasks in the config.
const (
	FollowSync     = "follow_sync"
	SQLMaintenance = "sql_maintenance"
)

// RegisterAllTasks returns every task keyed by its config name.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := map[string]ScheduledTaskFunc{
		FollowSync:     newFollowSyncTask(deps),
		SQLMaintenance: newSQLMaintenanceTask(deps),
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
