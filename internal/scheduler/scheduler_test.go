package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/followbot/internal/config"
	"github.com/edgard/followbot/internal/scheduler/tasks"
)

const everySecond = "* * * * * *"

func TestSchedulerRunsEnabledTasks(t *testing.T) {
	var ran, disabled atomic.Int32
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"tick": func(context.Context) error {
			ran.Add(1)
			return nil
		},
		"off": func(context.Context) error {
			disabled.Add(1)
			return nil
		},
	}
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"tick":    {Enabled: true, Schedule: everySecond},
		"off":     {Enabled: false, Schedule: everySecond},
		"missing": {Enabled: true, Schedule: everySecond},
		"broken":  {Enabled: true, Schedule: "not a cron"},
	}}

	s, err := NewScheduler(nil, cfg, taskMap)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	assert.Len(t, s.scheduler.Jobs(), 1)
	assert.Eventually(t, func() bool { return ran.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	assert.Zero(t, disabled.Load())
}

func TestSchedulerStartTwice(t *testing.T) {
	s, err := NewScheduler(nil, &config.SchedulerConfig{}, nil)
	require.NoError(t, err)

	require.NoError(t, s.Start())
	assert.ErrorIs(t, s.Start(), ErrAlreadyRunning)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop(), "stopping a stopped scheduler is a no-op")
}

func TestSchedulerStopCancelsTasks(t *testing.T) {
	started := make(chan struct{}, 1)
	var cancelled atomic.Bool
	taskMap := map[string]tasks.ScheduledTaskFunc{
		"slow": func(ctx context.Context) error {
			select {
			case started <- struct{}{}:
			default:
			}
			<-ctx.Done()
			cancelled.Store(true)
			return ctx.Err()
		},
	}
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		"slow": {Enabled: true, Schedule: everySecond},
	}}

	s, err := NewScheduler(nil, cfg, taskMap)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("task never started")
	}

	require.NoError(t, s.Stop())
	assert.True(t, cancelled.Load())
}
