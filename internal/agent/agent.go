// Package agent sequences one follow/unfollow run: gate check, ignore list
// load, graph fetch, the two action passes, summary, and the run-gate update.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/edgard/followbot/internal/fetcher"
	"github.com/edgard/followbot/internal/notify"
	"github.com/edgard/followbot/internal/reconcile"
	"github.com/edgard/followbot/internal/social"
)

// Gate decides whether a run may start and records that one happened.
type Gate interface {
	CanExecute(ctx context.Context) (bool, error)
	RecordRun(ctx context.Context) error
}

// IgnoreLoader loads the persisted ignore set.
type IgnoreLoader interface {
	Load(ctx context.Context) (*reconcile.IgnoreSet, error)
}

// Notifier delivers the run summary. It never fails the run.
type Notifier interface {
	Notify(ctx context.Context, msg notify.Message)
}

// Passes runs the unfollow and follow passes.
type Passes interface {
	Unfollow(ctx context.Context, snap reconcile.Snapshot, ignore *reconcile.IgnoreSet) (reconcile.PassResult, error)
	Follow(ctx context.Context, snap reconcile.Snapshot, ignore *reconcile.IgnoreSet) reconcile.PassResult
}

// Deps are the collaborators of an Agent. Timeline may be nil to skip the
// like-latest-post side action.
type Deps struct {
	Gate     Gate
	Ignore   IgnoreLoader
	Lister   social.PageLister
	Timeline social.Timeline
	Passes   Passes
	Notifier Notifier
	Logger   *slog.Logger
}

// Options tune a run.
type Options struct {
	ScreenName string
	Subject    string
}

// Agent runs the follow/unfollow workflow.
type Agent struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
}

// New creates an Agent.
func New(deps Deps, opts Options) *Agent {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Agent{
		deps:   deps,
		opts:   opts,
		logger: logger.With("component", "agent"),
	}
}

// Run performs one invocation. When the gate blocks, it returns a skipped
// report and mutates nothing. Otherwise the last-run time is recorded exactly
// once on every exit path, including failures and panics, and its error is
// joined with the workflow error.
func (a *Agent) Run(ctx context.Context) (report *Report, err error) {
	runID := uuid.NewString()
	log := a.logger.With("run_id", runID, "screen_name", a.opts.ScreenName)

	canRun, err := a.deps.Gate.CanExecute(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check run gate: %w", err)
	}
	if !canRun {
		log.InfoContext(ctx, "Not enough time has elapsed to run again")
		return &Report{RunID: runID, Skipped: true}, nil
	}

	startTime := time.Now()
	defer func() {
		if recordErr := a.deps.Gate.RecordRun(context.WithoutCancel(ctx)); recordErr != nil {
			log.ErrorContext(ctx, "Failed to record run time", "error", recordErr)
			err = errors.Join(err, fmt.Errorf("failed to record run: %w", recordErr))
		}
	}()

	report = &Report{RunID: runID}
	if err = a.execute(ctx, log, report); err != nil {
		log.ErrorContext(ctx, "Run failed", "error", err, "duration", time.Since(startTime))
		return report, err
	}

	log.InfoContext(ctx, "Run completed",
		"followed", report.Followed.Succeeded,
		"unfollowed", report.Unfollowed.Succeeded,
		"duration", time.Since(startTime))
	return report, nil
}

func (a *Agent) execute(ctx context.Context, log *slog.Logger, report *Report) error {
	ignore, err := a.deps.Ignore.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ignore list: %w", err)
	}

	if a.deps.Timeline != nil {
		liked, err := social.LikeLatestPost(ctx, a.deps.Timeline, a.opts.ScreenName, log)
		if err != nil {
			log.WarnContext(ctx, "Like latest post failed, continuing", "error", err)
		}
		report.LikedPost = liked
	}

	following, err := fetcher.FetchIDs(ctx, a.deps.Lister, a.opts.ScreenName, social.Following, log)
	if err != nil {
		return fmt.Errorf("failed to fetch following: %w", err)
	}
	followers, err := fetcher.FetchIDs(ctx, a.deps.Lister, a.opts.ScreenName, social.Followers, log)
	if err != nil {
		return fmt.Errorf("failed to fetch followers: %w", err)
	}

	snap := reconcile.Snapshot{Followers: followers, Following: following}
	report.Followers = len(followers)
	report.Following = len(following)

	report.Unfollowed, err = a.deps.Passes.Unfollow(ctx, snap, ignore)
	report.Ignoring = ignore.Len()
	if err != nil {
		return fmt.Errorf("unfollow pass failed: %w", err)
	}

	report.Followed = a.deps.Passes.Follow(ctx, snap, ignore)
	report.Ignoring = ignore.Len()

	if a.deps.Notifier != nil {
		a.deps.Notifier.Notify(ctx, notify.Message{
			Subject: a.opts.Subject,
			HTML:    report.HTML(),
			Text:    report.Text(),
		})
	}
	return nil
}
