package reconcile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"github.com/edgard/followbot/internal/social"
)

// IgnoreSaver persists the ignore set after it grows.
type IgnoreSaver interface {
	Save(ctx context.Context, ignore *IgnoreSet) error
}

// Limits caps how many actions each pass attempts per run.
type Limits struct {
	Follow   int
	Unfollow int
}

// Snapshot is the relationship graph fetched at the start of a run.
type Snapshot struct {
	Followers []social.UserID
	Following []social.UserID
}

// PassResult summarises one follow or unfollow pass.
type PassResult struct {
	Candidates int
	Attempted  int
	Succeeded  int
	// Ignored is how many ids the pass added to the ignore set.
	Ignored int
}

// Engine executes the unfollow and follow passes against the remote API.
type Engine struct {
	actions social.Relationships
	saver   IgnoreSaver
	limits  Limits
	rng     *rand.Rand
	logger  *slog.Logger
}

// NewEngine creates an Engine. rng may be nil to use the global random source.
func NewEngine(actions social.Relationships, saver IgnoreSaver, limits Limits, rng *rand.Rand, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		actions: actions,
		saver:   saver,
		limits:  limits,
		rng:     rng,
		logger:  logger.With("component", "reconcile_engine"),
	}
}

// Unfollow unfollows up to the unfollow limit of accounts that do not follow
// back, chosen at random. Every such account joins the ignore set, which is
// saved only if it grew. Only a save failure is returned as an error.
func (e *Engine) Unfollow(ctx context.Context, snap Snapshot, ignore *IgnoreSet) (PassResult, error) {
	candidates, added := UnfollowCandidates(snap.Followers, snap.Following, ignore)
	e.logger.InfoContext(ctx, "Computed unfollow candidates", "candidates", len(candidates), "newly_ignored", added)

	result := e.execute(ctx, "unfollow", candidates, e.limits.Unfollow, e.actions.Unfollow)
	result.Ignored = added

	if added == 0 {
		e.logger.InfoContext(ctx, "No additional users to ignore")
		return result, nil
	}

	e.logger.InfoContext(ctx, "Saving grown ignore list", "size", ignore.Len(), "added", added)
	if err := e.saver.Save(ctx, ignore); err != nil {
		return result, fmt.Errorf("failed to save ignore list: %w", err)
	}
	return result, nil
}

// Follow follows up to the follow limit of followers that are neither
// followed nor ignored, chosen at random.
func (e *Engine) Follow(ctx context.Context, snap Snapshot, ignore *IgnoreSet) PassResult {
	candidates := FollowCandidates(snap.Followers, snap.Following, ignore)
	e.logger.InfoContext(ctx, "Computed follow candidates", "candidates", len(candidates))

	return e.execute(ctx, "follow", candidates, e.limits.Follow, e.actions.Follow)
}

func (e *Engine) execute(ctx context.Context, action string, candidates []social.UserID, limit int, do func(context.Context, social.UserID) error) PassResult {
	result := PassResult{Candidates: len(candidates)}
	pool := NewPool(candidates, e.rng)
	log := e.logger.With("action", action)

	for result.Attempted < limit {
		id, ok := pool.Pick()
		if !ok {
			break
		}
		result.Attempted++

		log.InfoContext(ctx, "Attempting action", "attempt", result.Attempted, "user_id", id)
		if err := do(ctx, id); err != nil {
			log.WarnContext(ctx, "Action failed, continuing", "user_id", id, "error", err)
			continue
		}
		result.Succeeded++
	}

	log.InfoContext(ctx, "Finished pass",
		"candidates", result.Candidates,
		"attempted", result.Attempted,
		"succeeded", result.Succeeded,
		"remaining", pool.Len())
	return result
}
