package social

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// LikeLatestPost favorites the most recent post of screenName unless it is
// already favorited. It reports whether a favorite was created.
func LikeLatestPost(ctx context.Context, timeline Timeline, screenName string, logger *slog.Logger) (bool, error) {
	log := logger.With("action", "like_latest_post", "screen_name", screenName)

	post, err := timeline.LatestPost(ctx, screenName)
	if errors.Is(err, ErrNoPosts) {
		log.InfoContext(ctx, "No posts to like")
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read latest post: %w", err)
	}

	if post.Favorited {
		log.InfoContext(ctx, "Latest post already liked", "post_id", post.ID)
		return false, nil
	}

	if err := timeline.Favorite(ctx, post.ID); err != nil {
		return false, fmt.Errorf("failed to like post %s: %w", post.ID, err)
	}

	log.InfoContext(ctx, "Liked latest post", "post_id", post.ID)
	return true, nil
}
