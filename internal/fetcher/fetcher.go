// Package fetcher retrieves complete follower and following id lists from the
// cursor-paginated social API.
package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/followbot/internal/social"
)

// FetchIDs walks every page of the listing for screenName, starting without a
// cursor and stopping once the reported next cursor is zero or negative.
// Page ids are concatenated in order; duplicates across pages are kept.
func FetchIDs(ctx context.Context, lister social.PageLister, screenName string, dir social.Direction, logger *slog.Logger) ([]social.UserID, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "fetcher", "direction", dir.String(), "screen_name", screenName)
	log.InfoContext(ctx, "Fetching id list")

	var (
		ids    []social.UserID
		cursor int64
		pages  int
	)

	for {
		page, err := lister.ListIDs(ctx, dir, screenName, cursor)
		if err != nil {
			log.ErrorContext(ctx, "Failed to fetch id page", "page", pages+1, "error", err)
			return nil, fmt.Errorf("failed to fetch %s page %d: %w", dir, pages+1, err)
		}
		pages++

		ids = append(ids, page.IDs...)
		log.DebugContext(ctx, "Fetched id page", "page", pages, "count", len(page.IDs), "next_cursor", page.NextCursor)

		if page.NextCursor <= 0 {
			break
		}
		cursor = page.NextCursor
	}

	log.InfoContext(ctx, "Fetched id list", "pages", pages, "total", len(ids))
	return ids, nil
}
