// Package social implements the remote social-graph API client used by the
// agent: paginated follower/following id reads, relationship actions, and the
// latest-post favorite side action.
package social

import "context"

// UserID is an opaque account identifier from the remote social graph.
type UserID string

// Direction selects which side of the relationship graph is listed.
type Direction int

const (
	// Followers lists accounts following the target account.
	Followers Direction = iota
	// Following lists accounts the target account follows.
	Following
)

// String returns the direction name used in logs.
func (d Direction) String() string {
	switch d {
	case Followers:
		return "followers"
	case Following:
		return "following"
	default:
		return "unknown"
	}
}

// IDPage is one page of a cursor-paginated id listing.
type IDPage struct {
	IDs        []UserID
	NextCursor int64
}

// Post is the subset of a timeline entry the agent needs.
type Post struct {
	ID        string
	Text      string
	Favorited bool
}

// PageLister reads one page of ids. A zero cursor requests the first page.
type PageLister interface {
	ListIDs(ctx context.Context, dir Direction, screenName string, cursor int64) (*IDPage, error)
}

// Relationships creates and destroys follow relationships.
type Relationships interface {
	Follow(ctx context.Context, id UserID) error
	Unfollow(ctx context.Context, id UserID) error
}

// Timeline reads the latest post of an account and marks posts as favorite.
type Timeline interface {
	LatestPost(ctx context.Context, screenName string) (*Post, error)
	Favorite(ctx context.Context, postID string) error
}
