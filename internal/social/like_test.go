package social

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimeline struct {
	post        *Post
	latestErr   error
	favoriteErr error
	favorited   []string
}

func (f *fakeTimeline) LatestPost(context.Context, string) (*Post, error) {
	return f.post, f.latestErr
}

func (f *fakeTimeline) Favorite(_ context.Context, postID string) error {
	if f.favoriteErr != nil {
		return f.favoriteErr
	}
	f.favorited = append(f.favorited, postID)
	return nil
}

func TestLikeLatestPost(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name          string
		timeline      *fakeTimeline
		wantLiked     bool
		wantErr       bool
		wantFavorited []string
	}{
		{name: "likes unliked post", timeline: &fakeTimeline{post: &Post{ID: "1"}}, wantLiked: true, wantFavorited: []string{"1"}},
		{name: "skips liked post", timeline: &fakeTimeline{post: &Post{ID: "1", Favorited: true}}},
		{name: "empty timeline", timeline: &fakeTimeline{latestErr: ErrNoPosts}},
		{name: "read failure", timeline: &fakeTimeline{latestErr: errors.New("boom")}, wantErr: true},
		{name: "favorite failure", timeline: &fakeTimeline{post: &Post{ID: "1"}, favoriteErr: errors.New("boom")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			liked, err := LikeLatestPost(context.Background(), tt.timeline, "someone", logger)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLiked, liked)
			assert.Equal(t, tt.wantFavorited, tt.timeline.favorited)
		})
	}
}
