// Package ignorelist persists the permanent ignore set as a series of shard
// records, each holding at most a fixed number of comma-joined ids.
package ignorelist

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/edgard/followbot/internal/database"
	"github.com/edgard/followbot/internal/reconcile"
	"github.com/edgard/followbot/internal/social"
)

const separator = ","

// Records is the subset of the record store the ignore list needs.
type Records interface {
	QueryRecords(ctx context.Context, kind database.RecordKind) ([]database.Record, error)
	AddRecord(ctx context.Context, record *database.Record) error
	UpdateRecord(ctx context.Context, record *database.Record) error
}

// Store loads and saves the ignore set. It implements reconcile.IgnoreSaver.
type Store struct {
	records  Records
	perShard int
	logger   *slog.Logger
}

// New creates a Store writing at most perShard ids into each shard record.
func New(records Records, perShard int, logger *slog.Logger) (*Store, error) {
	if perShard < 1 {
		return nil, fmt.Errorf("ids per shard must be at least 1, got %d", perShard)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		records:  records,
		perShard: perShard,
		logger:   logger.With("component", "ignore_list"),
	}, nil
}

// Load concatenates every shard into one ignore set. No shards yields an empty set.
func (s *Store) Load(ctx context.Context) (*reconcile.IgnoreSet, error) {
	shards, err := s.records.QueryRecords(ctx, database.KindIgnoreShard)
	if err != nil {
		return nil, fmt.Errorf("failed to query ignore shards: %w", err)
	}

	ignore := reconcile.NewIgnoreSet()
	for _, shard := range shards {
		for _, raw := range strings.Split(shard.UserIDs.String, separator) {
			if id := strings.TrimSpace(raw); id != "" {
				ignore.Add(social.UserID(id))
			}
		}
	}

	if len(shards) == 0 {
		s.logger.InfoContext(ctx, "No ignored users stored")
	}
	s.logger.InfoContext(ctx, "Loaded ignore list", "shards", len(shards), "ids", ignore.Len())
	return ignore, nil
}

// Save rewrites the whole set shard by shard. Existing shards are updated in
// place in stored order; shards past the existing count are created. Surplus
// old shards are left untouched, which is safe because the set never shrinks.
// Writes are sequential and not transactional; re-running Save converges.
func (s *Store) Save(ctx context.Context, ignore *reconcile.IgnoreSet) error {
	existing, err := s.records.QueryRecords(ctx, database.KindIgnoreShard)
	if err != nil {
		return fmt.Errorf("failed to query ignore shards: %w", err)
	}

	chunks := Chunk(ignore.IDs(), s.perShard)
	var updated, created int
	for i, chunk := range chunks {
		payload := sql.NullString{String: chunk, Valid: true}

		if i < len(existing) {
			shard := existing[i]
			shard.UserIDs = payload
			if err := s.records.UpdateRecord(ctx, &shard); err != nil {
				return fmt.Errorf("failed to update ignore shard %d: %w", i, err)
			}
			updated++
			continue
		}

		if err := s.records.AddRecord(ctx, &database.Record{Kind: database.KindIgnoreShard, UserIDs: payload}); err != nil {
			return fmt.Errorf("failed to create ignore shard %d: %w", i, err)
		}
		created++
	}

	s.logger.InfoContext(ctx, "Saved ignore list", "ids", ignore.Len(), "updated_shards", updated, "created_shards", created)
	return nil
}

// Chunk joins ids into comma-separated strings of at most n ids each.
func Chunk(ids []social.UserID, n int) []string {
	if n < 1 {
		n = 1
	}

	chunks := make([]string, 0, (len(ids)+n-1)/n)
	for start := 0; start < len(ids); start += n {
		end := min(start+n, len(ids))

		parts := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			parts = append(parts, string(id))
		}
		chunks = append(chunks, strings.Join(parts, separator))
	}
	return chunks
}
