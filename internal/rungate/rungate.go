// Package rungate enforces a minimum delay between agent runs using a single
// persisted last-run timestamp.
package rungate

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/followbot/internal/database"
)

// Records is the subset of the record store the gate needs.
type Records interface {
	QueryRecords(ctx context.Context, kind database.RecordKind) ([]database.Record, error)
	AddRecord(ctx context.Context, record *database.Record) error
	UpdateRecord(ctx context.Context, record *database.Record) error
}

// Gate reads and writes the last-run timestamp. The read-then-write is not
// locked; two triggers racing past CanExecute may both run.
type Gate struct {
	records Records
	delay   time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// New creates a Gate requiring delay between runs.
func New(records Records, delay time.Duration, logger *slog.Logger, opts ...Option) *Gate {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	g := &Gate{
		records: records,
		delay:   delay,
		now:     time.Now,
		logger:  logger.With("component", "run_gate"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CanExecute reports whether a run may start: true when no timestamp is
// stored, otherwise true iff at least delay has elapsed since it.
func (g *Gate) CanExecute(ctx context.Context) (bool, error) {
	record, err := g.lastRun(ctx)
	if err != nil {
		return false, err
	}
	if record == nil || !record.TimestampMS.Valid {
		g.logger.InfoContext(ctx, "No last run time stored")
		return true, nil
	}

	elapsed := g.now().UnixMilli() - record.TimestampMS.Int64
	required := g.delay.Milliseconds()
	g.logger.InfoContext(ctx, "Checked last run time",
		"elapsed_seconds", elapsed/1000,
		"required_seconds", required/1000)

	return elapsed >= required, nil
}

// RecordRun stores the current time as the last run, creating the record on first use.
func (g *Gate) RecordRun(ctx context.Context) error {
	record, err := g.lastRun(ctx)
	if err != nil {
		return err
	}

	ts := sql.NullInt64{Int64: g.now().UnixMilli(), Valid: true}

	if record == nil {
		if err := g.records.AddRecord(ctx, &database.Record{Kind: database.KindLastRun, TimestampMS: ts}); err != nil {
			return fmt.Errorf("failed to add last run record: %w", err)
		}
		g.logger.InfoContext(ctx, "Last run time added", "timestamp_ms", ts.Int64)
		return nil
	}

	record.TimestampMS = ts
	if err := g.records.UpdateRecord(ctx, record); err != nil {
		return fmt.Errorf("failed to update last run record: %w", err)
	}
	g.logger.InfoContext(ctx, "Last run time updated", "timestamp_ms", ts.Int64)
	return nil
}

func (g *Gate) lastRun(ctx context.Context) (*database.Record, error) {
	records, err := g.records.QueryRecords(ctx, database.KindLastRun)
	if err != nil {
		return nil, fmt.Errorf("failed to query last run record: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}
