package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrRecordNotFound is returned by UpdateRecord when no record has the given doc id.
var ErrRecordNotFound = errors.New("record not found")

// Store defines the record operations the agent needs from the document store.
// All records are scoped to the project and collection the store was created with.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// QueryRecords returns every record of the given kind in insertion order.
	QueryRecords(ctx context.Context, kind RecordKind) ([]Record, error)

	// AddRecord inserts a new record, assigning its doc id and timestamps.
	AddRecord(ctx context.Context, record *Record) error

	// UpdateRecord overwrites the payload of the record with the same doc id.
	UpdateRecord(ctx context.Context, record *Record) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db         *sqlx.DB
	project    string
	collection string
	logger     *slog.Logger
}

// NewStore creates a new Store backed by sqlx, scoped to project and collection.
func NewStore(db *sqlx.DB, project, collection string, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:         db,
		project:    project,
		collection: collection,
		logger:     logger.With("component", "store", "project", project, "collection", collection),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) QueryRecords(ctx context.Context, kind RecordKind) ([]Record, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var records []Record
	query := `
        SELECT seq, doc_id, project, collection, kind, timestamp_ms, user_ids, created_at, updated_at
        FROM meta_records
        WHERE project = ? AND collection = ? AND kind = ?
        ORDER BY seq ASC;
    `

	if err := s.db.SelectContext(ctx, &records, query, s.project, s.collection, kind); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			s.logger.WarnContext(ctx, "Context timeout or cancellation while querying records", "kind", kind, "error", err)
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Error querying records", "kind", kind, "error", err)
		return nil, fmt.Errorf("failed to query records of kind %d: %w", kind, err)
	}

	s.logger.DebugContext(ctx, "Queried records", "kind", kind, "count", len(records))
	return records, nil
}

func (s *sqlxStore) AddRecord(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("cannot add nil record")
	}
	if record.Kind == 0 {
		return fmt.Errorf("record must have a non-zero kind")
	}

	now := time.Now().UTC()
	record.DocID = uuid.NewString()
	record.Project = s.project
	record.Collection = s.collection
	record.CreatedAt = now
	record.UpdatedAt = now

	query := `
        INSERT INTO meta_records (doc_id, project, collection, kind, timestamp_ms, user_ids, created_at, updated_at)
        VALUES (:doc_id, :project, :collection, :kind, :timestamp_ms, :user_ids, :created_at, :updated_at);
    `

	result, err := s.db.NamedExecContext(ctx, query, record)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error adding record", "kind", record.Kind, "error", err)
		return fmt.Errorf("failed to add record of kind %d: %w", record.Kind, err)
	}

	if seq, err := result.LastInsertId(); err == nil {
		record.Seq = seq
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after adding record", "kind", record.Kind, "error", err)
	}

	s.logger.DebugContext(ctx, "Record added", "kind", record.Kind, "doc_id", record.DocID)
	return nil
}

func (s *sqlxStore) UpdateRecord(ctx context.Context, record *Record) error {
	if record == nil {
		return fmt.Errorf("cannot update nil record")
	}
	if record.DocID == "" {
		return fmt.Errorf("record must have a doc id to be updated")
	}

	record.UpdatedAt = time.Now().UTC()
	query := `
        UPDATE meta_records
        SET timestamp_ms = :timestamp_ms, user_ids = :user_ids, updated_at = :updated_at
        WHERE doc_id = :doc_id AND project = :project AND collection = :collection;
    `

	args := map[string]any{
		"timestamp_ms": record.TimestampMS,
		"user_ids":     record.UserIDs,
		"updated_at":   record.UpdatedAt,
		"doc_id":       record.DocID,
		"project":      s.project,
		"collection":   s.collection,
	}

	result, err := s.db.NamedExecContext(ctx, query, args)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error updating record", "doc_id", record.DocID, "error", err)
		return fmt.Errorf("failed to update record %s: %w", record.DocID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows for record %s: %w", record.DocID, err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrRecordNotFound, record.DocID)
	}

	s.logger.DebugContext(ctx, "Record updated", "kind", record.Kind, "doc_id", record.DocID)
	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
