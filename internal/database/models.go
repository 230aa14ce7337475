package database

import (
	"database/sql"
	"time"
)

// RecordKind distinguishes the heterogeneous records kept in one collection.
// The numeric values are persisted and must not change.
type RecordKind int

const (
	// KindLastRun is the single record holding the last run timestamp.
	KindLastRun RecordKind = 1
	// KindIgnoreShard is one chunk of the permanent ignore list.
	KindIgnoreShard RecordKind = 2
)

// Record is one document in the meta collection. Which payload column is
// meaningful depends on Kind.
type Record struct {
	Seq        int64      `db:"seq"`
	DocID      string     `db:"doc_id"`
	Project    string     `db:"project"`
	Collection string     `db:"collection"`
	Kind       RecordKind `db:"kind"`

	TimestampMS sql.NullInt64  `db:"timestamp_ms"` // KindLastRun
	UserIDs     sql.NullString `db:"user_ids"`     // KindIgnoreShard, comma joined

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
