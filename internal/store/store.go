// Package store implements keyed-record persistence for babies, care
// events (feedings, weights, diapers), analysis reports and chat
// conversations on SQLite.
//
// All queries are plain database/sql with parameterized statements;
// timestamps are stored as RFC 3339 strings, dates as YYYY-MM-DD.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"babytrack/internal/log"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store provides CRUD access to all babytrack records.
// It is safe for concurrent use; database/sql handles pooling.
type Store struct {
	db     *sql.DB
	logger log.Logger
}

// New creates a Store on an opened (and migrated) database.
func New(db *sql.DB, logger log.Logger) *Store {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// parseTime parses an RFC 3339 timestamp as stored in the database.
// SQLite's strftime default uses a compatible layout with fractional seconds.
func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

// parseDate parses a YYYY-MM-DD date as stored for birth dates.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date %q: %w", s, err)
	}
	return t, nil
}

// nullable converts an optional note to a sql-friendly value.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
