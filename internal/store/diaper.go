package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Diaper is a single diaper change record.
type Diaper struct {
	ID        int64     `json:"id"`
	BabyID    int64     `json:"baby_id"`
	ChangedAt time.Time `json:"changed_at"`
	HasPee    bool      `json:"has_pee"`
	HasPoop   bool      `json:"has_poop"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// AddDiaper records a diaper change and returns the full record.
func (s *Store) AddDiaper(ctx context.Context, babyID int64, changedAt time.Time, hasPee, hasPoop bool, notes string) (*Diaper, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO diapers (baby_id, changed_at, has_pee, has_poop, notes) VALUES (?, ?, ?, ?, ?)`,
		babyID, changedAt.UTC().Format(time.RFC3339), hasPee, hasPoop, nullable(notes))
	if err != nil {
		return nil, fmt.Errorf("inserting diaper: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading insert id: %w", err)
	}
	return s.GetDiaper(ctx, id)
}

// GetDiaper returns a diaper change by id, or ErrNotFound.
func (s *Store) GetDiaper(ctx context.Context, id int64) (*Diaper, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, baby_id, changed_at, has_pee, has_poop, notes, created_at FROM diapers WHERE id = ?`, id)
	return scanDiaper(row)
}

// DiapersByRange returns changes with changed_at in [start, end), ordered by time.
func (s *Store) DiapersByRange(ctx context.Context, babyID int64, start, end time.Time) ([]Diaper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, baby_id, changed_at, has_pee, has_poop, notes, created_at
		   FROM diapers
		  WHERE baby_id = ? AND changed_at >= ? AND changed_at < ?
		  ORDER BY changed_at`,
		babyID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("querying diapers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var diapers []Diaper
	for rows.Next() {
		d, err := scanDiaper(rows)
		if err != nil {
			return nil, err
		}
		diapers = append(diapers, *d)
	}
	return diapers, rows.Err()
}

// DeleteDiaper deletes a diaper change. Returns ErrNotFound if absent.
func (s *Store) DeleteDiaper(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diapers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting diaper: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanDiaper(row scanner) (*Diaper, error) {
	var (
		d         Diaper
		changedAt string
		notes     sql.NullString
		createdAt string
	)
	if err := row.Scan(&d.ID, &d.BabyID, &changedAt, &d.HasPee, &d.HasPoop, &notes, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning diaper: %w", err)
	}
	d.Notes = notes.String
	var err error
	if d.ChangedAt, err = parseTime(changedAt); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &d, nil
}
