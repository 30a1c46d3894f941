package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Weight is a single weight measurement.
type Weight struct {
	ID         int64     `json:"id"`
	BabyID     int64     `json:"baby_id"`
	MeasuredAt time.Time `json:"measured_at"`
	Grams      int       `json:"weight_g"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// AddWeight records a weight measurement and returns the full record.
func (s *Store) AddWeight(ctx context.Context, babyID int64, measuredAt time.Time, grams int, notes string) (*Weight, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO weights (baby_id, measured_at, weight_g, notes) VALUES (?, ?, ?, ?)`,
		babyID, measuredAt.UTC().Format(time.RFC3339), grams, nullable(notes))
	if err != nil {
		return nil, fmt.Errorf("inserting weight: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading insert id: %w", err)
	}
	return s.GetWeight(ctx, id)
}

// GetWeight returns a weight by id, or ErrNotFound.
func (s *Store) GetWeight(ctx context.Context, id int64) (*Weight, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, baby_id, measured_at, weight_g, notes, created_at FROM weights WHERE id = ?`, id)
	return scanWeight(row)
}

// WeightsByRange returns measurements with measured_at in [start, end), ordered by time.
func (s *Store) WeightsByRange(ctx context.Context, babyID int64, start, end time.Time) ([]Weight, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, baby_id, measured_at, weight_g, notes, created_at
		   FROM weights
		  WHERE baby_id = ? AND measured_at >= ? AND measured_at < ?
		  ORDER BY measured_at`,
		babyID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("querying weights: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var weights []Weight
	for rows.Next() {
		w, err := scanWeight(rows)
		if err != nil {
			return nil, err
		}
		weights = append(weights, *w)
	}
	return weights, rows.Err()
}

// DeleteWeight deletes a measurement. Returns ErrNotFound if absent.
func (s *Store) DeleteWeight(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM weights WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting weight: %w", err)
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

func scanWeight(row scanner) (*Weight, error) {
	var (
		w          Weight
		measuredAt string
		notes      sql.NullString
		createdAt  string
	)
	if err := row.Scan(&w.ID, &w.BabyID, &measuredAt, &w.Grams, &notes, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning weight: %w", err)
	}
	w.Notes = notes.String
	var err error
	if w.MeasuredAt, err = parseTime(measuredAt); err != nil {
		return nil, err
	}
	if w.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &w, nil
}
