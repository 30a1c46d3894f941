package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// FeedingType enumerates the supported feeding event types.
type FeedingType string

const (
	FeedingBottle FeedingType = "bottle"
	FeedingBreast FeedingType = "breastfeeding"
)

// ValidFeedingType reports whether t is a known feeding type.
func ValidFeedingType(t FeedingType) bool {
	return t == FeedingBottle || t == FeedingBreast
}

// Feeding is a single bottle or breastfeeding session.
type Feeding struct {
	ID         int64       `json:"id"`
	BabyID     int64       `json:"baby_id"`
	FedAt      time.Time   `json:"fed_at"`
	QuantityML int         `json:"quantity_ml"`
	Type       FeedingType `json:"feeding_type"`
	Notes      string      `json:"notes,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// AddFeeding records a feeding session and returns the full record.
func (s *Store) AddFeeding(ctx context.Context, babyID int64, fedAt time.Time, quantityML int, typ FeedingType, notes string) (*Feeding, error) {
	if !ValidFeedingType(typ) {
		return nil, fmt.Errorf("invalid feeding type %q", typ)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feedings (baby_id, fed_at, quantity_ml, feeding_type, notes) VALUES (?, ?, ?, ?, ?)`,
		babyID, fedAt.UTC().Format(time.RFC3339), quantityML, string(typ), nullable(notes))
	if err != nil {
		return nil, fmt.Errorf("inserting feeding: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading insert id: %w", err)
	}
	return s.GetFeeding(ctx, id)
}

// GetFeeding returns a feeding by id, or ErrNotFound.
func (s *Store) GetFeeding(ctx context.Context, id int64) (*Feeding, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, baby_id, fed_at, quantity_ml, feeding_type, notes, created_at FROM feedings WHERE id = ?`, id)
	return scanFeeding(row)
}

// FeedingsByDay returns a baby's feedings on the given calendar day, ordered by time.
func (s *Store) FeedingsByDay(ctx context.Context, babyID int64, day time.Time) ([]Feeding, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return s.FeedingsByRange(ctx, babyID, start, start.Add(24*time.Hour))
}

// FeedingsByRange returns a baby's feedings with fed_at in [start, end), ordered by time.
func (s *Store) FeedingsByRange(ctx context.Context, babyID int64, start, end time.Time) ([]Feeding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, baby_id, fed_at, quantity_ml, feeding_type, notes, created_at
		   FROM feedings
		  WHERE baby_id = ? AND fed_at >= ? AND fed_at < ?
		  ORDER BY fed_at`,
		babyID, start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("querying feedings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var feedings []Feeding
	for rows.Next() {
		f, err := scanFeeding(rows)
		if err != nil {
			return nil, err
		}
		feedings = append(feedings, *f)
	}
	return feedings, rows.Err()
}

// DeleteFeeding deletes a feeding. Returns ErrNotFound if absent.
func (s *Store) DeleteFeeding(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM feedings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting feeding: %w", err)
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

func scanFeeding(row scanner) (*Feeding, error) {
	var (
		f         Feeding
		fedAt     string
		typ       string
		notes     sql.NullString
		createdAt string
	)
	if err := row.Scan(&f.ID, &f.BabyID, &fedAt, &f.QuantityML, &typ, &notes, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning feeding: %w", err)
	}
	f.Type = FeedingType(typ)
	f.Notes = notes.String
	var err error
	if f.FedAt, err = parseTime(fedAt); err != nil {
		return nil, err
	}
	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &f, nil
}
