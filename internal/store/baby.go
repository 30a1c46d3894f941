package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Baby is a tracked infant profile.
type Baby struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	BirthDate        time.Time `json:"birth_date"`
	BirthWeightGrams int       `json:"birth_weight_grams"`
	CreatedAt        time.Time `json:"created_at"`
}

// CreateBaby inserts a baby profile and returns the full record.
func (s *Store) CreateBaby(ctx context.Context, name string, birthDate time.Time, birthWeightGrams int) (*Baby, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO babies (name, birth_date, birth_weight_grams) VALUES (?, ?, ?)`,
		name, birthDate.Format("2006-01-02"), birthWeightGrams)
	if err != nil {
		return nil, fmt.Errorf("inserting baby: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading insert id: %w", err)
	}
	return s.GetBaby(ctx, id)
}

// GetBaby returns a baby by id, or ErrNotFound.
func (s *Store) GetBaby(ctx context.Context, id int64) (*Baby, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, birth_date, birth_weight_grams, created_at FROM babies WHERE id = ?`, id)
	return scanBaby(row)
}

// ListBabies returns all babies ordered by creation time.
func (s *Store) ListBabies(ctx context.Context) ([]Baby, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, birth_date, birth_weight_grams, created_at FROM babies ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing babies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var babies []Baby
	for rows.Next() {
		b, err := scanBaby(rows)
		if err != nil {
			return nil, err
		}
		babies = append(babies, *b)
	}
	return babies, rows.Err()
}

// UpdateBaby updates the given profile fields. Zero values are skipped.
func (s *Store) UpdateBaby(ctx context.Context, id int64, name string, birthDate time.Time, birthWeightGrams int) (*Baby, error) {
	if _, err := s.GetBaby(ctx, id); err != nil {
		return nil, err
	}
	if name != "" {
		if _, err := s.db.ExecContext(ctx, `UPDATE babies SET name = ? WHERE id = ?`, name, id); err != nil {
			return nil, fmt.Errorf("updating baby name: %w", err)
		}
	}
	if !birthDate.IsZero() {
		if _, err := s.db.ExecContext(ctx, `UPDATE babies SET birth_date = ? WHERE id = ?`,
			birthDate.Format("2006-01-02"), id); err != nil {
			return nil, fmt.Errorf("updating baby birth date: %w", err)
		}
	}
	if birthWeightGrams > 0 {
		if _, err := s.db.ExecContext(ctx, `UPDATE babies SET birth_weight_grams = ? WHERE id = ?`,
			birthWeightGrams, id); err != nil {
			return nil, fmt.Errorf("updating baby birth weight: %w", err)
		}
	}
	return s.GetBaby(ctx, id)
}

// DeleteBaby deletes a baby and, through foreign keys, its events.
// Returns ErrNotFound if the baby does not exist.
func (s *Store) DeleteBaby(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM babies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting baby: %w", err)
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

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

func scanBaby(row scanner) (*Baby, error) {
	var (
		b         Baby
		birthDate string
		createdAt string
	)
	if err := row.Scan(&b.ID, &b.Name, &birthDate, &b.BirthWeightGrams, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning baby: %w", err)
	}
	var err error
	if b.BirthDate, err = parseDate(birthDate); err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &b, nil
}
