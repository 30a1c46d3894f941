package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Source is a single citation attached to an analysis report.
// Score is nil when the underlying index did not report a similarity.
type Source struct {
	Source string   `json:"source"`
	Score  *float64 `json:"score,omitempty"`
}

// Report is a persisted analysis result.
type Report struct {
	ID          int64     `json:"id"`
	BabyID      int64     `json:"baby_id"`
	Period      string    `json:"period"`
	PeriodLabel string    `json:"period_label"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	IsPartial   bool      `json:"is_partial"`
	Analysis    string    `json:"analysis"`
	Sources     []Source  `json:"sources"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReportSummary is the listing shape: no analysis text.
type ReportSummary struct {
	ID          int64     `json:"id"`
	BabyID      int64     `json:"baby_id"`
	Period      string    `json:"period"`
	PeriodLabel string    `json:"period_label"`
	CreatedAt   time.Time `json:"created_at"`
}

// SaveReport persists an analysis report and returns the full record.
func (s *Store) SaveReport(ctx context.Context, babyID int64, period, label string, start, end time.Time, isPartial bool, analysis string, sources []Source) (*Report, error) {
	if sources == nil {
		sources = []Source{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return nil, fmt.Errorf("marshaling sources: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_reports (baby_id, period, period_label, window_start, window_end, is_partial, analysis, sources_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		babyID, period, label,
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339),
		isPartial, analysis, string(sourcesJSON))
	if err != nil {
		return nil, fmt.Errorf("inserting report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading insert id: %w", err)
	}
	return s.GetReport(ctx, id)
}

// GetReport returns a full report by id, or ErrNotFound.
func (s *Store) GetReport(ctx context.Context, id int64) (*Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, baby_id, period, period_label, window_start, window_end, is_partial, analysis, sources_json, created_at
		   FROM analysis_reports WHERE id = ?`, id)

	var (
		r           Report
		start, end  string
		sourcesJSON string
		createdAt   string
	)
	err := row.Scan(&r.ID, &r.BabyID, &r.Period, &r.PeriodLabel, &start, &end, &r.IsPartial, &r.Analysis, &sourcesJSON, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning report: %w", err)
	}
	if err := json.Unmarshal([]byte(sourcesJSON), &r.Sources); err != nil {
		return nil, fmt.Errorf("parsing report sources: %w", err)
	}
	if r.WindowStart, err = parseTime(start); err != nil {
		return nil, err
	}
	if r.WindowEnd, err = parseTime(end); err != nil {
		return nil, err
	}
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReports returns the most recent report summaries for a baby.
func (s *Store) ListReports(ctx context.Context, babyID int64, limit int) ([]ReportSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, baby_id, period, period_label, created_at
		   FROM analysis_reports
		  WHERE baby_id = ?
		  ORDER BY created_at DESC, id DESC
		  LIMIT ?`, babyID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var summaries []ReportSummary
	for rows.Next() {
		var (
			sum       ReportSummary
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.BabyID, &sum.Period, &sum.PeriodLabel, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning report summary: %w", err)
		}
		if sum.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// DeleteReport deletes a report. Returns ErrNotFound if absent.
func (s *Store) DeleteReport(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM analysis_reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting report: %w", err)
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
