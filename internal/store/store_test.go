package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"babytrack/internal/database"
	"babytrack/internal/log"
)

// newTestStore opens a migrated SQLite database in a temp directory.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating database: %v", err)
	}
	return New(db, log.NewNop())
}

func newTestBaby(t *testing.T, s *Store) *Baby {
	t.Helper()
	baby, err := s.CreateBaby(context.Background(), "Louise", time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC), 3200)
	if err != nil {
		t.Fatalf("creating baby: %v", err)
	}
	return baby
}

func TestBabyCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	baby := newTestBaby(t, s)
	if baby.ID == 0 {
		t.Fatal("expected non-zero id")
	}
	if baby.Name != "Louise" || baby.BirthWeightGrams != 3200 {
		t.Fatalf("unexpected baby: %+v", baby)
	}

	got, err := s.GetBaby(ctx, baby.ID)
	if err != nil {
		t.Fatalf("GetBaby: %v", err)
	}
	if !got.BirthDate.Equal(baby.BirthDate) {
		t.Errorf("birth date round trip: got %v, want %v", got.BirthDate, baby.BirthDate)
	}

	updated, err := s.UpdateBaby(ctx, baby.ID, "Romane", time.Time{}, 0)
	if err != nil {
		t.Fatalf("UpdateBaby: %v", err)
	}
	if updated.Name != "Romane" || updated.BirthWeightGrams != 3200 {
		t.Errorf("partial update: %+v", updated)
	}

	babies, err := s.ListBabies(ctx)
	if err != nil {
		t.Fatalf("ListBabies: %v", err)
	}
	if len(babies) != 1 {
		t.Fatalf("expected 1 baby, got %d", len(babies))
	}

	if err := s.DeleteBaby(ctx, baby.ID); err != nil {
		t.Fatalf("DeleteBaby: %v", err)
	}
	if _, err := s.GetBaby(ctx, baby.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteBaby(ctx, baby.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete should return ErrNotFound, got %v", err)
	}
}

func TestFeedingRangeQueries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	baby := newTestBaby(t, s)

	day := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		day.Add(2 * time.Hour),
		day.Add(8 * time.Hour),
		day.Add(15 * time.Hour),
		day.Add(26 * time.Hour), // next day
	}
	for i, ts := range times {
		notes := ""
		if i == 1 {
			notes = "spit up a little"
		}
		if _, err := s.AddFeeding(ctx, baby.ID, ts, 70+i*10, FeedingBottle, notes); err != nil {
			t.Fatalf("AddFeeding: %v", err)
		}
	}

	byDay, err := s.FeedingsByDay(ctx, baby.ID, day)
	if err != nil {
		t.Fatalf("FeedingsByDay: %v", err)
	}
	if len(byDay) != 3 {
		t.Fatalf("expected 3 feedings on day, got %d", len(byDay))
	}
	// Ordered by fed_at ascending.
	for i := 1; i < len(byDay); i++ {
		if byDay[i].FedAt.Before(byDay[i-1].FedAt) {
			t.Errorf("feedings not ordered by time: %v before %v", byDay[i].FedAt, byDay[i-1].FedAt)
		}
	}
	if byDay[1].Notes != "spit up a little" {
		t.Errorf("notes round trip: %q", byDay[1].Notes)
	}

	byRange, err := s.FeedingsByRange(ctx, baby.ID, day, day.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("FeedingsByRange: %v", err)
	}
	if len(byRange) != 4 {
		t.Fatalf("expected 4 feedings in range, got %d", len(byRange))
	}

	if _, err := s.AddFeeding(ctx, baby.ID, day, 50, FeedingType("formula"), ""); err == nil {
		t.Fatal("expected error for invalid feeding type")
	}
}

func TestWeightAndDiaperRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	baby := newTestBaby(t, s)

	at := time.Date(2026, 2, 23, 9, 30, 0, 0, time.UTC)
	w, err := s.AddWeight(ctx, baby.ID, at, 3450, "after bath")
	if err != nil {
		t.Fatalf("AddWeight: %v", err)
	}
	weights, err := s.WeightsByRange(ctx, baby.ID, at.Add(-time.Hour), at.Add(time.Hour))
	if err != nil {
		t.Fatalf("WeightsByRange: %v", err)
	}
	if len(weights) != 1 || weights[0].Grams != 3450 || weights[0].Notes != "after bath" {
		t.Fatalf("weight round trip: %+v", weights)
	}
	if err := s.DeleteWeight(ctx, w.ID); err != nil {
		t.Fatalf("DeleteWeight: %v", err)
	}

	d, err := s.AddDiaper(ctx, baby.ID, at, true, false, "")
	if err != nil {
		t.Fatalf("AddDiaper: %v", err)
	}
	if !d.HasPee || d.HasPoop {
		t.Fatalf("diaper flags: %+v", d)
	}
	diapers, err := s.DiapersByRange(ctx, baby.ID, at.Add(-time.Hour), at.Add(time.Hour))
	if err != nil {
		t.Fatalf("DiapersByRange: %v", err)
	}
	if len(diapers) != 1 {
		t.Fatalf("expected 1 diaper, got %d", len(diapers))
	}
}

func TestReportPersistence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	baby := newTestBaby(t, s)

	score := 0.87
	start := time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC)
	end := start.Add(19 * time.Hour)

	r, err := s.SaveReport(ctx, baby.ID, "day", "day of 02/23/2026", start, end, false,
		"## Analysis\nLooks fine.", []Source{{Source: "who_feeding_guidelines.md", Score: &score}, {Source: "sfp_volumes.md"}})
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if r.ID == 0 || r.IsPartial {
		t.Fatalf("unexpected report: %+v", r)
	}

	got, err := s.GetReport(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if len(got.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(got.Sources))
	}
	if got.Sources[0].Score == nil || *got.Sources[0].Score != 0.87 {
		t.Errorf("score round trip: %+v", got.Sources[0])
	}
	if got.Sources[1].Score != nil {
		t.Errorf("nil score round trip: %+v", got.Sources[1])
	}
	if !got.WindowStart.Equal(start) || !got.WindowEnd.Equal(end) {
		t.Errorf("window round trip: %v..%v", got.WindowStart, got.WindowEnd)
	}

	summaries, err := s.ListReports(ctx, baby.ID, 10)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(summaries) != 1 || summaries[0].PeriodLabel != "day of 02/23/2026" {
		t.Fatalf("summaries: %+v", summaries)
	}

	if err := s.DeleteReport(ctx, r.ID); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if _, err := s.GetReport(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConversationCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	baby := newTestBaby(t, s)

	c, err := s.SaveConversation(ctx, baby.ID, "feeding questions", []Message{
		{Role: "user", Content: "Is she eating enough?"},
		{Role: "assistant", Content: "Based on today's volumes, yes."},
	})
	if err != nil {
		t.Fatalf("SaveConversation: %v", err)
	}
	if len(c.Messages) != 2 {
		t.Fatalf("messages round trip: %+v", c.Messages)
	}

	updated, err := s.UpdateConversation(ctx, c.ID, "", append(c.Messages, Message{Role: "user", Content: "And tonight?"}))
	if err != nil {
		t.Fatalf("UpdateConversation: %v", err)
	}
	if len(updated.Messages) != 3 || updated.Title != "feeding questions" {
		t.Fatalf("update: %+v", updated)
	}

	summaries, err := s.ListConversations(ctx, baby.ID, 10)
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(summaries))
	}

	if err := s.DeleteConversation(ctx, c.ID); err != nil {
		t.Fatalf("DeleteConversation: %v", err)
	}
	if _, err := s.GetConversation(ctx, c.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
