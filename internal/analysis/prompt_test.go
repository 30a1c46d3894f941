package analysis

import (
	"strings"
	"testing"
	"time"

	"babytrack/internal/knowledge"
	"babytrack/internal/store"
)

func testBaby(now time.Time, ageDays int) *store.Baby {
	return &store.Baby{
		ID:               1,
		Name:             "Louise",
		BirthDate:        now.AddDate(0, 0, -ageDays),
		BirthWeightGrams: 3200,
	}
}

func testPromptInput(now time.Time, mode Mode) PromptInput {
	start := now.Truncate(24 * time.Hour)
	win := Window{Start: start, End: start.Add(19 * time.Hour)}

	return PromptInput{
		Baby: testBaby(now, 7),
		Events: Events{
			Feedings: []store.Feeding{
				{FedAt: start.Add(2 * time.Hour), QuantityML: 70, Type: store.FeedingBottle},
				{FedAt: start.Add(8 * time.Hour), QuantityML: 80, Type: store.FeedingBottle, Notes: "spit up a little"},
			},
		},
		Context: BuildContext(win, now, nil, now.AddDate(0, 0, -7)),
		Retrieval: Grounded([]knowledge.Passage{
			{Text: "Newborns feed 8 to 12 times per day.", Source: "who_feeding.md", Score: 0.91},
		}),
		Mode: mode,
		Now:  now,
	}
}

func TestAssembleSectionOrder(t *testing.T) {
	now := time.Date(2026, 2, 23, 19, 5, 0, 0, time.UTC)
	prompt := Assemble(testPromptInput(now, ModeReport))

	sections := []string{
		"## Medical reference context",
		"## Baby profile",
		"## Expected feeding rate",
		"## Analysis window",
		"## Parent notes",
		"## Recorded events",
		"## Grounding rules",
		"## Requested output",
	}

	last := -1
	for _, s := range sections {
		idx := strings.Index(prompt, s)
		if idx < 0 {
			t.Fatalf("prompt missing section %q:\n%s", s, prompt)
		}
		if idx < last {
			t.Errorf("section %q out of order", s)
		}
		last = idx
	}
}

func TestAssembleReportContent(t *testing.T) {
	now := time.Date(2026, 2, 23, 19, 5, 0, 0, time.UTC)
	prompt := Assemble(testPromptInput(now, ModeReport))

	for _, want := range []string{
		"who_feeding.md",
		"Louise",
		"7 days",
		"3200 g",
		"### Positives",
		"### Attention points",
		"### Recommendations",
		"### Summary",
		"spit up a little",
		"Never describe a metric as normal without citing the range",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("report prompt missing %q", want)
		}
	}
}

func TestAssembleDegraded(t *testing.T) {
	now := time.Date(2026, 2, 23, 19, 5, 0, 0, time.UTC)
	in := testPromptInput(now, ModeReport)
	in.Retrieval = Degraded("retrieval failed")

	prompt := Assemble(in)
	if !strings.Contains(prompt, knowledge.NoContext) {
		t.Error("degraded prompt must contain the no-context fallback")
	}
	if !strings.Contains(prompt, "not grounded in retrieved guidelines") {
		t.Error("degraded prompt must instruct the model to label the missing grounding")
	}
}

func TestAssembleConversational(t *testing.T) {
	now := time.Date(2026, 2, 23, 19, 5, 0, 0, time.UTC)
	in := testPromptInput(now, ModeConversational)
	in.Question = "Is she eating enough today?"
	in.History = []store.Message{
		{Role: "user", Content: "She seemed hungry earlier."},
		{Role: "assistant", Content: "Cluster feeding is common at this age."},
	}

	prompt := Assemble(in)
	for _, want := range []string{
		"Parent question: Is she eating enough today?",
		"2-4 plain sentences",
		"She seemed hungry earlier.",
		"Cluster feeding is common at this age.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("conversational prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "### Positives") {
		t.Error("conversational prompt must not carry report sections")
	}
}

func TestAssemblePartialWindowAnnotation(t *testing.T) {
	now := time.Date(2026, 2, 23, 19, 5, 0, 0, time.UTC)
	in := testPromptInput(now, ModeReport)

	if !in.Context.IsPartial {
		t.Fatal("fixture window should be partial (now is 5 minutes past end)")
	}
	if !strings.Contains(Assemble(in), "judge by pace") {
		t.Error("partial window annotation missing")
	}
}

func TestSummarizeEventsPerActiveDayAverages(t *testing.T) {
	day1 := time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)
	day3 := day1.AddDate(0, 0, 2) // day 2 has no events

	ev := Events{Feedings: []store.Feeding{
		{FedAt: day1.Add(8 * time.Hour), QuantityML: 80, Type: store.FeedingBottle},
		{FedAt: day1.Add(12 * time.Hour), QuantityML: 60, Type: store.FeedingBottle},
		{FedAt: day3.Add(9 * time.Hour), QuantityML: 100, Type: store.FeedingBottle},
	}}

	got := summarizeEvents(ev)
	// 3 feedings over 2 active days, never 3 calendar days.
	if !strings.Contains(got, "2 days with recorded feedings") {
		t.Errorf("summary must average over active days only:\n%s", got)
	}
	if !strings.Contains(got, "1.5 feedings/day") {
		t.Errorf("summary missing per-day feeding average:\n%s", got)
	}
	if !strings.Contains(got, "120 ml/day") {
		t.Errorf("summary missing per-day volume average:\n%s", got)
	}
}

func TestSummarizeEventsTypesAndExtras(t *testing.T) {
	at := time.Date(2026, 2, 23, 9, 0, 0, 0, time.UTC)

	ev := Events{
		Feedings: []store.Feeding{
			{FedAt: at, QuantityML: 70, Type: store.FeedingBottle},
			{FedAt: at.Add(3 * time.Hour), QuantityML: 0, Type: store.FeedingBreast},
		},
		Diapers: []store.Diaper{
			{ChangedAt: at.Add(time.Hour), HasPee: true},
			{ChangedAt: at.Add(4 * time.Hour), HasPee: true, HasPoop: true},
		},
		Weights: []store.Weight{
			{MeasuredAt: at, Grams: 3400},
			{MeasuredAt: at.Add(6 * time.Hour), Grams: 3450},
		},
	}

	got := summarizeEvents(ev)
	for _, want := range []string{
		"mixed (bottle + breastfeeding)",
		"Diapers: 2 changes (2 wet, 1 dirty)",
		"Latest weight: 3450 g",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}

func TestSummarizeEventsEmpty(t *testing.T) {
	if got := summarizeEvents(Events{}); !strings.Contains(got, "No feedings recorded") {
		t.Errorf("empty summary: %q", got)
	}
}

func TestCollectNotesChronological(t *testing.T) {
	at := time.Date(2026, 2, 23, 9, 0, 0, 0, time.UTC)
	ev := Events{
		Feedings: []store.Feeding{{FedAt: at.Add(5 * time.Hour), Notes: "later note"}},
		Diapers:  []store.Diaper{{ChangedAt: at, Notes: "earlier note"}},
	}

	notes := collectNotes(ev)
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if !strings.Contains(notes[0], "earlier note") || !strings.Contains(notes[1], "later note") {
		t.Errorf("notes not chronological: %v", notes)
	}
}
