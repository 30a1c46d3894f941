package analysis

import (
	"fmt"
	"strings"
	"time"

	"babytrack/internal/knowledge"
	"babytrack/internal/store"
)

// systemPrompt frames every analysis request.
const systemPrompt = "You are a pediatric assistant specialized in infant nutrition. " +
	"Analyze the baby's feeding data and provide caring, precise and actionable guidance, " +
	"grounded in the medical reference context supplied with each request."

// RetrievalOutcome is the explicit result of the retrieval step: either
// grounded passages or a labeled absence of grounding. Both paths
// produce a valid prompt.
type RetrievalOutcome struct {
	Passages []knowledge.Passage
	Reason   string
}

// Grounded wraps successfully retrieved passages.
func Grounded(passages []knowledge.Passage) RetrievalOutcome {
	return RetrievalOutcome{Passages: passages}
}

// Degraded records why no grounding context is available.
func Degraded(reason string) RetrievalOutcome {
	return RetrievalOutcome{Reason: reason}
}

// IsGrounded reports whether any passages were retrieved.
func (o RetrievalOutcome) IsGrounded() bool {
	return len(o.Passages) > 0
}

// PromptInput is everything the assembler needs for one request.
type PromptInput struct {
	Baby      *store.Baby
	Events    Events
	Context   Context
	Retrieval RetrievalOutcome
	Mode      Mode
	Question  string
	History   []store.Message
	Now       time.Time
}

// Assemble produces the user prompt. Section order is fixed: guideline
// excerpts, profile, expected rate, temporal context, parent notes,
// event summary, grounding instructions, output instructions.
func Assemble(in PromptInput) string {
	var b strings.Builder

	b.WriteString("## Medical reference context (WHO / SFP guidelines)\n")
	if in.Retrieval.IsGrounded() {
		b.WriteString(knowledge.Format(in.Retrieval.Passages))
	} else {
		b.WriteString(knowledge.NoContext)
		if in.Retrieval.Reason != "" {
			fmt.Fprintf(&b, " (%s)", in.Retrieval.Reason)
		}
		b.WriteString("\nNo grounding excerpts could be retrieved for this request.")
	}
	b.WriteString("\n\n")

	b.WriteString("## Baby profile\n")
	fmt.Fprintf(&b, "- Name: %s\n", in.Baby.Name)
	fmt.Fprintf(&b, "- Age: %s\n", AgeBucket(in.Baby.BirthDate, in.Now))
	fmt.Fprintf(&b, "- Birth weight: %d g\n\n", in.Baby.BirthWeightGrams)

	b.WriteString("## Expected feeding rate (heuristic)\n")
	fmt.Fprintf(&b, "For this age, roughly %d feedings would be expected over the analyzed %s.\n",
		in.Context.FeedingsExpected, formatHours(in.Context.HoursElapsed))
	b.WriteString("This table is a rough heuristic: when the reference context above states a range, the reference range takes precedence.\n\n")

	b.WriteString("## Analysis window\n")
	fmt.Fprintf(&b, "- Window: %s to %s (%s)\n",
		in.Context.Window.Start.Format("Jan 2 15:04"),
		in.Context.Window.End.Format("Jan 2 15:04"),
		formatHours(in.Context.HoursElapsed))
	if in.Context.IsPartial {
		b.WriteString("- This window is still in progress: totals are accumulating, judge by pace rather than completed totals.\n")
	}
	fmt.Fprintf(&b, "- Baseline (%s): %d feedings, %d ml total.\n\n",
		in.Context.BaselineLabel, in.Context.BaselineCount, in.Context.BaselineVolume)

	if notes := collectNotes(in.Events); len(notes) > 0 {
		b.WriteString("## Parent notes\n")
		b.WriteString(strings.Join(notes, "\n"))
		b.WriteString("\n\n")
	}

	b.WriteString("## Recorded events\n")
	b.WriteString(summarizeEvents(in.Events))
	b.WriteString("\n\n")

	b.WriteString("## Grounding rules\n")
	b.WriteString("1. First extract the reference ranges (volumes, frequencies, intervals) from the medical context above.\n")
	b.WriteString("2. Only then compare the baby's data against those ranges.\n")
	b.WriteString("3. Never describe a metric as normal without citing the range that supports it.\n")
	if !in.Retrieval.IsGrounded() {
		b.WriteString("4. No reference context is available: state explicitly that the assessment is not grounded in retrieved guidelines.\n")
	}
	b.WriteString("\n")

	b.WriteString("## Requested output\n")
	if in.Mode == ModeReport {
		b.WriteString("Respond in a structured way with exactly these sections:\n\n")
		b.WriteString("### Positives\nWhat is going well (volumes, frequency, regularity).\n\n")
		b.WriteString("### Attention points\nDeviations from the WHO/SFP recommendations for this age (volumes too low or high, intervals too long or short).\n\n")
		b.WriteString("### Recommendations\n2-3 concrete actions appropriate for the baby's age.\n\n")
		b.WriteString("### Summary\nOne sentence summarizing feeding over the analyzed period.\n\n")
		b.WriteString("Be reassuring when the data is within range. Recommend seeing a pediatrician only if a significant anomaly is detected.\n")
	} else {
		if len(in.History) > 0 {
			b.WriteString("Earlier conversation:\n")
			for _, m := range in.History {
				fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
			}
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "Parent question: %s\n\n", in.Question)
		b.WriteString("Answer the question directly in 2-4 plain sentences. No headers, no markup, no section structure.\n")
	}

	return b.String()
}
