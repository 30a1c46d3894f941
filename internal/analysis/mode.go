package analysis

import "strings"

// reportKeywords triggers report mode when any of them appears in the
// question. Closed set, substring match, no NLP. Ambiguous text leans
// toward a full report.
var reportKeywords = []string{
	"analyze",
	"analysis",
	"report",
	"summary",
	"bilan",
	"detailed",
	"overview",
}

// IsReportRequest decides whether a free-text question asks for a
// structured report. An absent or empty question defaults to true.
func IsReportRequest(question string) bool {
	q := strings.ToLower(strings.TrimSpace(question))
	if q == "" {
		return true
	}
	for _, kw := range reportKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// ClassifyMode maps a question to its output mode.
func ClassifyMode(question string) Mode {
	if IsReportRequest(question) {
		return ModeReport
	}
	return ModeConversational
}
