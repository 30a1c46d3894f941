// Package knowledge builds and queries the persisted guideline index.
// Guideline documents are chunked, embedded and stored in a chromem-go
// collection on disk; retrieval returns the passages most similar to a
// query together with their source file and similarity score.
package knowledge

import "errors"

// CollectionName is the chromem collection holding guideline passages.
const CollectionName = "guidelines"

// NoContext is the fixed fallback injected into prompts when no
// guideline passages are available.
const NoContext = "No guideline context available."

var (
	// ErrIndexNotFound reports that no persisted index exists at the
	// configured location.
	ErrIndexNotFound = errors.New("knowledge index not found")

	// ErrNoDocuments reports that the documents directory holds no
	// indexable files.
	ErrNoDocuments = errors.New("no guideline documents found")
)

// Passage is a retrieved guideline excerpt.
type Passage struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Score  float64 `json:"score"`
}
