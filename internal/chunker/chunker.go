// Package chunker splits guideline documents into passages sized for
// embedding. Splits follow markdown structure (headings, blank-line
// separated paragraphs) so that a chunk stays a coherent span of
// guidance rather than an arbitrary byte range.
package chunker

import "strings"

const (
	DefaultTargetSize = 800
	DefaultMaxSize    = 1200
)

// Options configures chunking behavior.
type Options struct {
	TargetSize int
	MaxSize    int
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{TargetSize: DefaultTargetSize, MaxSize: DefaultMaxSize}
}

// Chunk splits text into chunks. Short text (<= MaxSize) returns a
// single chunk; empty or whitespace-only text returns nil.
func Chunk(text string, opts Options) []string {
	if opts.TargetSize <= 0 || opts.MaxSize <= 0 {
		opts = DefaultOptions()
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= opts.MaxSize {
		return []string{text}
	}

	return merge(split(text), opts)
}

// split cuts text into blocks on heading lines and blank-line runs.
func split(text string) []string {
	lines := strings.Split(text, "\n")

	var blocks []string
	var current []string

	flush := func() {
		if b := strings.TrimSpace(strings.Join(current, "\n")); b != "" {
			blocks = append(blocks, b)
		}
		current = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "#"):
			flush()
			current = append(current, line)
		case trimmed == "":
			flush()
		default:
			current = append(current, line)
		}
	}
	flush()

	return blocks
}

// merge combines adjacent blocks up to the target size and hard-splits
// any single block that still exceeds the maximum.
func merge(blocks []string, opts Options) []string {
	var chunks []string
	var accum string

	flush := func() {
		if accum == "" {
			return
		}
		if len(accum) > opts.MaxSize {
			chunks = append(chunks, hardSplit(accum, opts.TargetSize)...)
		} else {
			chunks = append(chunks, accum)
		}
		accum = ""
	}

	for _, b := range blocks {
		if accum == "" {
			accum = b
			continue
		}
		if len(accum)+len(b)+2 <= opts.TargetSize {
			accum += "\n\n" + b
		} else {
			flush()
			accum = b
		}
	}
	flush()

	return chunks
}

// hardSplit breaks an oversized block on line boundaries.
func hardSplit(text string, targetSize int) []string {
	lines := strings.Split(text, "\n")

	var chunks []string
	var current []string
	size := 0

	for _, line := range lines {
		if size+len(line) > targetSize && len(current) > 0 {
			if c := strings.TrimSpace(strings.Join(current, "\n")); c != "" {
				chunks = append(chunks, c)
			}
			current = nil
			size = 0
		}
		current = append(current, line)
		size += len(line) + 1
	}
	if c := strings.TrimSpace(strings.Join(current, "\n")); c != "" {
		chunks = append(chunks, c)
	}

	return chunks
}
