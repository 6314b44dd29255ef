package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ChunkConfig controls how source documents are split before embedding.
type ChunkConfig struct {
	MaxChars   int
	MinChars   int
	Overlap    int
	Separators []string
}

// DefaultChunkConfig provides the chunking defaults used for knowledge
// documents. Separators are ordered by priority: paragraph break, line
// break, then CJK sentence punctuation.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars:   800,
		MinChars:   50,
		Overlap:    100,
		Separators: []string{"\n\n", "\n", "。", "；", "，"},
	}
}

var multiNewline = regexp.MustCompile(`\n{3,}`)

// ChunkText splits text into bounded, overlapping chunks. Pieces are split
// on the highest-priority separator first; pieces still longer than
// MaxChars are re-split on the next separator. A piece that exceeds
// MaxChars once separators are exhausted is emitted as its own chunk,
// unsplit. When a chunk closes, the next one is seeded with the trailing
// Overlap runes of the previous chunk behind an ellipsis marker. Chunks at
// or below MinChars are discarded.
func ChunkText(text string, cfg ChunkConfig) []string {
	if cfg.MaxChars <= 0 {
		cfg = DefaultChunkConfig()
	}

	clean := strings.ReplaceAll(text, "\r\n", "\n")
	clean = strings.ReplaceAll(clean, "\r", "\n")
	clean = multiNewline.ReplaceAllString(clean, "\n\n")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil
	}

	pieces := splitBySeparators(clean, cfg.Separators, cfg.MaxChars)

	chunks := make([]string, 0, 8)
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current.Reset()
		currentLen = 0
	}

	for _, piece := range pieces {
		pieceLen := utf8.RuneCountInString(piece)

		// An atomic piece that alone exceeds the maximum is emitted whole.
		if pieceLen > cfg.MaxChars {
			flush()
			if trimmed := strings.TrimSpace(piece); trimmed != "" {
				chunks = append(chunks, trimmed)
			}
			continue
		}

		if currentLen+pieceLen > cfg.MaxChars && currentLen > 0 {
			prev := current.String()
			flush()
			seed := overlapText(prev, cfg.Overlap)
			current.WriteString(seed)
			current.WriteString(piece)
			currentLen = utf8.RuneCountInString(seed) + pieceLen
		} else {
			current.WriteString(piece)
			currentLen += pieceLen
		}
	}
	flush()

	kept := chunks[:0]
	for _, c := range chunks {
		if utf8.RuneCountInString(c) > cfg.MinChars {
			kept = append(kept, c)
		}
	}
	return kept
}

// splitBySeparators recursively splits text on the given separators in
// priority order, keeping the separators so re-concatenation preserves the
// source text. Only parts still longer than maxChars are re-split on the
// remaining separators.
func splitBySeparators(text string, separators []string, maxChars int) []string {
	if len(separators) == 0 {
		return []string{text}
	}

	sep := separators[0]
	rest := separators[1:]
	parts := strings.Split(text, sep)

	result := make([]string, 0, len(parts))
	for i, part := range parts {
		if i > 0 {
			result = append(result, sep)
		}
		if utf8.RuneCountInString(part) > maxChars && len(rest) > 0 {
			result = append(result, splitBySeparators(part, rest, maxChars)...)
		} else {
			result = append(result, part)
		}
	}

	kept := result[:0]
	for _, part := range result {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return kept
}

// overlapText returns the trailing overlap runes of text behind an
// ellipsis marker, or the whole text when it is shorter than the overlap.
func overlapText(text string, overlap int) string {
	if overlap <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= overlap {
		return text
	}
	return "..." + string(runes[len(runes)-overlap:])
}
