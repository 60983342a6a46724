package rag

import (
	"fmt"
	"strings"

	"notebook-rag/internal/models"
)

// maxExcerptLen caps the per-chunk excerpt shown to the user alongside
// a citation. Context blocks themselves carry the full chunk text.
const maxExcerptLen = 300

// Passage is one retrieved chunk in result order.
type Passage struct {
	SourceName string
	Text       string
}

// AssembleContext turns ordered passages into the context string fed to
// the model plus the citation map. Citation IDs are dense integers
// assigned 1..K in first-seen source order; the model is shown only the
// numeric IDs inside the source markers, so source names never need to
// appear in generated prose.
func AssembleContext(passages []Passage) (string, map[int]models.CitationInfo) {
	var blocks []string
	sourceIDs := map[string]int{}
	citations := map[int]models.CitationInfo{}

	for _, p := range passages {
		id, ok := sourceIDs[p.SourceName]
		if !ok {
			id = len(sourceIDs) + 1
			sourceIDs[p.SourceName] = id
			citations[id] = models.CitationInfo{
				ID:         id,
				SourceName: p.SourceName,
			}
		}

		info := citations[id]
		info.Excerpts = append(info.Excerpts, excerpt(p.Text))
		citations[id] = info

		blocks = append(blocks, sourceBlock(id, p.SourceName, p.Text))
	}

	return strings.Join(blocks, "\n\n"), citations
}

// FullContext builds the context for full-context mode: each selected
// source becomes a single block holding its entire content, with IDs
// assigned in the given order and a placeholder excerpt.
func FullContext(sources []models.SourceContent) (string, map[int]models.CitationInfo) {
	var blocks []string
	citations := map[int]models.CitationInfo{}

	for i, src := range sources {
		id := i + 1
		blocks = append(blocks, sourceBlock(id, src.Name, src.Content))
		citations[id] = models.CitationInfo{
			ID:         id,
			SourceName: src.Name,
			Excerpts:   []string{models.FullContextExcerpt},
		}
	}

	return strings.Join(blocks, "\n\n"), citations
}

func sourceBlock(id int, name, text string) string {
	return fmt.Sprintf("--- BEGIN SOURCE [%d] (%s) ---\n%s\n--- END SOURCE [%d] ---", id, name, text, id)
}

func excerpt(text string) string {
	if len(text) > maxExcerptLen {
		return text[:maxExcerptLen] + "..."
	}
	return text
}
