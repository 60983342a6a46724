package models

import "fmt"

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chunk is the atomic retrieval unit: a bounded slice of a source
// document's text with its provenance metadata.
type Chunk struct {
	Text       string
	NotebookID string
	SourceName string
	SourceType string
	Index      int
}

// ID returns the stable vector-index key for the chunk. Re-ingesting the
// same source produces the same IDs, so chunks overwrite instead of
// duplicating.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s_%s_%d", c.NotebookID, c.SourceName, c.Index)
}

// CitationInfo describes one cited source within a single response.
// IDs are dense integers starting at 1, assigned in first-seen order,
// and are never stable across responses.
type CitationInfo struct {
	ID         int      `json:"-"`
	SourceName string   `json:"name"`
	Excerpts   []string `json:"excerpts"`
}

// SourceContent is a full source document handed to full-context mode.
type SourceContent struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}
