package rag

import (
	"fmt"

	"github.com/tmc/langchaingo/textsplitter"

	"notebook-rag/internal/config"
)

// Splitter turns raw document text into retrieval-sized chunks.
type Splitter interface {
	Split(text string) ([]string, error)
}

// WindowSplitter cuts fixed-size character windows with a configured
// overlap. It ignores semantic boundaries, which keeps it deterministic:
// no chunk exceeds Size, consecutive chunks share Overlap characters,
// and the whole input is covered with no gaps.
type WindowSplitter struct {
	Size    int
	Overlap int
}

func (s WindowSplitter) Split(text string) ([]string, error) {
	if s.Size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", s.Size)
	}
	if s.Overlap < 0 || s.Overlap >= s.Size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", s.Size, s.Overlap)
	}
	if text == "" {
		return nil, nil
	}

	stride := s.Size - s.Overlap
	var chunks []string
	for start := 0; ; start += stride {
		end := start + s.Size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end >= len(text) {
			break
		}
	}
	return chunks, nil
}

// RecursiveSplitter is the separator-aware alternative: it tries to
// break on paragraphs, then sentences, then raw characters, so chunks
// avoid splitting mid-word where possible. Chunk boundaries are not
// byte-deterministic the way WindowSplitter's are.
type RecursiveSplitter struct {
	inner textsplitter.RecursiveCharacter
}

func NewRecursiveSplitter(size, overlap int) RecursiveSplitter {
	return RecursiveSplitter{
		inner: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
		),
	}
}

func (s RecursiveSplitter) Split(text string) ([]string, error) {
	return s.inner.SplitText(text)
}

// NewSplitter builds the configured splitter. Character windows are the
// default.
func NewSplitter(cfg *config.RAGConfig) Splitter {
	if cfg.RecursiveSplitter {
		return NewRecursiveSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	}
	return WindowSplitter{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap}
}
