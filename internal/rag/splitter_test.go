package rag

import (
	"strings"
	"testing"
)

func TestWindowSplitterChunks(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		overlap int
		textLen int
		want    int
	}{
		{"empty", 500, 50, 0, 0},
		{"shorter than one chunk", 500, 50, 120, 1},
		{"exactly one chunk", 500, 50, 500, 1},
		{"two chunks", 500, 50, 950, 2},
		{"three chunks", 500, 50, 1000, 3},
		{"no overlap", 100, 0, 250, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := strings.Repeat("a", tt.textLen)
			s := WindowSplitter{Size: tt.size, Overlap: tt.overlap}
			chunks, err := s.Split(text)
			if err != nil {
				t.Fatalf("Split: %v", err)
			}
			if len(chunks) != tt.want {
				t.Fatalf("got %d chunks, want %d", len(chunks), tt.want)
			}
			for i, c := range chunks {
				if len(c) > tt.size {
					t.Errorf("chunk %d has %d chars, max %d", i, len(c), tt.size)
				}
			}
		})
	}
}

func TestWindowSplitterOverlapAndCoverage(t *testing.T) {
	text := "abcdefghijklmnopqrstuvwxyz0123456789"
	s := WindowSplitter{Size: 10, Overlap: 3}
	chunks, err := s.Split(text)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1]
		tail := prev[len(prev)-3:]
		if !strings.HasPrefix(chunks[i], tail) {
			t.Errorf("chunk %d does not start with the last 3 chars of chunk %d: %q vs %q", i, i-1, chunks[i], prev)
		}
	}

	// Stitching chunks back together (dropping each overlap) must
	// reproduce the input exactly.
	var rebuilt strings.Builder
	rebuilt.WriteString(chunks[0])
	for _, c := range chunks[1:] {
		rebuilt.WriteString(c[3:])
	}
	if rebuilt.String() != text {
		t.Errorf("rebuilt text %q != input %q", rebuilt.String(), text)
	}
}

func TestWindowSplitterNoEmptyTrailingChunk(t *testing.T) {
	// A final window starting exactly at len(text) must not be emitted.
	text := strings.Repeat("x", 950)
	s := WindowSplitter{Size: 500, Overlap: 50}
	chunks, err := s.Split(text)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if got := chunks[1]; len(got) != 500 {
		t.Errorf("last chunk has %d chars, want 500", len(got))
	}
}

func TestWindowSplitterValidation(t *testing.T) {
	if _, err := (WindowSplitter{Size: 0, Overlap: 0}).Split("abc"); err == nil {
		t.Error("expected error for zero chunk size")
	}
	if _, err := (WindowSplitter{Size: 10, Overlap: 10}).Split("abc"); err == nil {
		t.Error("expected error for overlap == size")
	}
	if _, err := (WindowSplitter{Size: 10, Overlap: -1}).Split("abc"); err == nil {
		t.Error("expected error for negative overlap")
	}
}
