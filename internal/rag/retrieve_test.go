package rag

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/philippgille/chromem-go"

	"notebook-rag/internal/chromemdb"
)

func newTestRetriever(t *testing.T) (*Retriever, *Ingestor, *fakeProvider) {
	t.Helper()
	index := newTestIndex(t)
	fake := &fakeProvider{}
	providers := stubProviders{p: fake}
	ing := NewIngestor(index, providers, WindowSplitter{Size: 60, Overlap: 0})
	return NewRetriever(index, providers), ing, fake
}

func TestRetrieveContextBalanced(t *testing.T) {
	r, ing, _ := newTestRetriever(t)
	ctx := context.Background()

	cats := "cats purr loudly. cats chase mice. cats sleep all day long here"
	dogs := "dogs bark at strangers. dogs fetch sticks. dogs guard the house"
	if _, err := ing.AddDocuments(ctx, "nb1", "cats.txt", "text", cats+cats); err != nil {
		t.Fatal(err)
	}
	if _, err := ing.AddDocuments(ctx, "nb1", "dogs.txt", "text", dogs+dogs); err != nil {
		t.Fatal(err)
	}

	contextStr, citations, err := r.RetrieveContext(ctx, "nb1", "why do cats purr", []string{"cats.txt", "dogs.txt"}, 5)
	if err != nil {
		t.Fatalf("RetrieveContext: %v", err)
	}

	// Balanced mode must represent every selected source even though
	// only one matches the query well.
	if len(citations) != 2 {
		t.Fatalf("got %d cited sources, want 2: %+v", len(citations), citations)
	}
	if !strings.Contains(contextStr, "(cats.txt)") || !strings.Contains(contextStr, "(dogs.txt)") {
		t.Errorf("context missing a selected source:\n%s", contextStr)
	}
}

func TestRetrieveContextGlobalUnselected(t *testing.T) {
	r, ing, _ := newTestRetriever(t)
	ctx := context.Background()

	if _, err := ing.AddDocuments(ctx, "nb1", "cats.txt", "text", "cats purr and cats nap in sunshine"); err != nil {
		t.Fatal(err)
	}
	if _, err := ing.AddDocuments(ctx, "nb1", "tax.txt", "text", "quarterly tax filings are due in april"); err != nil {
		t.Fatal(err)
	}

	_, citations, err := r.RetrieveContext(ctx, "nb1", "cats purr", nil, 1)
	if err != nil {
		t.Fatalf("RetrieveContext: %v", err)
	}
	if len(citations) != 1 {
		t.Fatalf("got %d citations, want 1", len(citations))
	}
	if citations[1].SourceName != "cats.txt" {
		t.Errorf("nearest chunk should come from cats.txt, got %q", citations[1].SourceName)
	}
}

func TestRetrieveContextFiveSourcesStaysBalanced(t *testing.T) {
	r, ing, _ := newTestRetriever(t)
	ctx := context.Background()

	topics := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	var selected []string
	for _, topic := range topics {
		name := topic + ".txt"
		selected = append(selected, name)
		content := fmt.Sprintf("notes about %s and only %s matters here", topic, topic)
		if _, err := ing.AddDocuments(ctx, "nb1", name, "text", content); err != nil {
			t.Fatal(err)
		}
	}

	// Five sources sit exactly on the balanced limit: every selected
	// source is represented regardless of nResults.
	_, citations, err := r.RetrieveContext(ctx, "nb1", "tell me about delta", selected, 2)
	if err != nil {
		t.Fatalf("RetrieveContext: %v", err)
	}
	if len(citations) != 5 {
		t.Errorf("balanced mode cited %d sources, want all 5: %+v", len(citations), citations)
	}
}

func TestRetrieveContextLargeSelectionFallsBackToGlobal(t *testing.T) {
	r, ing, _ := newTestRetriever(t)
	ctx := context.Background()

	topics := []string{"alpha", "bravo", "charlie", "delta", "echo", "foxtrot"}
	var selected []string
	for _, topic := range topics {
		name := topic + ".txt"
		selected = append(selected, name)
		content := fmt.Sprintf("notes about %s and only %s matters here", topic, topic)
		if _, err := ing.AddDocuments(ctx, "nb1", name, "text", content); err != nil {
			t.Fatal(err)
		}
	}

	_, citations, err := r.RetrieveContext(ctx, "nb1", "tell me about delta", selected, 2)
	if err != nil {
		t.Fatalf("RetrieveContext: %v", err)
	}

	// Six selected sources exceed the balanced limit, so retrieval is a
	// single global search capped at nResults.
	total := 0
	names := map[string]bool{}
	for _, info := range citations {
		total += len(info.Excerpts)
		names[info.SourceName] = true
	}
	if total > 2 {
		t.Errorf("global mode returned %d chunks, cap is 2", total)
	}
	if !names["delta.txt"] {
		t.Errorf("best-matching source missing from citations: %v", citations)
	}
	for name := range names {
		found := false
		for _, s := range selected {
			if s == name {
				found = true
			}
		}
		if !found {
			t.Errorf("citation %q is outside the selected set", name)
		}
	}
}

func TestRetrieveContextEmptyNotebook(t *testing.T) {
	r, _, _ := newTestRetriever(t)

	contextStr, citations, err := r.RetrieveContext(context.Background(), "nb1", "anything", nil, 5)
	if err != nil {
		t.Fatalf("RetrieveContext on empty index: %v", err)
	}
	if contextStr != "" || len(citations) != 0 {
		t.Errorf("empty notebook must yield empty context, got %q / %v", contextStr, citations)
	}
}

func TestSortResultsDeterministicTieBreak(t *testing.T) {
	results := []chromem.Result{
		{Similarity: 0.5, Metadata: map[string]string{chromemdb.MetaSourceName: "b.txt", chromemdb.MetaChunkIndex: "0"}},
		{Similarity: 0.5, Metadata: map[string]string{chromemdb.MetaSourceName: "a.txt", chromemdb.MetaChunkIndex: "2"}},
		{Similarity: 0.9, Metadata: map[string]string{chromemdb.MetaSourceName: "z.txt", chromemdb.MetaChunkIndex: "7"}},
		{Similarity: 0.5, Metadata: map[string]string{chromemdb.MetaSourceName: "a.txt", chromemdb.MetaChunkIndex: "1"}},
	}

	sortResults(results)

	want := []string{"z.txt/7", "a.txt/1", "a.txt/2", "b.txt/0"}
	for i, res := range results {
		got := res.Metadata[chromemdb.MetaSourceName] + "/" + res.Metadata[chromemdb.MetaChunkIndex]
		if got != want[i] {
			t.Errorf("position %d: got %s, want %s", i, got, want[i])
		}
	}
}
