package chromemdb

import (
	"context"
	"testing"

	"github.com/philippgille/chromem-go"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("", "test", true, "")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func doc(id string, embedding []float32, meta map[string]string) chromem.Document {
	return chromem.Document{ID: id, Content: "content " + id, Embedding: embedding, Metadata: meta}
}

func TestQueryClampsAndOrders(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Add(ctx, []chromem.Document{
		doc("a", []float32{1, 0}, map[string]string{MetaNotebookID: "nb1"}),
		doc("b", []float32{0, 1}, map[string]string{MetaNotebookID: "nb1"}),
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if s.Count() != 2 {
		t.Fatalf("Count = %d, want 2", s.Count())
	}

	// k larger than the collection is clamped instead of erroring.
	results, err := s.Query(ctx, []float32{1, 0}, 10, map[string]string{MetaNotebookID: "nb1"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].ID != "a" {
		t.Errorf("nearest result = %q, want a", results[0].ID)
	}
}

func TestQueryEmptyCollection(t *testing.T) {
	s := newTestStore(t)

	results, err := s.Query(context.Background(), []float32{1, 0}, 5, nil)
	if err != nil {
		t.Fatalf("Query on empty collection: %v", err)
	}
	if results != nil {
		t.Errorf("expected no results, got %v", results)
	}
}

func TestQueryRequiresEmbedding(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Query(context.Background(), nil, 5, nil); err == nil {
		t.Fatal("expected an error for a missing query embedding")
	}
}

func TestDeleteWhere(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Add(ctx, []chromem.Document{
		doc("a", []float32{1, 0}, map[string]string{MetaNotebookID: "nb1", MetaSourceName: "x.txt"}),
		doc("b", []float32{0, 1}, map[string]string{MetaNotebookID: "nb1", MetaSourceName: "y.txt"}),
		doc("c", []float32{0, 1}, map[string]string{MetaNotebookID: "nb2", MetaSourceName: "x.txt"}),
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	err = s.DeleteWhere(ctx, map[string]string{MetaNotebookID: "nb1", MetaSourceName: "x.txt"})
	if err != nil {
		t.Fatalf("DeleteWhere: %v", err)
	}
	if s.Count() != 2 {
		t.Errorf("Count after delete = %d, want 2", s.Count())
	}

	// The same source name under a different notebook survives.
	results, err := s.Query(ctx, []float32{0, 1}, 2, map[string]string{MetaNotebookID: "nb2"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(results) != 1 || results[0].ID != "c" {
		t.Errorf("unexpected survivors: %v", results)
	}
}

func TestAddOverwritesSameID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Add(ctx, []chromem.Document{doc("a", []float32{1, 0}, nil)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(ctx, []chromem.Document{doc("a", []float32{0, 1}, nil)}); err != nil {
		t.Fatal(err)
	}
	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1 after overwriting the same ID", s.Count())
	}
}
