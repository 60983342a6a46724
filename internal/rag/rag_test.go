package rag

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"

	"notebook-rag/internal/chromemdb"
	"notebook-rag/internal/models"
	"notebook-rag/internal/provider"
)

// fakeProvider is a deterministic in-process provider. Embeddings are
// word-hash bags, so texts sharing words land near each other under
// cosine similarity and tests need no model server.
type fakeProvider struct {
	name       string
	reply      string
	chatErr    error
	batchErr   error
	embedCalls int
}

const fakeDim = 64

func embedText(text string) []float32 {
	v := make([]float32, fakeDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		v[h.Sum32()%fakeDim]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		v[0] = 1
		return v
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v
}

func (f *fakeProvider) Name() string {
	if f.name == "" {
		return "fake"
	}
	return f.name
}

func (f *fakeProvider) Capabilities() provider.Capabilities {
	return provider.Capabilities{
		SupportsChat:       true,
		SupportsStreaming:  true,
		SupportsEmbeddings: true,
		EmbeddingModels:    []string{"fake-embed"},
	}
}

func (f *fakeProvider) StreamChat(ctx context.Context, messages []models.Message, model string, fn provider.StreamFunc) error {
	if f.chatErr != nil {
		return f.chatErr
	}
	for _, word := range strings.SplitAfter(f.reply, " ") {
		if err := fn(ctx, []byte(word)); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeProvider) EmbedQuery(ctx context.Context, text, model string) ([]float32, error) {
	f.embedCalls++
	return embedText(text), nil
}

func (f *fakeProvider) EmbedDocuments(ctx context.Context, texts []string, model string) ([][]float32, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = embedText(t)
	}
	return out, nil
}

func (f *fakeProvider) ListModels(ctx context.Context) ([]string, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeProvider) HealthCheck(ctx context.Context) provider.Health {
	return provider.Health{Status: provider.HealthOK}
}

func (f *fakeProvider) IsConfigured() bool { return true }

// stubProviders hands out the same fake for chat and embeddings.
type stubProviders struct {
	p *fakeProvider
}

func (s stubProviders) ChatProvider() (provider.Provider, string, error) {
	return s.p, "", nil
}

func (s stubProviders) EmbeddingProvider() (provider.Provider, string, error) {
	return s.p, "fake-embed", nil
}

func newTestIndex(t interface{ Fatalf(string, ...any) }) *chromemdb.Store {
	index, err := chromemdb.NewStore("", "test_docs", true, "")
	if err != nil {
		t.Fatalf("creating in-memory index: %v", err)
	}
	return index
}
