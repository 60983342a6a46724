package rag

import (
	"context"
	"fmt"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"notebook-rag/internal/chromemdb"
	"notebook-rag/internal/models"
	"notebook-rag/internal/provider"
)

// Ingestor chunks raw document text, embeds the chunks through the
// active embedding provider, and stores them in the vector index.
type Ingestor struct {
	index     *chromemdb.Store
	providers ProviderSource
	splitter  Splitter
}

func NewIngestor(index *chromemdb.Store, providers ProviderSource, splitter Splitter) *Ingestor {
	return &Ingestor{index: index, providers: providers, splitter: splitter}
}

// AddDocuments splits content into overlapping chunks, embeds them, and
// persists them under stable IDs {notebook}_{source}_{index}. Any chunks
// from a previous ingestion of the same source are removed first, so a
// shorter re-ingestion cannot leave stale trailing chunks behind.
//
// Embedding uses one batched call per source; if the batch fails the
// ingestor falls back to embedding chunk by chunk, skipping (and
// logging) individual failures. Returns the number of chunks stored.
func (ing *Ingestor) AddDocuments(ctx context.Context, notebookID, sourceName, sourceType, content string) (int, error) {
	chunks, err := ing.splitter.Split(content)
	if err != nil {
		return 0, fmt.Errorf("splitting %q: %w", sourceName, err)
	}
	if len(chunks) == 0 {
		log.Info().Str("source", sourceName).Msg("No chunks generated from content")
		return 0, nil
	}

	p, model, err := ing.providers.EmbeddingProvider()
	if err != nil {
		return 0, err
	}
	stamp := embeddingStamp(p, model)

	if err := ing.DeleteSource(ctx, notebookID, sourceName); err != nil {
		log.Warn().Err(err).Str("source", sourceName).Msg("Could not clear previous chunks before ingesting")
	}

	docs, err := ing.embedBatch(ctx, p, model, notebookID, sourceName, sourceType, stamp, chunks)
	if err != nil {
		log.Warn().Err(err).Str("source", sourceName).Msg("Batch embedding failed, falling back to per-chunk embedding")
		docs = ing.embedEach(ctx, p, model, notebookID, sourceName, sourceType, stamp, chunks)
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("embedding %q: no chunk could be embedded", sourceName)
	}

	if err := ing.index.Add(ctx, docs); err != nil {
		return 0, err
	}
	log.Info().Str("notebook", notebookID).Str("source", sourceName).Int("chunks", len(docs)).Msg("Ingested source")
	return len(docs), nil
}

func (ing *Ingestor) embedBatch(ctx context.Context, p provider.Provider, model, notebookID, sourceName, sourceType, stamp string, chunks []string) ([]chromem.Document, error) {
	vectors, err := p.EmbedDocuments(ctx, chunks, model)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	docs := make([]chromem.Document, 0, len(chunks))
	for i, text := range chunks {
		docs = append(docs, chunkDocument(notebookID, sourceName, sourceType, stamp, i, text, vectors[i]))
	}
	return docs, nil
}

// embedEach is the legacy path: one embedding call per chunk. Chunk
// indexes are preserved even when a chunk is skipped, so re-ingestion
// keys stay aligned with chunk positions.
func (ing *Ingestor) embedEach(ctx context.Context, p provider.Provider, model, notebookID, sourceName, sourceType, stamp string, chunks []string) []chromem.Document {
	var docs []chromem.Document
	for i, text := range chunks {
		vector, err := p.EmbedQuery(ctx, text, model)
		if err != nil {
			log.Error().Err(err).Str("source", sourceName).Int("chunk", i).Msg("Error generating embedding")
			continue
		}
		docs = append(docs, chunkDocument(notebookID, sourceName, sourceType, stamp, i, text, vector))
	}
	return docs
}

func chunkDocument(notebookID, sourceName, sourceType, stamp string, index int, text string, vector []float32) chromem.Document {
	chunk := models.Chunk{
		Text:       text,
		NotebookID: notebookID,
		SourceName: sourceName,
		SourceType: sourceType,
		Index:      index,
	}
	return chromem.Document{
		ID:        chunk.ID(),
		Content:   text,
		Embedding: vector,
		Metadata: map[string]string{
			chromemdb.MetaNotebookID:     notebookID,
			chromemdb.MetaSourceName:     sourceName,
			chromemdb.MetaSourceType:     sourceType,
			chromemdb.MetaChunkIndex:     strconv.Itoa(index),
			chromemdb.MetaEmbeddingModel: stamp,
		},
	}
}

// DeleteSource removes every chunk belonging to the source.
func (ing *Ingestor) DeleteSource(ctx context.Context, notebookID, sourceName string) error {
	return ing.index.DeleteWhere(ctx, map[string]string{
		chromemdb.MetaNotebookID: notebookID,
		chromemdb.MetaSourceName: sourceName,
	})
}
