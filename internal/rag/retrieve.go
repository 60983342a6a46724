package rag

import (
	"context"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"notebook-rag/internal/chromemdb"
	"notebook-rag/internal/models"
)

const (
	// balancedSourceLimit is the largest source selection that still
	// uses one similarity search per source. Beyond it the per-source
	// quota approaches the floor and the extra round-trips stop paying
	// off, so retrieval falls back to a single global query.
	balancedSourceLimit = 5
	// minPerSource is the per-source result floor in balanced mode.
	minPerSource = 3
)

// Retriever answers queries against the vector index and assembles the
// citation-tagged context.
type Retriever struct {
	index     *chromemdb.Store
	providers ProviderSource
}

func NewRetriever(index *chromemdb.Store, providers ProviderSource) *Retriever {
	return &Retriever{index: index, providers: providers}
}

// RetrieveContext embeds the query and returns the formatted context
// string plus the citation map.
//
// With 1..5 selected sources it runs one filtered search per source so
// every selected source is represented (per-source k is
// max(3, nResults/S+1)); a failing sub-query is logged and skipped, and
// retrieval continues with the remaining sources. Otherwise a single
// global search over the notebook returns the nResults nearest chunks.
func (r *Retriever) RetrieveContext(ctx context.Context, notebookID, query string, selectedSources []string, nResults int) (string, map[int]models.CitationInfo, error) {
	p, model, err := r.providers.EmbeddingProvider()
	if err != nil {
		return "", nil, err
	}
	queryVector, err := p.EmbedQuery(ctx, query, model)
	if err != nil {
		return "", nil, err
	}

	var results []chromem.Result
	if len(selectedSources) >= 1 && len(selectedSources) <= balancedSourceLimit {
		results = r.queryBalanced(ctx, queryVector, notebookID, selectedSources, nResults)
	} else {
		results, err = r.queryGlobal(ctx, queryVector, notebookID, selectedSources, nResults)
		if err != nil {
			return "", nil, err
		}
	}

	r.warnOnModelDrift(results, embeddingStamp(p, model))

	passages := make([]Passage, 0, len(results))
	for _, res := range results {
		name := res.Metadata[chromemdb.MetaSourceName]
		if name == "" {
			name = "Unknown"
		}
		passages = append(passages, Passage{SourceName: name, Text: res.Content})
	}

	context, citations := AssembleContext(passages)
	return context, citations, nil
}

// queryBalanced runs one similarity search per selected source so no
// single source can monopolize the top-k window.
func (r *Retriever) queryBalanced(ctx context.Context, queryVector []float32, notebookID string, sources []string, nResults int) []chromem.Result {
	perSource := nResults/len(sources) + 1
	if perSource < minPerSource {
		perSource = minPerSource
	}

	var results []chromem.Result
	for _, source := range sources {
		res, err := r.index.Query(ctx, queryVector, perSource, map[string]string{
			chromemdb.MetaNotebookID: notebookID,
			chromemdb.MetaSourceName: source,
		})
		if err != nil {
			log.Error().Err(err).Str("source", source).Msg("Error retrieving for source")
			continue
		}
		sortResults(res)
		results = append(results, res...)
	}
	return results
}

// queryGlobal runs a single notebook-wide search. The index only
// supports exact-match filters, so when a large source selection is
// still in play the search over-fetches under the notebook filter and
// keeps the nearest nResults chunks from the selected set.
func (r *Retriever) queryGlobal(ctx context.Context, queryVector []float32, notebookID string, sources []string, nResults int) ([]chromem.Result, error) {
	k := nResults
	if len(sources) > 0 {
		k = nResults * len(sources)
	}
	results, err := r.index.Query(ctx, queryVector, k, map[string]string{
		chromemdb.MetaNotebookID: notebookID,
	})
	if err != nil {
		return nil, err
	}
	sortResults(results)

	if len(sources) == 0 {
		if len(results) > nResults {
			results = results[:nResults]
		}
		return results, nil
	}

	selected := make(map[string]bool, len(sources))
	for _, s := range sources {
		selected[s] = true
	}
	filtered := results[:0]
	for _, res := range results {
		if selected[res.Metadata[chromemdb.MetaSourceName]] {
			filtered = append(filtered, res)
		}
		if len(filtered) == nResults {
			break
		}
	}
	return filtered, nil
}

// sortResults applies a deterministic tie-break so equal-similarity
// chunks always come back in the same order: similarity descending,
// then source name, then chunk index.
func sortResults(results []chromem.Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		ni := results[i].Metadata[chromemdb.MetaSourceName]
		nj := results[j].Metadata[chromemdb.MetaSourceName]
		if ni != nj {
			return ni < nj
		}
		ci, _ := strconv.Atoi(results[i].Metadata[chromemdb.MetaChunkIndex])
		cj, _ := strconv.Atoi(results[j].Metadata[chromemdb.MetaChunkIndex])
		return ci < cj
	})
}

// warnOnModelDrift flags chunks indexed with a different embedding model
// than the one answering the query; similarity scores across models are
// meaningless, which degrades retrieval quality undetectably otherwise.
func (r *Retriever) warnOnModelDrift(results []chromem.Result, stamp string) {
	for _, res := range results {
		indexed := res.Metadata[chromemdb.MetaEmbeddingModel]
		if indexed != "" && indexed != stamp {
			log.Warn().
				Str("indexed_with", indexed).
				Str("querying_with", stamp).
				Str("chunk", res.ID).
				Msg("Chunk was indexed with a different embedding model")
			return
		}
	}
}
