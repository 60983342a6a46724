// Package rag implements the retrieval-and-citation core: chunking and
// ingestion into the vector index, balanced multi-source retrieval,
// citation assembly, and the streaming response orchestrator.
package rag

import (
	"notebook-rag/internal/provider"
)

// ProviderSource resolves the active providers for a request. The
// provider registry implements it; resolution happens per call so a
// reconfiguration applies to subsequent requests.
type ProviderSource interface {
	ChatProvider() (provider.Provider, string, error)
	EmbeddingProvider() (provider.Provider, string, error)
}

// embeddingStamp identifies the embedding model a chunk was indexed
// with, so model drift between ingestion and query is detectable.
func embeddingStamp(p provider.Provider, model string) string {
	if model == "" {
		caps := p.Capabilities()
		if len(caps.EmbeddingModels) > 0 {
			model = caps.EmbeddingModels[0]
		}
	}
	if model == "" {
		return p.Name()
	}
	return p.Name() + "/" + model
}
