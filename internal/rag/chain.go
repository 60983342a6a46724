package rag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"notebook-rag/internal/models"
	"notebook-rag/internal/provider"
)

// chatNResults is the retrieval depth used for chat responses.
const chatNResults = 10

// Chain orchestrates a chat turn: retrieve (or inline) context, render
// the system prompt, stream the model's answer, and append the citation
// footer.
type Chain struct {
	providers ProviderSource
	retriever *Retriever
}

func NewChain(providers ProviderSource, retriever *Retriever) *Chain {
	return &Chain{providers: providers, retriever: retriever}
}

// StreamResponse streams a cited answer through fn. When fullSources is
// non-empty the entire documents are inlined (full-context mode) and no
// similarity search runs; otherwise context comes from balanced/global
// retrieval keyed on the latest user message.
//
// After the model's stream completes naturally, any citations are
// emitted as a trailing sentinel line followed by one JSON object
// mapping citation ID to {name, excerpts}. A cancelled stream gets no
// footer. A provider error mid-stream is converted into a final visible
// fragment so the stream still terminates cleanly for the transport.
func (c *Chain) StreamResponse(ctx context.Context, notebookID string, messages []models.Message, selectedSources []string, fullSources []models.SourceContent, fn provider.StreamFunc) error {
	if len(messages) == 0 {
		return errors.New("no messages provided")
	}
	query := messages[len(messages)-1].Content

	var contextStr string
	var citations map[int]models.CitationInfo
	if len(fullSources) > 0 {
		contextStr, citations = FullContext(fullSources)
	} else {
		var err error
		contextStr, citations, err = c.retriever.RetrieveContext(ctx, notebookID, query, selectedSources, chatNResults)
		if err != nil {
			return err
		}
	}

	systemPrompt := fmt.Sprintf(models.SystemPromptTemplate, contextStr)
	augmented := make([]models.Message, 0, len(messages)+1)
	augmented = append(augmented, models.Message{Role: models.RoleSystem, Content: systemPrompt})
	augmented = append(augmented, messages...)

	chat, model, err := c.providers.ChatProvider()
	if err != nil {
		return err
	}

	if err := chat.StreamChat(ctx, augmented, model, fn); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error().Err(err).Str("notebook", notebookID).Msg("Streaming error")
		return fn(ctx, []byte(fmt.Sprintf("Error generating response: %v", err)))
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if len(citations) == 0 {
		return nil
	}
	payload := make(map[string]models.CitationInfo, len(citations))
	for id, info := range citations {
		payload[strconv.Itoa(id)] = info
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding citations: %w", err)
	}
	if err := fn(ctx, []byte(models.CitationsDelimiter)); err != nil {
		return err
	}
	return fn(ctx, data)
}
