package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"

	"notebook-rag/internal/chromemdb"
	"notebook-rag/internal/config"
	"notebook-rag/internal/helper"
	"notebook-rag/internal/loader"
	"notebook-rag/internal/models"
	"notebook-rag/internal/provider"
	"notebook-rag/internal/rag"
	"notebook-rag/internal/store"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	configPath := flag.String("config", "./configs/config.yaml", "Path to the config file")
	filePath := flag.String("file", "", "Path to a document file to ingest")
	query := flag.String("query", "", "Question to answer against the notebook")
	notebookID := flag.String("notebook", "", "Notebook ID (generated on ingest when empty)")
	sourceName := flag.String("name", "", "Source name (defaults to the file name on ingest)")
	sources := flag.String("sources", "", "Comma-separated source names to restrict the chat to")
	fullContext := flag.Bool("full", false, "Inline full documents instead of retrieving chunks")
	deleteSource := flag.Bool("delete", false, "Delete the named source from the notebook")
	listProviders := flag.Bool("providers", false, "List providers and their capabilities")
	health := flag.String("health", "", "Run a health check against the named provider")
	flag.Parse()

	if *filePath != "" && *query != "" {
		log.Fatal().Msg("Please provide either a document file using the -file flag or a question using the -query flag, but not both")
	}

	ctx := context.Background()
	app := newApp(ctx, *configPath)

	switch {
	case *listProviders:
		helper.PrettyPrint(app.registry.List())
	case *health != "":
		checkHealth(ctx, app, *health)
	case *deleteSource:
		removeSource(ctx, app, *notebookID, *sourceName)
	case *filePath != "":
		ingestFile(ctx, app, *filePath, *notebookID, *sourceName)
	case *query != "":
		chat(ctx, app, *notebookID, *query, splitSources(*sources), *fullContext)
	default:
		flag.Usage()
	}
}

// app bundles the wired components. The relational store is optional;
// without it full-context mode is unavailable and source records are
// not persisted.
type app struct {
	cfg      *config.Config
	registry *provider.Registry
	index    *chromemdb.Store
	ingestor *rag.Ingestor
	chain    *rag.Chain
	db       *bun.DB
}

func newApp(ctx context.Context, configPath string) *app {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}

	registry := provider.NewRegistry(cfg)
	if cfg.Embedding.Provider != "" {
		if err := registry.SetEmbeddingProvider(cfg.Embedding.Provider, cfg.Embedding.Model); err != nil {
			log.Warn().Err(err).Str("provider", cfg.Embedding.Provider).Msg("Configured embedding provider rejected, falling back to ollama")
			if err := registry.SetEmbeddingProvider("ollama", ""); err != nil {
				log.Fatal().Err(err).Msg("Error selecting embedding provider")
			}
		}
	}

	index, err := chromemdb.NewStore(cfg.VectorDB.Path, cfg.VectorDB.Collection, cfg.VectorDB.InMemory, cfg.RAG.EncryptionKey)
	if err != nil {
		log.Fatal().Err(err).Msg("Error creating vector store")
	}
	if cfg.VectorDB.InMemory && cfg.RAG.EncryptionKey != "" {
		if err := index.Import(ctx); err != nil {
			log.Debug().Err(err).Msg("No collection snapshot restored")
		}
	}

	splitter := rag.NewSplitter(&cfg.RAG)
	ingestor := rag.NewIngestor(index, registry, splitter)
	retriever := rag.NewRetriever(index, registry)
	chain := rag.NewChain(registry, retriever)

	a := &app{cfg: cfg, registry: registry, index: index, ingestor: ingestor, chain: chain}

	if cfg.Database.URL != "" {
		sqldb, err := store.ConnectDB(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to database")
		}
		a.db = store.NewDB(sqldb, cfg.Database.Debug)
		if err := store.InitDB(ctx, a.db); err != nil {
			log.Fatal().Err(err).Msg("Error initializing database")
		}
	}
	return a
}

func ingestFile(ctx context.Context, a *app, filePath, notebookID, sourceName string) {
	if notebookID == "" {
		id, err := helper.NewNotebookID()
		if err != nil {
			log.Fatal().Err(err).Msg("Error generating notebook ID")
		}
		notebookID = id
		log.Info().Str("notebook", notebookID).Msg("Created notebook")
	}
	if sourceName == "" {
		sourceName = filepath.Base(filePath)
	}

	doc, err := loader.Load(filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", filePath).Msg("Error loading document")
	}

	count, err := a.ingestor.AddDocuments(ctx, notebookID, sourceName, doc.SourceType, doc.Content)
	if err != nil {
		log.Fatal().Err(err).Str("source", sourceName).Msg("Error ingesting document")
	}

	if a.db != nil {
		src := &store.Source{
			NotebookID: notebookID,
			Name:       sourceName,
			Type:       doc.SourceType,
			Status:     store.StatusReady,
			Content:    doc.Content,
			ChunkCount: count,
		}
		if err := store.SaveSource(ctx, a.db, src); err != nil {
			log.Error().Err(err).Str("source", sourceName).Msg("Error saving source record")
		}
	}

	if a.cfg.VectorDB.InMemory {
		if err := a.index.Export(ctx); err != nil {
			log.Error().Err(err).Msg("Error exporting collection")
		}
	}

	fmt.Printf("Ingested %q into notebook %s (%d chunks)\n", sourceName, notebookID, count)
}

func chat(ctx context.Context, a *app, notebookID, query string, sources []string, fullContext bool) {
	if notebookID == "" {
		log.Fatal().Msg("Please provide a notebook ID using the -notebook flag")
	}

	var full []models.SourceContent
	if fullContext {
		if a.db == nil {
			log.Fatal().Msg("Full-context mode requires a configured database")
		}
		var err error
		full, err = store.FullContextSources(ctx, a.db, notebookID, sources, a.cfg.RAG.MaxFullContext)
		if err != nil {
			log.Fatal().Err(err).Msg("Error loading full source content")
		}
		if full == nil {
			log.Info().Msg("Sources exceed the full-context budget, falling back to retrieval")
		}
	}

	messages := []models.Message{{Role: models.RoleUser, Content: query}}
	err := a.chain.StreamResponse(ctx, notebookID, messages, sources, full, func(ctx context.Context, chunk []byte) error {
		_, err := os.Stdout.Write(chunk)
		return err
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating response")
	}
	fmt.Println()
}

func removeSource(ctx context.Context, a *app, notebookID, sourceName string) {
	if notebookID == "" || sourceName == "" {
		log.Fatal().Msg("Please provide both -notebook and -name to delete a source")
	}
	if err := a.ingestor.DeleteSource(ctx, notebookID, sourceName); err != nil {
		log.Fatal().Err(err).Str("source", sourceName).Msg("Error deleting source chunks")
	}
	if a.db != nil {
		if err := store.DeleteSource(ctx, a.db, notebookID, sourceName); err != nil {
			log.Error().Err(err).Str("source", sourceName).Msg("Error deleting source record")
		}
	}
	fmt.Printf("Deleted %q from notebook %s\n", sourceName, notebookID)
}

func checkHealth(ctx context.Context, a *app, name string) {
	p, err := a.registry.Get(name)
	if err != nil {
		log.Fatal().Err(err).Msg("Unknown provider")
	}
	helper.PrettyPrint(p.HealthCheck(ctx))
}

func splitSources(csv string) []string {
	if csv == "" {
		return nil
	}
	var out []string
	for _, s := range strings.Split(csv, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
