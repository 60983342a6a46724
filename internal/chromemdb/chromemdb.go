package chromemdb

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

// Metadata keys stored on every chunk document.
const (
	MetaNotebookID     = "notebook_id"
	MetaSourceName     = "source_name"
	MetaSourceType     = "source_type"
	MetaChunkIndex     = "chunk_index"
	MetaEmbeddingModel = "embedding_model"
)

const compress = false

// Store encapsulates the chromem-go database holding chunk embeddings.
// Vectors are always computed through the provider registry and passed
// in precomputed; the collection's own embedding func is a stub that
// rejects any attempt to embed inside the index.
type Store struct {
	db            *chromem.DB
	collection    *chromem.Collection
	dbPath        string
	encryptionKey string
	filePath      string
}

// NewStore opens (or creates) the vector database and its collection.
func NewStore(dbPath, collectionName string, inMemory bool, encryptionKey string) (*Store, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(dbPath, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, rejectEmbedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}

	return &Store{
		db:            db,
		collection:    collection,
		dbPath:        dbPath,
		encryptionKey: encryptionKey,
		filePath:      dbPath + "/" + collectionName + ".chromem",
	}, nil
}

func rejectEmbedding(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embeddings must be supplied by the provider registry")
}

// Add stores documents with precomputed embeddings. Documents with IDs
// already present are overwritten.
func (s *Store) Add(ctx context.Context, docs []chromem.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Query performs a similarity search restricted by exact-match metadata
// filters. k is clamped to the collection size; an empty collection
// yields no results and no error.
func (s *Store) Query(ctx context.Context, embedding []float32, k int, where map[string]string) ([]chromem.Result, error) {
	if len(embedding) == 0 {
		return nil, errors.New("query embedding must be provided")
	}
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := s.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: embedding,
		NResults:       k,
		Where:          where,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	return results, nil
}

// DeleteWhere removes every document matching all given metadata keys.
func (s *Store) DeleteWhere(ctx context.Context, where map[string]string) error {
	if err := s.collection.Delete(ctx, where, nil); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// Count returns the number of documents in the collection.
func (s *Store) Count() int {
	return s.collection.Count()
}

// DeleteCollection drops the whole collection.
func (s *Store) DeleteCollection() error {
	if err := s.db.DeleteCollection(s.collection.Name); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	return nil
}

// Export writes an encrypted snapshot of the collection to disk.
func (s *Store) Export(ctx context.Context) error {
	if s.encryptionKey == "" {
		return errors.New("encryption key is required")
	}
	log.Debug().Str("collection", s.collection.Name).Str("file", s.filePath).Msg("Exporting collection")
	if err := s.db.ExportToFile(s.filePath, compress, s.encryptionKey, s.collection.Name); err != nil {
		return fmt.Errorf("failed to export database: %w", err)
	}
	return nil
}

// Import restores a previously exported snapshot.
func (s *Store) Import(ctx context.Context) error {
	if err := s.db.ImportFromFile(s.filePath, s.encryptionKey, s.collection.Name); err != nil {
		return fmt.Errorf("failed to import database: %w", err)
	}
	return nil
}
