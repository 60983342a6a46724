package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"notebook-rag/internal/config"
	"notebook-rag/internal/models"
)

// Source is the persisted record of an ingested document. The full raw
// content is kept so small notebooks can answer in full-context mode
// without re-extracting files.
type Source struct {
	bun.BaseModel `bun:"table:sources,alias:s"`

	ID         int64     `bun:"id,pk,autoincrement"`
	NotebookID string    `bun:"notebook_id,notnull"`
	Name       string    `bun:"name,notnull"`
	Type       string    `bun:"type,notnull"`
	Status     string    `bun:"status,notnull,default:'ready'"`
	Content    string    `bun:"content,notnull"`
	ChunkCount int       `bun:"chunk_count,notnull,default:0"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Source statuses.
const (
	StatusReady   = "ready"
	StatusErrored = "errored"
)

func ConnectDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	dsn := cfg.URL + "?sslmode=disable"
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn), pgdriver.WithPassword(cfg.Key))), nil
}

func NewDB(sqldb *sql.DB, debug bool) *bun.DB {
	db := bun.NewDB(sqldb, pgdialect.New())
	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db
}

func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*Source)(nil)).IfNotExists().Exec(ctx); err != nil {
		return err
	}
	_, err := db.NewCreateIndex().
		Model((*Source)(nil)).
		Index("sources_notebook_name_idx").
		Unique().
		IfNotExists().
		Column("notebook_id", "name").
		Exec(ctx)
	return err
}

// SaveSource inserts or replaces the record for (notebook_id, name).
func SaveSource(ctx context.Context, db *bun.DB, src *Source) error {
	_, err := db.NewInsert().
		Model(src).
		On("CONFLICT (notebook_id, name) DO UPDATE").
		Set("type = EXCLUDED.type").
		Set("status = EXCLUDED.status").
		Set("content = EXCLUDED.content").
		Set("chunk_count = EXCLUDED.chunk_count").
		Exec(ctx)
	return err
}

func ListSources(ctx context.Context, db *bun.DB, notebookID string) ([]Source, error) {
	var sources []Source
	err := db.NewSelect().
		Model(&sources).
		Where("notebook_id = ?", notebookID).
		Order("created_at ASC").
		Scan(ctx)
	return sources, err
}

func DeleteSource(ctx context.Context, db *bun.DB, notebookID, name string) error {
	_, err := db.NewDelete().
		Model((*Source)(nil)).
		Where("notebook_id = ?", notebookID).
		Where("name = ?", name).
		Exec(ctx)
	return err
}

// FullContextSources loads the full content of the selected sources when
// their combined size fits the budget; otherwise it returns nil and the
// caller falls back to similarity retrieval. Results follow the order of
// the selection.
func FullContextSources(ctx context.Context, db *bun.DB, notebookID string, selected []string, budget int) ([]models.SourceContent, error) {
	if len(selected) == 0 {
		return nil, nil
	}
	var sources []Source
	err := db.NewSelect().
		Model(&sources).
		Where("notebook_id = ?", notebookID).
		Where("name IN (?)", bun.In(selected)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]string, len(sources))
	for _, s := range sources {
		byName[s.Name] = s.Content
	}

	var contents []models.SourceContent
	total := 0
	for _, name := range selected {
		content, ok := byName[name]
		if !ok || content == "" {
			continue
		}
		contents = append(contents, models.SourceContent{Name: name, Content: content})
		total += len(content)
	}
	if total == 0 || total >= budget {
		return nil, nil
	}
	return contents, nil
}
