package knowledge

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/uptrace/bun"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

type Document struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Embedding  []float32         `json:"-"`
}

// Store persists documents per collection. Add upserts by document id.
type Store interface {
	Add(ctx context.Context, docs []Document) error
	Documents(ctx context.Context, collection string) ([]Document, error)
}

type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Document
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]Document)}
}

func (s *MemoryStore) Add(ctx context.Context, docs []Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range docs {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("%w: document id is required", contractx.ErrValidation)
		}
		existing := s.collections[d.Collection]
		replaced := false
		for i := range existing {
			if existing[i].ID == d.ID {
				existing[i] = cloneDocument(d)
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, cloneDocument(d))
		}
		s.collections[d.Collection] = existing
	}
	return nil
}

func (s *MemoryStore) Documents(ctx context.Context, collection string) ([]Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.collections[collection]
	out := make([]Document, 0, len(src))
	for _, d := range src {
		out = append(out, cloneDocument(d))
	}
	return out, nil
}

func cloneDocument(d Document) Document {
	out := d
	if d.Metadata != nil {
		out.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			out.Metadata[k] = v
		}
	}
	if d.Embedding != nil {
		out.Embedding = append([]float32(nil), d.Embedding...)
	}
	return out
}

type documentRow struct {
	bun.BaseModel `bun:"table:knowledge_documents,alias:kd"`

	ID         string            `bun:"id,pk"`
	Collection string            `bun:"collection,notnull"`
	Position   int64             `bun:"position,notnull"`
	Content    string            `bun:"content,notnull"`
	Metadata   map[string]string `bun:"metadata"`
	Embedding  []float32         `bun:"embedding"`
}

// BunStore keeps documents in the knowledge_documents table of the structured database.
type BunStore struct {
	db bun.IDB
}

var _ Store = (*BunStore)(nil)

func NewBunStore(db bun.IDB) *BunStore {
	return &BunStore{db: db}
}

func (s *BunStore) Migrate(ctx context.Context) error {
	if _, err := s.db.NewCreateTable().Model((*documentRow)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("create knowledge_documents table: %w", err)
	}
	return nil
}

func (s *BunStore) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	var next int64
	if err := s.db.NewSelect().
		Model((*documentRow)(nil)).
		ColumnExpr("COALESCE(MAX(position), 0)").
		Scan(ctx, &next); err != nil {
		return fmt.Errorf("read knowledge position: %w", err)
	}

	rows := make([]documentRow, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.ID) == "" {
			return fmt.Errorf("%w: document id is required", contractx.ErrValidation)
		}
		next++
		rows = append(rows, documentRow{
			ID:         d.ID,
			Collection: d.Collection,
			Position:   next,
			Content:    d.Content,
			Metadata:   d.Metadata,
			Embedding:  d.Embedding,
		})
	}

	_, err := s.db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("collection = EXCLUDED.collection").
		Set("content = EXCLUDED.content").
		Set("metadata = EXCLUDED.metadata").
		Set("embedding = EXCLUDED.embedding").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert %d knowledge documents: %w", len(rows), err)
	}
	return nil
}

func (s *BunStore) Documents(ctx context.Context, collection string) ([]Document, error) {
	var rows []documentRow
	if err := s.db.NewSelect().
		Model(&rows).
		Where("collection = ?", collection).
		Order("position ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("list knowledge collection=%s: %w", collection, err)
	}

	out := make([]Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, Document{
			ID:         r.ID,
			Collection: r.Collection,
			Content:    r.Content,
			Metadata:   r.Metadata,
			Embedding:  r.Embedding,
		})
	}
	return out, nil
}
