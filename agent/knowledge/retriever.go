package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

const DefaultTopK = 3

// Retriever ranks a domain's documents against a query by cosine similarity.
type Retriever struct {
	store    Store
	embedder Embedder
}

func NewRetriever(store Store, embedder Embedder) (*Retriever, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: knowledge store is required", contractx.ErrValidation)
	}
	if embedder == nil {
		embedder = NewHashEmbedder(DefaultHashDimensions)
	}
	return &Retriever{store: store, embedder: embedder}, nil
}

// Add embeds and stores documents in the domain's collection. metadata may be nil;
// otherwise it must have one entry per document, as must ids.
func (r *Retriever) Add(
	ctx context.Context,
	domain contractx.Domain,
	documents []string,
	metadata []map[string]string,
	ids []string,
) error {
	if !domain.Valid() {
		return fmt.Errorf("%w: %q", contractx.ErrInvalidDomain, domain)
	}
	if len(ids) != len(documents) {
		return fmt.Errorf("%w: %d ids for %d documents", contractx.ErrValidation, len(ids), len(documents))
	}
	if metadata != nil && len(metadata) != len(documents) {
		return fmt.Errorf("%w: %d metadata entries for %d documents", contractx.ErrValidation, len(metadata), len(documents))
	}
	if len(documents) == 0 {
		return nil
	}

	vectors, err := r.embedder.Embed(ctx, documents)
	if err != nil {
		return fmt.Errorf("embed documents with %s: %w", r.embedder.Name(), err)
	}

	docs := make([]Document, len(documents))
	for i, content := range documents {
		var md map[string]string
		if metadata != nil {
			md = metadata[i]
		}
		docs[i] = Document{
			ID:         strings.TrimSpace(ids[i]),
			Collection: domain.KnowledgeCollection(),
			Content:    content,
			Metadata:   md,
			Embedding:  vectors[i],
		}
	}
	return r.store.Add(ctx, docs)
}

type scored struct {
	content string
	score   float64
	order   int
}

// Search returns up to topK snippets from the domain's collection, best first. Documents
// with zero similarity are not matches, so an unrelated query yields an empty slice.
func (r *Retriever) Search(ctx context.Context, domain contractx.Domain, query string, topK int) ([]string, error) {
	if !domain.Valid() {
		return nil, fmt.Errorf("%w: %q", contractx.ErrInvalidDomain, domain)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []string{}, nil
	}

	docs, err := r.store.Documents(ctx, domain.KnowledgeCollection())
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []string{}, nil
	}

	qv, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query with %s: %w", r.embedder.Name(), err)
	}
	queryVec := qv[0]

	if err := r.reembedStale(ctx, docs, len(queryVec)); err != nil {
		return nil, err
	}

	hits := make([]scored, 0, len(docs))
	for i, d := range docs {
		s := Cosine(queryVec, d.Embedding)
		if s <= 0 {
			continue
		}
		hits = append(hits, scored{content: d.Content, score: s, order: i})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score == hits[j].score {
			return hits[i].order < hits[j].order
		}
		return hits[i].score > hits[j].score
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.content
	}
	return out, nil
}

// SearchAll takes the best snippet of every domain, in domain order.
func (r *Retriever) SearchAll(ctx context.Context, query string) ([]string, error) {
	out := []string{}
	for _, d := range contractx.Domains {
		hits, err := r.Search(ctx, d, query, 1)
		if err != nil {
			return nil, err
		}
		out = append(out, hits...)
	}
	return out, nil
}

// reembedStale recomputes vectors stored by a different embedder. The store is not updated.
func (r *Retriever) reembedStale(ctx context.Context, docs []Document, dims int) error {
	var (
		idx   []int
		texts []string
	)
	for i, d := range docs {
		if len(d.Embedding) != dims {
			idx = append(idx, i)
			texts = append(texts, d.Content)
		}
	}
	if len(idx) == 0 {
		return nil
	}

	log.Debug().
		Str("component", "knowledge").
		Str("embedder", r.embedder.Name()).
		Int("documents", len(idx)).
		Msg("re-embedding documents with mismatched dimensions")

	vectors, err := r.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed stored documents with %s: %w", r.embedder.Name(), err)
	}
	for j, i := range idx {
		docs[i].Embedding = vectors[j]
	}
	return nil
}
