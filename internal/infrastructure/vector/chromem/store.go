// Package chromem provides an embedded vector store backed by chromem-go.
// It serves deployments that run without a Qdrant instance: single binary,
// optional on-disk persistence.
package chromem

import (
	"context"
	"fmt"
	"runtime"
	"time"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/asklegal/engine/internal/core/domain"
)

const dateLayout = "2006-01-02"

type Store struct {
	db         *chromemgo.DB
	collection *chromemgo.Collection
}

// NewStore opens the collection. An empty persistPath keeps everything
// in memory, which is what the tests and dev setups use.
func NewStore(persistPath, collectionName string) (*Store, error) {
	var db *chromemgo.DB
	if persistPath != "" {
		var err error
		db, err = chromemgo.NewPersistentDB(persistPath, false)
		if err != nil {
			return nil, fmt.Errorf("open persistent chromem db: %w", err)
		}
	} else {
		db = chromemgo.NewDB()
	}

	// Embeddings are produced by the pipeline's embedder and passed in
	// explicitly, so the collection gets no embedding function.
	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("get or create collection: %w", err)
	}
	return &Store{db: db, collection: collection}, nil
}

func (s *Store) IndexDocument(ctx context.Context, doc domain.Document, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("empty vector for document %s", doc.ID)
	}

	meta := map[string]string{
		"source":       doc.Source,
		"jurisdiction": doc.Jurisdiction,
	}
	if !doc.EffectiveFrom.IsZero() {
		meta["effective_from"] = doc.EffectiveFrom.Format(dateLayout)
	}
	if !doc.EffectiveTo.IsZero() {
		meta["effective_to"] = doc.EffectiveTo.Format(dateLayout)
	}

	err := s.collection.AddDocuments(ctx, []chromemgo.Document{{
		ID:        doc.ID,
		Content:   doc.Text,
		Metadata:  meta,
		Embedding: vector,
	}}, runtime.NumCPU())
	if err != nil {
		return fmt.Errorf("add document to chromem collection: %w", err)
	}
	return nil
}

func (s *Store) Search(
	ctx context.Context,
	queryVector []float32,
	limit int,
	constraints domain.MetadataConstraints,
) ([]domain.VectorHit, error) {
	if s.collection.Count() == 0 {
		return nil, nil
	}
	if limit > s.collection.Count() {
		limit = s.collection.Count()
	}

	// chromem supports exact-match metadata filters only; the effective
	// date range is checked after the query.
	var where map[string]string
	if constraints.Source != "" || constraints.Jurisdiction != "" {
		where = make(map[string]string)
		if constraints.Source != "" {
			where["source"] = constraints.Source
		}
		if constraints.Jurisdiction != "" {
			where["jurisdiction"] = constraints.Jurisdiction
		}
	}

	results, err := s.collection.QueryEmbedding(ctx, queryVector, limit, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query chromem collection: %w", err)
	}

	hits := make([]domain.VectorHit, 0, len(results))
	for _, res := range results {
		if !effectiveOn(res.Metadata, constraints.EffectiveOn) {
			continue
		}
		hits = append(hits, domain.VectorHit{
			DocumentID: res.ID,
			Text:       res.Content,
			Score:      float64(res.Similarity),
		})
	}
	return hits, nil
}

func effectiveOn(meta map[string]string, day time.Time) bool {
	if day.IsZero() {
		return true
	}
	if from, ok := meta["effective_from"]; ok {
		t, err := time.Parse(dateLayout, from)
		if err != nil || day.Before(t) {
			return false
		}
	}
	if to, ok := meta["effective_to"]; ok {
		t, err := time.Parse(dateLayout, to)
		if err != nil || day.After(t) {
			return false
		}
	}
	return true
}
