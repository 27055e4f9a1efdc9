package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/asklegal/engine/internal/core/domain"
	"github.com/asklegal/engine/internal/core/ports"
)

// IngestUseCase seeds the corpus: each document is persisted to the
// relational store and indexed in the vector store under its embedding.
type IngestUseCase struct {
	embedder ports.Embedder
	indexer  ports.VectorIndexer
	writer   ports.CorpusWriter
}

func NewIngestUseCase(embedder ports.Embedder, indexer ports.VectorIndexer, writer ports.CorpusWriter) *IngestUseCase {
	return &IngestUseCase{embedder: embedder, indexer: indexer, writer: writer}
}

// IngestDocuments loads documents one at a time and stops on the first
// failure so a partial seed run can be retried idempotently. Returns the
// number of documents ingested.
func (uc *IngestUseCase) IngestDocuments(ctx context.Context, docs []domain.Document) (int, error) {
	for i, doc := range docs {
		if err := uc.ingestOne(ctx, doc); err != nil {
			return i, fmt.Errorf("ingest document %q: %w", doc.ID, err)
		}
		slog.Info("document_ingested", "document_id", doc.ID, "source", doc.Source)
	}
	return len(docs), nil
}

func (uc *IngestUseCase) ingestOne(ctx context.Context, doc domain.Document) error {
	if strings.TrimSpace(doc.ID) == "" {
		return domain.WrapError(domain.ErrInvalidQuery, "ingest", fmt.Errorf("document id must not be empty"))
	}
	if strings.TrimSpace(doc.Text) == "" {
		return domain.WrapError(domain.ErrInvalidQuery, "ingest", fmt.Errorf("document text must not be empty"))
	}
	if err := uc.writer.Upsert(ctx, doc); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	vector, err := uc.embedder.EmbedQuery(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if err := uc.indexer.IndexDocument(ctx, doc, vector); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	return nil
}
