package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/asklegal/engine/internal/core/domain"
)

// Per-source retrieval results. A source that errors or exceeds its timeout
// contributes an empty result instead of blocking the request.
type vectorResult struct {
	hits []domain.VectorHit
}

type keywordResult struct {
	hits     []domain.KeywordHit
	excerpts map[string]string
}

type metadataResult struct {
	matched map[string]struct{}
}

// retrieve fans the three candidate sources out concurrently, each under an
// independent timeout, joins them at a barrier and fuses the results.
func (uc *AnswerUseCase) retrieve(ctx context.Context, query domain.Query, constraints domain.MetadataConstraints) []domain.ScoredCandidate {
	vectorCh := make(chan vectorResult, 1)
	keywordCh := make(chan keywordResult, 1)
	metadataCh := make(chan metadataResult, 1)

	go func() {
		vectorCh <- uc.vectorCandidates(ctx, query, constraints)
	}()
	go func() {
		keywordCh <- uc.keywordCandidates(ctx, query)
	}()
	go func() {
		metadataCh <- uc.metadataCandidates(ctx, constraints)
	}()

	vector := <-vectorCh
	keyword := <-keywordCh
	metadata := <-metadataCh

	return fuseCandidates(vector.hits, keyword.hits, metadata.matched, keyword.excerpts, uc.limit)
}

func (uc *AnswerUseCase) vectorCandidates(ctx context.Context, query domain.Query, constraints domain.MetadataConstraints) vectorResult {
	sourceCtx, cancel := context.WithTimeout(ctx, uc.sourceTimeout)
	defer cancel()
	start := time.Now()

	vector, err := uc.embedder.EmbedQuery(sourceCtx, query.RawText)
	if err != nil {
		uc.observeSource("vector", start, err)
		return vectorResult{}
	}
	hits, err := uc.vectorDB.Search(sourceCtx, vector, uc.candidateLimit(), constraints)
	uc.observeSource("vector", start, err)
	if err != nil {
		return vectorResult{}
	}
	return vectorResult{hits: hits}
}

func (uc *AnswerUseCase) keywordCandidates(ctx context.Context, query domain.Query) keywordResult {
	sourceCtx, cancel := context.WithTimeout(ctx, uc.sourceTimeout)
	defer cancel()
	start := time.Now()

	docs, err := uc.corpus.ListDocuments(sourceCtx)
	uc.observeSource("keyword", start, err)
	if err != nil {
		return keywordResult{}
	}

	hits := scoreKeywords(query.RawText, docs)
	if len(hits) > uc.candidateLimit() {
		hits = hits[:uc.candidateLimit()]
	}

	excerpts := make(map[string]string, len(hits))
	byID := make(map[string]string, len(docs))
	for _, doc := range docs {
		byID[doc.ID] = doc.Text
	}
	for _, hit := range hits {
		excerpts[hit.DocumentID] = byID[hit.DocumentID]
	}
	return keywordResult{hits: hits, excerpts: excerpts}
}

func (uc *AnswerUseCase) metadataCandidates(ctx context.Context, constraints domain.MetadataConstraints) metadataResult {
	// Without constraints every document would match, which is no signal at
	// all; the metadata source then contributes nothing to fusion.
	if constraints.Empty() {
		return metadataResult{}
	}

	sourceCtx, cancel := context.WithTimeout(ctx, uc.sourceTimeout)
	defer cancel()
	start := time.Now()

	docs, err := uc.corpus.ListDocuments(sourceCtx)
	uc.observeSource("metadata", start, err)
	if err != nil {
		return metadataResult{}
	}
	return metadataResult{matched: matchedIDSet(filterByMetadata(docs, constraints))}
}

// candidateLimit over-fetches per source so fusion has a wider pool to rank.
func (uc *AnswerUseCase) candidateLimit() int {
	return uc.limit * 2
}

func (uc *AnswerUseCase) observeSource(source string, start time.Time, err error) {
	elapsed := time.Since(start)
	if uc.metrics != nil {
		uc.metrics.ObserveRetrievalSource(source, elapsed, err == nil)
	}
	if err != nil {
		slog.Warn("retrieval_source_failed", "source", source, "duration_ms", float64(elapsed.Microseconds())/1000.0, "error", err)
	}
}
