package ports

import (
	"context"

	"github.com/asklegal/engine/internal/core/domain"
)

// Embedder converts text to a fixed-length vector. External capability,
// never implemented here.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorSearcher is the nearest-neighbor index accessor. Constraints act as a
// pre-filter when the index supports payload filtering.
type VectorSearcher interface {
	Search(ctx context.Context, vector []float32, limit int, constraints domain.MetadataConstraints) ([]domain.VectorHit, error)
}

// VectorIndexer writes documents with their embeddings into the
// nearest-neighbor index. Used by the seeding path only.
type VectorIndexer interface {
	IndexDocument(ctx context.Context, doc domain.Document, vector []float32) error
}

// DocumentCorpus reads the legal document corpus used by the in-process
// keyword scorer and the metadata filter.
type DocumentCorpus interface {
	ListDocuments(ctx context.Context) ([]domain.Document, error)
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}

// CorpusWriter persists corpus documents. Implemented alongside
// DocumentCorpus by the relational repository.
type CorpusWriter interface {
	Upsert(ctx context.Context, doc domain.Document) error
}

// AnswerCache memoizes answers by content-hash key. Get treats expired
// entries as misses. Implementations must be safe for concurrent use; the
// Get/Put pair is not required to be atomic as a unit.
type AnswerCache interface {
	Get(ctx context.Context, key string) (domain.CacheEntry, bool, error)
	Put(ctx context.Context, entry domain.CacheEntry) error
}

// Backend turns a generation request into answer text. Adapters map their
// native failure modes onto domain error kinds so the fallback loop can
// advance uniformly.
type Backend interface {
	ID() domain.BackendID
	Available() bool
	Generate(ctx context.Context, req domain.GenerationRequest) (string, error)
}

// CalculationDetector reports whether a question is a deterministic
// financial calculation. Owned by the calculation backend, consumed by the
// router so detection and execution cannot drift apart.
type CalculationDetector interface {
	Detect(question string) bool
}

// TranscriptPublisher fans answered questions out to the transcript store.
// Publishing is best-effort; the pipeline never fails a request over it.
type TranscriptPublisher interface {
	PublishAnswerRecorded(ctx context.Context, event domain.AnswerEvent) error
}
