package domain

import "time"

// Document is a corpus entry as exposed by the corpus accessor.
type Document struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Source        string    `json:"source,omitempty"`
	Jurisdiction  string    `json:"jurisdiction,omitempty"`
	EffectiveFrom time.Time `json:"effective_from,omitempty"`
	EffectiveTo   time.Time `json:"effective_to,omitempty"`
}

// MetadataConstraints narrows candidates by exact-match attributes. The zero
// value passes everything through.
type MetadataConstraints struct {
	Source       string
	Jurisdiction string
	EffectiveOn  time.Time
}

func (c MetadataConstraints) Empty() bool {
	return c.Source == "" && c.Jurisdiction == "" && c.EffectiveOn.IsZero()
}

// VectorHit is one nearest-neighbor result from the vector index.
type VectorHit struct {
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	Score      float64 `json:"score"`
}

// KeywordHit is one term-overlap result from the in-process keyword scorer.
type KeywordHit struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
}

// ScoredCandidate is a fused retrieval result. FusedScore is derived from the
// component scores and never persisted on its own.
type ScoredCandidate struct {
	DocumentID    string  `json:"document_id"`
	Excerpt       string  `json:"excerpt"`
	VectorScore   float64 `json:"vector_score"`
	KeywordScore  float64 `json:"keyword_score"`
	MetadataMatch bool    `json:"metadata_match"`
	FusedScore    float64 `json:"fused_score"`
}
