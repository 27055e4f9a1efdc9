package usecase

import (
	"sort"

	"github.com/asklegal/engine/internal/core/domain"
)

// Fusion weights. Fixed constants summing to 1.0; fused_score =
// wVector*vector + wKeyword*keyword + wMetadata*(1 if matched else 0).
const (
	wVector   = 0.5
	wKeyword  = 0.3
	wMetadata = 0.2
)

// fuseCandidates merges the three candidate sources into one ranked list.
// Component scores are max-normalized per source before weighting so the
// fixed weights compare like with like. Missing components score zero.
// All-empty inputs produce an empty list, not an error: "no context found"
// is a valid outcome.
func fuseCandidates(
	vectorHits []domain.VectorHit,
	keywordHits []domain.KeywordHit,
	metadataMatches map[string]struct{},
	excerpts map[string]string,
	limit int,
) []domain.ScoredCandidate {
	union := make(map[string]*domain.ScoredCandidate, len(vectorHits)+len(keywordHits)+len(metadataMatches))
	candidate := func(id string) *domain.ScoredCandidate {
		if c, ok := union[id]; ok {
			return c
		}
		c := &domain.ScoredCandidate{DocumentID: id}
		union[id] = c
		return c
	}

	maxVector := 0.0
	for _, hit := range vectorHits {
		c := candidate(hit.DocumentID)
		c.VectorScore = hit.Score
		if c.Excerpt == "" {
			c.Excerpt = hit.Text
		}
		if hit.Score > maxVector {
			maxVector = hit.Score
		}
	}
	maxKeyword := 0.0
	for _, hit := range keywordHits {
		candidate(hit.DocumentID).KeywordScore = hit.Score
		if hit.Score > maxKeyword {
			maxKeyword = hit.Score
		}
	}
	for id := range metadataMatches {
		candidate(id).MetadataMatch = true
	}

	out := make([]domain.ScoredCandidate, 0, len(union))
	for _, c := range union {
		vector := normalizeScore(c.VectorScore, maxVector)
		keyword := normalizeScore(c.KeywordScore, maxKeyword)
		metadata := 0.0
		if c.MetadataMatch {
			metadata = 1.0
		}
		c.FusedScore = wVector*vector + wKeyword*keyword + wMetadata*metadata
		if c.Excerpt == "" {
			c.Excerpt = excerpts[c.DocumentID]
		}
		out = append(out, *c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].FusedScore != out[j].FusedScore {
			return out[i].FusedScore > out[j].FusedScore
		}
		return out[i].DocumentID < out[j].DocumentID
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func normalizeScore(v, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return v / max
}
