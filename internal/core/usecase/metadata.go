package usecase

import "github.com/asklegal/engine/internal/core/domain"

// filterByMetadata narrows documents to those matching every set constraint.
// Empty constraints pass everything through. Used both as a pre-filter and,
// via matchedIDSet, as the advisory match flag folded into fusion scoring.
func filterByMetadata(docs []domain.Document, constraints domain.MetadataConstraints) []domain.Document {
	if constraints.Empty() {
		return docs
	}
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if matchesConstraints(doc, constraints) {
			out = append(out, doc)
		}
	}
	return out
}

func matchesConstraints(doc domain.Document, constraints domain.MetadataConstraints) bool {
	if constraints.Source != "" && doc.Source != constraints.Source {
		return false
	}
	if constraints.Jurisdiction != "" && doc.Jurisdiction != constraints.Jurisdiction {
		return false
	}
	if !constraints.EffectiveOn.IsZero() {
		if !doc.EffectiveFrom.IsZero() && constraints.EffectiveOn.Before(doc.EffectiveFrom) {
			return false
		}
		if !doc.EffectiveTo.IsZero() && constraints.EffectiveOn.After(doc.EffectiveTo) {
			return false
		}
	}
	return true
}

func matchedIDSet(docs []domain.Document) map[string]struct{} {
	set := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		set[doc.ID] = struct{}{}
	}
	return set
}
