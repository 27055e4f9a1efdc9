package usecase

import (
	"testing"
	"time"

	"github.com/asklegal/engine/internal/core/domain"
)

func testCorpus() []domain.Document {
	return []domain.Document{
		{ID: "doc-1", Source: "cbic", Jurisdiction: "central", EffectiveFrom: time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "doc-2", Source: "cbic", Jurisdiction: "delhi"},
		{ID: "doc-3", Source: "mca", Jurisdiction: "central", EffectiveTo: time.Date(2019, 3, 31, 0, 0, 0, 0, time.UTC)},
	}
}

func TestFilterByMetadataEmptyConstraintsPassAll(t *testing.T) {
	out := filterByMetadata(testCorpus(), domain.MetadataConstraints{})
	if len(out) != 3 {
		t.Fatalf("expected all documents through empty constraints, got %d", len(out))
	}
}

func TestFilterByMetadataExactMatch(t *testing.T) {
	out := filterByMetadata(testCorpus(), domain.MetadataConstraints{Source: "cbic", Jurisdiction: "central"})
	if len(out) != 1 || out[0].ID != "doc-1" {
		t.Fatalf("expected only doc-1, got %v", out)
	}
}

func TestFilterByMetadataDateRange(t *testing.T) {
	on := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	out := filterByMetadata(testCorpus(), domain.MetadataConstraints{EffectiveOn: on})
	// doc-3 expired in 2019; doc-1 and doc-2 remain.
	if len(out) != 2 {
		t.Fatalf("expected 2 documents effective on %s, got %d", on, len(out))
	}
	for _, doc := range out {
		if doc.ID == "doc-3" {
			t.Fatalf("expired document passed the date filter")
		}
	}
}
