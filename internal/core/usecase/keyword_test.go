package usecase

import (
	"testing"

	"github.com/asklegal/engine/internal/core/domain"
)

func TestScoreKeywordsRanksByOverlap(t *testing.T) {
	docs := []domain.Document{
		{ID: "doc-1", Text: "GST registration threshold for small business"},
		{ID: "doc-2", Text: "GST GST GST registration registration threshold"},
		{ID: "doc-3", Text: "employment contract termination notice"},
	}

	hits := scoreKeywords("gst registration threshold", docs)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits (zero-overlap doc omitted), got %d", len(hits))
	}
	if hits[0].DocumentID != "doc-2" {
		t.Fatalf("expected doc-2 with higher term frequency first, got %s", hits[0].DocumentID)
	}
	if hits[1].DocumentID != "doc-1" {
		t.Fatalf("expected doc-1 second, got %s", hits[1].DocumentID)
	}
}

func TestScoreKeywordsZeroOverlapOmitted(t *testing.T) {
	docs := []domain.Document{{ID: "doc-1", Text: "trademark infringement remedies"}}
	if hits := scoreKeywords("gst threshold", docs); len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestScoreKeywordsTieBreakByDocumentID(t *testing.T) {
	docs := []domain.Document{
		{ID: "doc-b", Text: "udyam registration"},
		{ID: "doc-a", Text: "udyam registration"},
	}
	hits := scoreKeywords("udyam registration", docs)
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].DocumentID != "doc-a" {
		t.Fatalf("expected ascending doc id tie-break, got %s first", hits[0].DocumentID)
	}
}

func TestTokenizeDropsPunctuationAndShortTokens(t *testing.T) {
	tokens := tokenize("Is a GST no. required, or not?")
	for _, token := range tokens {
		if len(token) < minTokenLen {
			t.Fatalf("short token %q survived", token)
		}
	}
	want := []string{"required", "not"}
	for _, token := range want {
		found := false
		for _, got := range tokens {
			if got == token {
				found = true
			}
		}
		if !found {
			t.Fatalf("expected token %q in %v", token, tokens)
		}
	}
}

func TestTokenizeCountsRunesNotBytes(t *testing.T) {
	// two Devanagari letters occupy six bytes but are still a short token
	tokens := tokenize("कर नगर")
	if len(tokens) != 1 || tokens[0] != "नगर" {
		t.Fatalf("expected only the three-letter token, got %v", tokens)
	}
}
