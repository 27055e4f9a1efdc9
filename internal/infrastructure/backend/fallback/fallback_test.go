package fallback

import (
	"context"
	"strings"
	"testing"

	"github.com/asklegal/engine/internal/core/domain"
)

func TestGenerateNeverFails(t *testing.T) {
	backend := New()
	questions := []string{
		"",
		"how do I register my bakery",
		"gst return deadline",
		"pf contribution for 25 employees",
		"breach of a supply agreement",
		"something entirely unrelated to business",
	}
	for _, q := range questions {
		answer, err := backend.Generate(context.Background(), domain.GenerationRequest{Question: q})
		if err != nil {
			t.Fatalf("Generate(%q) error = %v", q, err)
		}
		if answer == "" {
			t.Fatalf("Generate(%q) returned empty answer", q)
		}
		if !strings.Contains(answer, "not legal advice") {
			t.Fatalf("Generate(%q) missing disclaimer", q)
		}
	}
}

func TestGenerateMatchesTopic(t *testing.T) {
	backend := New()

	answer, err := backend.Generate(context.Background(), domain.GenerationRequest{Question: "What licenses do I need to register my shop?"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(answer, "Udyam registration") {
		t.Fatalf("expected registration topic, got %s", answer)
	}

	answer, err = backend.Generate(context.Background(), domain.GenerationRequest{Question: "unrecognized topic question"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(answer, "could not produce a specific answer") {
		t.Fatalf("expected generic response, got %s", answer)
	}
}
