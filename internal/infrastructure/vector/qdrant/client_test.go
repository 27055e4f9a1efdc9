package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/asklegal/engine/internal/core/domain"
)

func TestSearchTranslatesConstraintsToFilter(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/points/search") {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"result":[{"score":0.91,"payload":{"doc_id":"gst-22","text":"Section 22 registration"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "legal_documents")
	hits, err := client.Search(context.Background(), []float32{0.1, 0.2}, 5, domain.MetadataConstraints{
		Jurisdiction: "maharashtra",
		EffectiveOn:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 1 || hits[0].DocumentID != "gst-22" || hits[0].Score != 0.91 {
		t.Fatalf("unexpected hits: %+v", hits)
	}

	raw, _ := json.Marshal(captured["filter"])
	filter := string(raw)
	if !strings.Contains(filter, "maharashtra") {
		t.Fatalf("filter missing jurisdiction: %s", filter)
	}
	if !strings.Contains(filter, "2024-06-01") {
		t.Fatalf("filter missing effective date: %s", filter)
	}
}

func TestSearchOmitsFilterWhenUnconstrained(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "legal_documents")
	if _, err := client.Search(context.Background(), []float32{0.5}, 3, domain.MetadataConstraints{}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, ok := captured["filter"]; ok {
		t.Fatalf("expected no filter for empty constraints, got %v", captured["filter"])
	}
}

func TestIndexDocumentCreatesCollectionOnce(t *testing.T) {
	var collectionCreates, upserts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/collections/legal_documents"):
			collectionCreates++
			_, _ = w.Write([]byte(`{"result":true}`))
		case r.Method == http.MethodPut && strings.Contains(r.URL.Path, "/points"):
			upserts++
			_, _ = w.Write([]byte(`{"result":{"status":"completed"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "legal_documents")
	doc := domain.Document{ID: "d1", Text: "text", Source: "gst_act", Jurisdiction: "central"}
	for i := 0; i < 2; i++ {
		if err := client.IndexDocument(context.Background(), doc, []float32{0.1, 0.2}); err != nil {
			t.Fatalf("IndexDocument() error = %v", err)
		}
	}
	if collectionCreates != 1 {
		t.Fatalf("collection created %d times, want 1", collectionCreates)
	}
	if upserts != 2 {
		t.Fatalf("upserts = %d, want 2", upserts)
	}
}

func TestSearchReturnsBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "legal_documents")
	_, err := client.Search(context.Background(), []float32{0.1}, 3, domain.MetadataConstraints{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "collection not found") {
		t.Fatalf("expected body in error, got %v", err)
	}
}
