package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/asklegal/engine/internal/bootstrap"
	"github.com/asklegal/engine/internal/config"
	"github.com/asklegal/engine/internal/core/domain"
	"github.com/asklegal/engine/internal/observability/logging"
)

func main() {
	corpusPath := flag.String("corpus", "corpus.json", "path to a JSON array of legal documents")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("asklegal-seed", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	docs, err := loadCorpus(*corpusPath)
	if err != nil {
		log.Fatalf("load corpus error: %v", err)
	}

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	count, err := app.IngestUC.IngestDocuments(ctx, docs)
	if err != nil {
		log.Fatalf("seed error after %d documents: %v", count, err)
	}
	slog.Info("corpus_seeded", "documents", count)
}

func loadCorpus(path string) ([]domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var docs []domain.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return docs, nil
}
