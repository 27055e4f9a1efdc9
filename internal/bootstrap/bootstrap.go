// Package bootstrap wires the answer pipeline together from config.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/asklegal/engine/internal/config"
	"github.com/asklegal/engine/internal/core/ports"
	"github.com/asklegal/engine/internal/core/usecase"
	"github.com/asklegal/engine/internal/infrastructure/backend/calc"
	"github.com/asklegal/engine/internal/infrastructure/backend/fallback"
	"github.com/asklegal/engine/internal/infrastructure/backend/ollama"
	openaibackend "github.com/asklegal/engine/internal/infrastructure/backend/openai"
	memorycache "github.com/asklegal/engine/internal/infrastructure/cache/memory"
	"github.com/asklegal/engine/internal/infrastructure/queue/nats"
	"github.com/asklegal/engine/internal/infrastructure/repository/postgres"
	"github.com/asklegal/engine/internal/infrastructure/resilience"
	"github.com/asklegal/engine/internal/infrastructure/vector/chromem"
	"github.com/asklegal/engine/internal/infrastructure/vector/qdrant"
	"github.com/asklegal/engine/internal/observability/metrics"
)

type App struct {
	Config   config.Config
	Metrics  *metrics.PipelineMetrics
	AnswerUC ports.QuestionAnswerer
	IngestUC *usecase.IngestUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	pipelineMetrics := metrics.NewPipelineMetrics("asklegal-engine")
	runner := resilience.NewRunner(resilience.DefaultConfig())

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	corpus := postgres.NewCorpusRepository(db)
	if err := corpus.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	var cache ports.AnswerCache
	switch cfg.CacheBackend {
	case "memory":
		cache = memorycache.New()
	default:
		cache = postgres.NewCacheRepository(db)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, runner)
	embedder := ollama.NewEmbedder(ollamaClient)

	var vectorDB interface {
		ports.VectorSearcher
		ports.VectorIndexer
	}
	switch cfg.VectorBackend {
	case "embedded":
		store, err := chromem.NewStore(cfg.ChromemPath, cfg.QdrantCollection)
		if err != nil {
			return nil, fmt.Errorf("init embedded vector store: %w", err)
		}
		vectorDB = store
	default:
		vectorDB = qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	}

	transcripts, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{Runner: runner})
	if err != nil {
		return nil, fmt.Errorf("init transcript publisher: %w", err)
	}

	backends := []ports.Backend{
		calc.NewBackend(),
		ollama.NewBackend(ollamaClient),
		openaibackend.New(openaibackend.Config{
			APIKey:            cfg.OpenAIAPIKey,
			BaseURL:           cfg.OpenAIBaseURL,
			Model:             cfg.OpenAIModel,
			RequestsPerMinute: cfg.OpenAIRPM,
		}, runner),
		fallback.New(),
	}

	answerUC := usecase.NewAnswerUseCase(
		embedder,
		vectorDB,
		corpus,
		cache,
		backends,
		calc.NewDetector(),
		transcripts,
		metrics.NewObserver(pipelineMetrics, "asklegal-engine"),
		usecase.Options{
			Limit:          cfg.RetrievalLimit,
			SourceTimeout:  time.Duration(cfg.SourceTimeoutMS) * time.Millisecond,
			BackendTimeout: time.Duration(cfg.BackendTimeoutMS) * time.Millisecond,
			CacheTTL:       time.Duration(cfg.CacheTTLSeconds) * time.Second,
			MaxTokens:      cfg.MaxTokens,
			Temperature:    float32(cfg.Temperature),
		},
	)

	return &App{
		Config:   cfg,
		Metrics:  pipelineMetrics,
		AnswerUC: answerUC,
		IngestUC: usecase.NewIngestUseCase(embedder, vectorDB, corpus),

		closeFn: func() {
			transcripts.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
