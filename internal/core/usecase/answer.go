package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/asklegal/engine/internal/core/domain"
	"github.com/asklegal/engine/internal/core/ports"
	"github.com/asklegal/engine/internal/core/privacy"
)

// PipelineObserver receives pipeline measurements. Nil-safe: a nil observer
// disables instrumentation (test doubles stay plain).
type PipelineObserver interface {
	RecordSensitivity(level string)
	RecordCacheLookup(hit bool)
	RecordRoute(primary string)
	RecordBackendAttempt(backend string, outcome string)
	ObserveRetrievalSource(source string, duration time.Duration, ok bool)
	ObserveAnswer(source string, duration time.Duration)
}

// Options bounds the pipeline's latency and output volume.
type Options struct {
	Limit          int
	SourceTimeout  time.Duration
	BackendTimeout time.Duration
	CacheTTL       time.Duration
	MaxTokens      int
	Temperature    float32
}

func (o Options) normalize() Options {
	if o.Limit <= 0 {
		o.Limit = 5
	}
	if o.SourceTimeout <= 0 {
		o.SourceTimeout = 2 * time.Second
	}
	if o.BackendTimeout <= 0 {
		o.BackendTimeout = 30 * time.Second
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = time.Hour
	}
	if o.MaxTokens <= 0 {
		o.MaxTokens = 1024
	}
	return o
}

// AnswerUseCase is the retrieval-and-routing pipeline orchestrator. All
// collaborators are injected; the use case holds no global state.
type AnswerUseCase struct {
	embedder    ports.Embedder
	vectorDB    ports.VectorSearcher
	corpus      ports.DocumentCorpus
	cache       ports.AnswerCache
	backends    map[domain.BackendID]ports.Backend
	detector    ports.CalculationDetector
	transcripts ports.TranscriptPublisher
	metrics     PipelineObserver

	limit          int
	sourceTimeout  time.Duration
	backendTimeout time.Duration
	cacheTTL       time.Duration
	maxTokens      int
	temperature    float32
}

func NewAnswerUseCase(
	embedder ports.Embedder,
	vectorDB ports.VectorSearcher,
	corpus ports.DocumentCorpus,
	cache ports.AnswerCache,
	backends []ports.Backend,
	detector ports.CalculationDetector,
	transcripts ports.TranscriptPublisher,
	metrics PipelineObserver,
	opts Options,
) *AnswerUseCase {
	opts = opts.normalize()
	byID := make(map[domain.BackendID]ports.Backend, len(backends))
	for _, backend := range backends {
		byID[backend.ID()] = backend
	}
	return &AnswerUseCase{
		embedder:       embedder,
		vectorDB:       vectorDB,
		corpus:         corpus,
		cache:          cache,
		backends:       byID,
		detector:       detector,
		transcripts:    transcripts,
		metrics:        metrics,
		limit:          opts.Limit,
		sourceTimeout:  opts.SourceTimeout,
		backendTimeout: opts.BackendTimeout,
		cacheTTL:       opts.CacheTTL,
		maxTokens:      opts.MaxTokens,
		temperature:    opts.Temperature,
	}
}

// Answer runs the full pipeline: validate, classify, cache lookup, retrieve,
// route, and walk the fallback chain until a backend produces a usable
// answer. The terminal fallback backend guarantees it always returns one.
func (uc *AnswerUseCase) Answer(ctx context.Context, req domain.AskRequest) (*domain.Answer, error) {
	start := time.Now()

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidQuery, "answer", fmt.Errorf("question is empty"))
	}

	query := domain.NewQuery(question, req.SessionID)
	sensitivity := privacy.Classify(question)
	if uc.metrics != nil {
		uc.metrics.RecordSensitivity(sensitivity.String())
	}

	key := cacheKey(query, sensitivity)
	if entry, hit, err := uc.cache.Get(ctx, key); err != nil {
		slog.Warn("cache_get_failed", "error", err)
	} else {
		if uc.metrics != nil {
			uc.metrics.RecordCacheLookup(hit)
		}
		if hit {
			return &domain.Answer{Text: entry.Answer, Source: domain.SourceCached, Excerpts: entry.Excerpts}, nil
		}
	}

	candidates := uc.retrieve(ctx, query, req.Constraints)
	excerpts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.Excerpt != "" {
			excerpts = append(excerpts, c.Excerpt)
		}
	}
	contextText := strings.Join(excerpts, "\n\n")

	scores := scoreQuery(question, contextText, req.Profile)
	isCalculation := uc.detector != nil && uc.detector.Detect(question)
	decision := routeQuery(scores, sensitivity, isCalculation, uc.remoteAvailable())

	slog.Info("query_routed",
		"question", privacy.Redact(question),
		"sensitivity", sensitivity.String(),
		"complexity", scores.Complexity,
		"domain_relevance", scores.DomainRelevance,
		"backends", backendNames(decision.Backends),
		"reason", decision.Reason,
	)
	if uc.metrics != nil && len(decision.Backends) > 0 {
		uc.metrics.RecordRoute(string(decision.Backends[0]))
	}

	answer, err := uc.generateWithFallback(ctx, decision, domain.GenerationRequest{
		Question:    question,
		ContextText: contextText,
		Profile:     req.Profile,
		MaxTokens:   uc.maxTokens,
		Temperature: uc.temperature,
	}, len(excerpts) > 0)
	if err != nil {
		return nil, err
	}
	answer.Excerpts = excerpts

	uc.storeAndPublish(ctx, key, query, sensitivity, answer)
	if uc.metrics != nil {
		uc.metrics.ObserveAnswer(string(answer.Source), time.Since(start))
	}
	return answer, nil
}

// generateWithFallback invokes backends strictly in decision order, each
// under its own timeout. Timeouts, errors and degenerate responses all
// advance the chain the same way.
func (uc *AnswerUseCase) generateWithFallback(
	ctx context.Context,
	decision domain.RoutingDecision,
	req domain.GenerationRequest,
	hasContext bool,
) (*domain.Answer, error) {
	var lastErr error
	for _, id := range decision.Backends {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		backend, ok := uc.backends[id]
		if !ok || !backend.Available() {
			uc.recordAttempt(id, "unavailable")
			lastErr = domain.WrapError(domain.ErrBackendUnavailable, string(id), fmt.Errorf("backend not available"))
			continue
		}

		backendCtx, cancel := context.WithTimeout(ctx, uc.backendTimeout)
		text, err := backend.Generate(backendCtx, req)
		cancel()

		if err != nil {
			uc.recordAttempt(id, "error")
			slog.Warn("backend_failed", "backend", string(id), "error", err)
			lastErr = err
			continue
		}
		if degenerateResponse(text) {
			uc.recordAttempt(id, "degenerate")
			slog.Warn("backend_degenerate_response", "backend", string(id))
			lastErr = domain.WrapError(domain.ErrEmptyResponse, string(id), fmt.Errorf("degenerate response"))
			continue
		}

		uc.recordAttempt(id, "ok")
		return &domain.Answer{Text: text, Source: sourceTagFor(id, hasContext)}, nil
	}

	// Unreachable when the terminal fallback is wired; kept for callers that
	// construct a use case without it.
	if lastErr == nil {
		lastErr = fmt.Errorf("no backend configured")
	}
	return nil, domain.WrapError(domain.ErrBackendUnavailable, "generate", lastErr)
}

func (uc *AnswerUseCase) storeAndPublish(ctx context.Context, key string, query domain.Query, sensitivity domain.SensitivityLevel, answer *domain.Answer) {
	entry := domain.CacheEntry{
		Key:       key,
		Answer:    answer.Text,
		Source:    answer.Source,
		Excerpts:  answer.Excerpts,
		CreatedAt: time.Now(),
		TTL:       uc.cacheTTL,
	}
	if err := uc.cache.Put(ctx, entry); err != nil {
		slog.Warn("cache_put_failed", "error", err)
	}

	if uc.transcripts == nil {
		return
	}
	recorded := query.RawText
	if sensitivity != domain.SensitivityPublic {
		recorded = privacy.Redact(recorded)
	}
	event := domain.AnswerEvent{
		EventID:     uuid.NewString(),
		SessionID:   query.SessionID,
		Question:    recorded,
		Answer:      answer.Text,
		Source:      answer.Source,
		Sensitivity: sensitivity.String(),
		AnsweredAt:  time.Now().UTC(),
	}
	if err := uc.transcripts.PublishAnswerRecorded(ctx, event); err != nil {
		slog.Warn("transcript_publish_failed", "error", err)
	}
}

func (uc *AnswerUseCase) remoteAvailable() bool {
	backend, ok := uc.backends[domain.BackendRemote]
	return ok && backend.Available()
}

func (uc *AnswerUseCase) recordAttempt(id domain.BackendID, outcome string) {
	if uc.metrics != nil {
		uc.metrics.RecordBackendAttempt(string(id), outcome)
	}
}

// cacheKey hashes the normalized question. Non-public queries salt the key
// with the session id so one caller's answer is never replayed to another;
// public legal information stays shared across sessions.
func cacheKey(query domain.Query, sensitivity domain.SensitivityLevel) string {
	material := query.NormalizedText
	if sensitivity != domain.SensitivityPublic {
		material += "|" + query.SessionID
	}
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}

// Known markers of a backend that answered with an error string instead of
// failing properly.
var errorMarkers = []string{"Error:", "ERROR:", "[error]"}

func degenerateResponse(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}
	for _, marker := range errorMarkers {
		if strings.Contains(trimmed, marker) {
			return true
		}
	}
	return false
}

func sourceTagFor(id domain.BackendID, hasContext bool) domain.SourceTag {
	switch id {
	case domain.BackendCalc:
		return domain.SourceCalc
	case domain.BackendFallback:
		return domain.SourceFallback
	case domain.BackendRemote:
		if hasContext {
			return domain.SourceRAG
		}
		return domain.SourceRemote
	default:
		if hasContext {
			return domain.SourceRAG
		}
		return domain.SourceLocal
	}
}

func backendNames(ids []domain.BackendID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
