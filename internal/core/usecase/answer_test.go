package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/asklegal/engine/internal/core/domain"
	"github.com/asklegal/engine/internal/core/ports"
)

type fakeEmbedder struct {
	vector []float32
	block  bool
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, _ string) ([]float32, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.vector == nil {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	return f.vector, nil
}

type fakeVector struct {
	hits []domain.VectorHit
	err  error
}

func (f *fakeVector) Search(context.Context, []float32, int, domain.MetadataConstraints) ([]domain.VectorHit, error) {
	return f.hits, f.err
}

type fakeCorpus struct {
	docs []domain.Document
}

func (f *fakeCorpus) ListDocuments(context.Context) ([]domain.Document, error) {
	return f.docs, nil
}

func (f *fakeCorpus) GetByID(_ context.Context, id string) (*domain.Document, error) {
	for i := range f.docs {
		if f.docs[i].ID == id {
			return &f.docs[i], nil
		}
	}
	return nil, domain.ErrInvalidQuery
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]domain.CacheEntry
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]domain.CacheEntry{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (domain.CacheEntry, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key]
	if !ok || entry.Expired(time.Now()) {
		return domain.CacheEntry{}, false, nil
	}
	return entry, true, nil
}

func (f *fakeCache) Put(_ context.Context, entry domain.CacheEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.Key] = entry
	return nil
}

type fakeBackend struct {
	id        domain.BackendID
	available bool
	text      string
	err       error
	calls     int
	order     *[]domain.BackendID
}

func (f *fakeBackend) ID() domain.BackendID { return f.id }
func (f *fakeBackend) Available() bool      { return f.available }

func (f *fakeBackend) Generate(context.Context, domain.GenerationRequest) (string, error) {
	f.calls++
	if f.order != nil {
		*f.order = append(*f.order, f.id)
	}
	return f.text, f.err
}

type fakeDetector bool

func (f fakeDetector) Detect(string) bool { return bool(f) }

type fakePublisher struct {
	events []domain.AnswerEvent
}

func (f *fakePublisher) PublishAnswerRecorded(_ context.Context, event domain.AnswerEvent) error {
	f.events = append(f.events, event)
	return nil
}

func gstCorpus() []domain.Document {
	return []domain.Document{
		{ID: "doc-gst", Text: "GST registration is mandatory once aggregate turnover crosses the threshold of 40 lakh for goods.", Source: "cbic", Jurisdiction: "central"},
		{ID: "doc-labour", Text: "The Industrial Disputes Act governs retrenchment procedure.", Source: "labour", Jurisdiction: "central"},
	}
}

func newTestUseCase(backends []ports.Backend, detector ports.CalculationDetector, cache ports.AnswerCache) *AnswerUseCase {
	return NewAnswerUseCase(
		&fakeEmbedder{},
		&fakeVector{hits: []domain.VectorHit{{DocumentID: "doc-gst", Text: "GST registration threshold excerpt", Score: 0.9}}},
		&fakeCorpus{docs: gstCorpus()},
		cache,
		backends,
		detector,
		nil,
		nil,
		Options{SourceTimeout: 200 * time.Millisecond, BackendTimeout: 200 * time.Millisecond, CacheTTL: time.Minute},
	)
}

func terminalFallback() *fakeBackend {
	return &fakeBackend{id: domain.BackendFallback, available: true, text: "General legal guidance. This is not a substitute for professional advice."}
}

func TestAnswerRejectsEmptyQuestion(t *testing.T) {
	uc := newTestUseCase([]ports.Backend{terminalFallback()}, fakeDetector(false), newFakeCache())
	_, err := uc.Answer(context.Background(), domain.AskRequest{Question: "   "})
	if !domain.IsKind(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestAnswerPublicQuestionUsesTextBackend(t *testing.T) {
	local := &fakeBackend{id: domain.BackendLocal, available: true, text: "The threshold is 40 lakh for goods and 20 lakh for services."}
	uc := newTestUseCase([]ports.Backend{local, terminalFallback()}, fakeDetector(false), newFakeCache())

	answer, err := uc.Answer(context.Background(), domain.AskRequest{Question: "What is the GST registration threshold?", SessionID: "s-1"})
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if answer.Text == "" {
		t.Fatalf("expected non-empty answer")
	}
	if answer.Source == domain.SourceCalc {
		t.Fatalf("plain question routed to calculation engine")
	}
	switch answer.Source {
	case domain.SourceLocal, domain.SourceRemote, domain.SourceRAG:
	default:
		t.Fatalf("unexpected source tag %s", answer.Source)
	}
	if len(answer.Excerpts) == 0 {
		t.Fatalf("expected retrieved excerpts")
	}
}

func TestAnswerHighlySensitiveNeverCallsRemote(t *testing.T) {
	local := &fakeBackend{id: domain.BackendLocal, available: true, err: domain.ErrTemporary}
	remote := &fakeBackend{id: domain.BackendRemote, available: true, text: "should never run"}
	uc := newTestUseCase([]ports.Backend{local, remote, terminalFallback()}, fakeDetector(false), newFakeCache())

	answer, err := uc.Answer(context.Background(), domain.AskRequest{
		Question:  "My case no. 1234 in the Delhi High Court involves a dispute",
		SessionID: "s-2",
	})
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if remote.calls != 0 {
		t.Fatalf("remote backend called %d times for highly sensitive query", remote.calls)
	}
	if answer.Text == "" {
		t.Fatalf("expected an answer despite local failure")
	}
	if answer.Source != domain.SourceFallback {
		t.Fatalf("expected terminal fallback to answer, got %s", answer.Source)
	}
}

func TestAnswerCalculationQueryRoutesToCalcFirst(t *testing.T) {
	var order []domain.BackendID
	calc := &fakeBackend{id: domain.BackendCalc, available: true, text: "Tax breakdown: ...", order: &order}
	local := &fakeBackend{id: domain.BackendLocal, available: true, text: "local", order: &order}
	remote := &fakeBackend{id: domain.BackendRemote, available: true, text: "remote", order: &order}
	uc := newTestUseCase([]ports.Backend{calc, local, remote, terminalFallback()}, fakeDetector(true), newFakeCache())

	answer, err := uc.Answer(context.Background(), domain.AskRequest{
		Question:  "Turnover 1 crore, 20 employees, salary 20 lakh",
		SessionID: "s-3",
	})
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if len(order) == 0 || order[0] != domain.BackendCalc {
		t.Fatalf("expected calculation engine invoked first, order=%v", order)
	}
	if answer.Source != domain.SourceCalc {
		t.Fatalf("expected CALC source tag, got %s", answer.Source)
	}
}

func TestAnswerIdenticalQueryServedFromCache(t *testing.T) {
	local := &fakeBackend{id: domain.BackendLocal, available: true, text: "cached answer body"}
	uc := newTestUseCase([]ports.Backend{local, terminalFallback()}, fakeDetector(false), newFakeCache())
	req := domain.AskRequest{Question: "What is the GST registration threshold?", SessionID: "s-4"}

	first, err := uc.Answer(context.Background(), req)
	if err != nil {
		t.Fatalf("first answer failed: %v", err)
	}
	second, err := uc.Answer(context.Background(), req)
	if err != nil {
		t.Fatalf("second answer failed: %v", err)
	}
	if second.Source != domain.SourceCached {
		t.Fatalf("expected CACHED source, got %s", second.Source)
	}
	if second.Text != first.Text {
		t.Fatalf("cached answer differs: %q != %q", second.Text, first.Text)
	}
	if local.calls != 1 {
		t.Fatalf("backend called %d times, expected 1", local.calls)
	}
}

func TestAnswerDegenerateResponseAdvancesChain(t *testing.T) {
	local := &fakeBackend{id: domain.BackendLocal, available: true, text: "Error: model not loaded"}
	uc := newTestUseCase([]ports.Backend{local, terminalFallback()}, fakeDetector(false), newFakeCache())

	answer, err := uc.Answer(context.Background(), domain.AskRequest{Question: "hello there legal question", SessionID: "s-5"})
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if answer.Source != domain.SourceFallback {
		t.Fatalf("expected fallback after degenerate local response, got %s", answer.Source)
	}
}

func TestAnswerRetrievalTimeoutStillAnswers(t *testing.T) {
	local := &fakeBackend{id: domain.BackendLocal, available: true, text: "answered without context"}
	uc := NewAnswerUseCase(
		&fakeEmbedder{block: true},
		&fakeVector{},
		&fakeCorpus{},
		newFakeCache(),
		[]ports.Backend{local, terminalFallback()},
		fakeDetector(false),
		nil,
		nil,
		Options{SourceTimeout: 20 * time.Millisecond, BackendTimeout: 200 * time.Millisecond, CacheTTL: time.Minute},
	)

	answer, err := uc.Answer(context.Background(), domain.AskRequest{Question: "anything at all here", SessionID: "s-6"})
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if len(answer.Excerpts) != 0 {
		t.Fatalf("expected no excerpts after retrieval timeout")
	}
	if answer.Source != domain.SourceLocal {
		t.Fatalf("expected LOCAL tag without context, got %s", answer.Source)
	}
}

func TestAnswerPublishesRedactedTranscript(t *testing.T) {
	local := &fakeBackend{id: domain.BackendLocal, available: true, text: "ok"}
	publisher := &fakePublisher{}
	uc := NewAnswerUseCase(
		&fakeEmbedder{},
		&fakeVector{},
		&fakeCorpus{docs: gstCorpus()},
		newFakeCache(),
		[]ports.Backend{local, terminalFallback()},
		fakeDetector(false),
		publisher,
		nil,
		Options{SourceTimeout: 200 * time.Millisecond, BackendTimeout: 200 * time.Millisecond, CacheTTL: time.Minute},
	)

	_, err := uc.Answer(context.Background(), domain.AskRequest{
		Question:  "My bank account 1234567890 was frozen",
		SessionID: "s-7",
	})
	if err != nil {
		t.Fatalf("answer failed: %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 transcript event, got %d", len(publisher.events))
	}
	if strings.Contains(publisher.events[0].Question, "1234567890") {
		t.Fatalf("transcript leaked account number: %q", publisher.events[0].Question)
	}
}

func TestCacheKeyScopedBySessionForSensitiveQueries(t *testing.T) {
	public := domain.NewQuery("what is gst", "s-a")
	if cacheKey(public, domain.SensitivityPublic) != cacheKey(domain.NewQuery("what is gst", "s-b"), domain.SensitivityPublic) {
		t.Fatalf("public cache keys should be session-independent")
	}
	sensitiveA := cacheKey(domain.NewQuery("my salary dispute", "s-a"), domain.SensitivitySensitive)
	sensitiveB := cacheKey(domain.NewQuery("my salary dispute", "s-b"), domain.SensitivitySensitive)
	if sensitiveA == sensitiveB {
		t.Fatalf("sensitive cache keys should be session-scoped")
	}
}
