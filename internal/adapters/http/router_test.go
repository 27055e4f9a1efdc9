package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/asklegal/engine/internal/core/domain"
	"github.com/asklegal/engine/internal/observability/metrics"
)

type stubAnswerer struct {
	gotReq domain.AskRequest
	answer *domain.Answer
	err    error
}

func (s *stubAnswerer) Answer(_ context.Context, req domain.AskRequest) (*domain.Answer, error) {
	s.gotReq = req
	return s.answer, s.err
}

func newTestHandler(stub *stubAnswerer) http.Handler {
	return NewRouter(stub, metrics.NewPipelineMetrics("test"), "test").Handler()
}

func TestAskReturnsAnswerPayload(t *testing.T) {
	stub := &stubAnswerer{answer: &domain.Answer{
		Text:     "Register above the threshold.",
		Source:   domain.SourceRAG,
		Excerpts: []string{"Section 22"},
	}}
	handler := newTestHandler(stub)

	body := `{
		"question": "When do I need GST registration?",
		"session_id": "s-1",
		"user_context": {"industry": "retail", "employee_count": 4},
		"filters": {"jurisdiction": "central", "effective_on": "2024-06-01"}
	}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp askResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SourceTag != "RAG" || resp.Answer == "" || len(resp.Excerpts) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if stub.gotReq.SessionID != "s-1" {
		t.Fatalf("request not propagated: %+v", stub.gotReq)
	}
	if stub.gotReq.Profile == nil || stub.gotReq.Profile.Industry != "retail" || stub.gotReq.Profile.EmployeeCount != 4 {
		t.Fatalf("profile not propagated: %+v", stub.gotReq.Profile)
	}
	if stub.gotReq.Constraints.Jurisdiction != "central" || stub.gotReq.Constraints.EffectiveOn.IsZero() {
		t.Fatalf("constraints not propagated: %+v", stub.gotReq.Constraints)
	}
}

func TestAskOmittedUserContextYieldsNilProfile(t *testing.T) {
	stub := &stubAnswerer{answer: &domain.Answer{Text: "ok", Source: domain.SourceLocal}}
	handler := newTestHandler(stub)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if stub.gotReq.Profile != nil {
		t.Fatalf("expected nil profile without user_context, got %+v", stub.gotReq.Profile)
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	handler := newTestHandler(&stubAnswerer{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"   "}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAskRejectsBadEffectiveOn(t *testing.T) {
	handler := newTestHandler(&stubAnswerer{})

	body := `{"question":"q","filters":{"effective_on":"June 2024"}}`
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAskMapsInvalidQueryError(t *testing.T) {
	stub := &stubAnswerer{err: domain.WrapError(domain.ErrInvalidQuery, "answer", errors.New("question must not be empty"))}
	handler := newTestHandler(stub)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/ask", strings.NewReader(`{"question":"q"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAskMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(&stubAnswerer{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/ask", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(&stubAnswerer{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}
