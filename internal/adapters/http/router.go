// Package httpadapter exposes the question pipeline over HTTP.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/asklegal/engine/internal/core/domain"
	"github.com/asklegal/engine/internal/core/ports"
	"github.com/asklegal/engine/internal/observability/metrics"
)

type Router struct {
	answerer ports.QuestionAnswerer
	metrics  *metrics.PipelineMetrics
	service  string
}

func NewRouter(answerer ports.QuestionAnswerer, pipelineMetrics *metrics.PipelineMetrics, service string) *Router {
	return &Router{
		answerer: answerer,
		metrics:  pipelineMetrics,
		service:  service,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ask", rt.ask)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Question    string `json:"question"`
	SessionID   string `json:"session_id"`
	UserContext struct {
		Industry       string `json:"industry"`
		BusinessSize   string `json:"business_size"`
		LegalStructure string `json:"legal_structure"`
		Location       string `json:"location"`
		EmployeeCount  int    `json:"employee_count"`
	} `json:"user_context"`
	Filters struct {
		Source       string `json:"source"`
		Jurisdiction string `json:"jurisdiction"`
		EffectiveOn  string `json:"effective_on"`
	} `json:"filters"`
}

type askResponse struct {
	Answer    string   `json:"answer"`
	SourceTag string   `json:"source_tag"`
	Excerpts  []string `json:"excerpts"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	constraints := domain.MetadataConstraints{
		Source:       req.Filters.Source,
		Jurisdiction: req.Filters.Jurisdiction,
	}
	if req.Filters.EffectiveOn != "" {
		day, err := time.Parse("2006-01-02", req.Filters.EffectiveOn)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "filters.effective_on must be YYYY-MM-DD"})
			return
		}
		constraints.EffectiveOn = day
	}

	ask := domain.AskRequest{
		Question:    req.Question,
		SessionID:   req.SessionID,
		Constraints: constraints,
	}
	profile := domain.BusinessProfile{
		Industry:       req.UserContext.Industry,
		BusinessSize:   req.UserContext.BusinessSize,
		LegalStructure: req.UserContext.LegalStructure,
		Location:       req.UserContext.Location,
		EmployeeCount:  req.UserContext.EmployeeCount,
	}
	// an absent user_context block must not read as an empty profile
	if profile != (domain.BusinessProfile{}) {
		ask.Profile = &profile
	}

	answer, err := rt.answerer.Answer(r.Context(), ask)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	excerpts := answer.Excerpts
	if excerpts == nil {
		excerpts = []string{}
	}
	writeJSON(w, http.StatusOK, askResponse{
		Answer:    answer.Text,
		SourceTag: string(answer.Source),
		Excerpts:  excerpts,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
