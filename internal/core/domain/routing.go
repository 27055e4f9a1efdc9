package domain

import "time"

type BackendID string

const (
	BackendLocal    BackendID = "local"
	BackendRemote   BackendID = "remote"
	BackendCalc     BackendID = "calc"
	BackendFallback BackendID = "fallback"
)

// RoutingDecision is the ordered fallback chain for one query. Backends is
// never empty and its last element is always BackendFallback.
type RoutingDecision struct {
	Backends []BackendID `json:"backends"`
	Reason   string      `json:"reason"`
}

// QueryScores holds the two routing heuristics, both in [0,1].
type QueryScores struct {
	Complexity      float64 `json:"complexity"`
	DomainRelevance float64 `json:"domain_relevance"`
}

// GenerationRequest is the uniform payload every backend adapter accepts.
type GenerationRequest struct {
	Question    string
	ContextText string
	Profile     *BusinessProfile
	MaxTokens   int
	Temperature float32
}

// AnswerEvent is the transcript record published after a question is answered.
type AnswerEvent struct {
	EventID     string    `json:"event_id"`
	SessionID   string    `json:"session_id"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	Source      SourceTag `json:"source"`
	Sensitivity string    `json:"sensitivity"`
	AnsweredAt  time.Time `json:"answered_at"`
}
