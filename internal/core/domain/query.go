package domain

import "strings"

// Query is the immutable request-scoped view of an incoming question.
// NormalizedText is the cache key material: lower-cased, whitespace-collapsed.
type Query struct {
	RawText        string `json:"raw_text"`
	NormalizedText string `json:"normalized_text"`
	SessionID      string `json:"session_id"`
}

func NewQuery(rawText, sessionID string) Query {
	return Query{
		RawText:        rawText,
		NormalizedText: NormalizeQuestion(rawText),
		SessionID:      sessionID,
	}
}

// NormalizeQuestion lower-cases and collapses runs of whitespace to single spaces.
func NormalizeQuestion(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// BusinessProfile carries optional caller-supplied business context used by the
// domain relevance scorer and the calculation prompts.
type BusinessProfile struct {
	Industry       string `json:"industry,omitempty"`
	BusinessSize   string `json:"business_size,omitempty"`
	LegalStructure string `json:"legal_structure,omitempty"`
	Location       string `json:"location,omitempty"`
	EmployeeCount  int    `json:"employee_count,omitempty"`
}

// AskRequest is the single inbound operation's payload. Constraints are
// advisory retrieval filters; the zero value applies none.
type AskRequest struct {
	Question    string              `json:"question"`
	SessionID   string              `json:"session_id"`
	Profile     *BusinessProfile    `json:"business_profile,omitempty"`
	Constraints MetadataConstraints `json:"-"`
}

type SourceTag string

const (
	SourceCalc     SourceTag = "CALC"
	SourceRAG      SourceTag = "RAG"
	SourceLocal    SourceTag = "LOCAL"
	SourceRemote   SourceTag = "REMOTE"
	SourceFallback SourceTag = "FALLBACK"
	SourceCached   SourceTag = "CACHED"
)

// Answer is what the pipeline hands back to its collaborators.
type Answer struct {
	Text     string    `json:"text"`
	Source   SourceTag `json:"source"`
	Excerpts []string  `json:"excerpts"`
}
