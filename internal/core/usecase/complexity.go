package usecase

import (
	"strings"

	"github.com/asklegal/engine/internal/core/domain"
)

// Complexity heuristic thresholds. A query at or beyond lengthThreshold
// characters saturates the length factor; keyword factors saturate at
// maxKeywordMatches occurrences.
const (
	lengthThreshold   = 100
	contextThreshold  = 200
	maxKeywordMatches = 3
)

var analyticalKeywords = []string{
	"analyze", "evaluate", "compare", "detailed", "comprehensive",
	"complex", "intricate", "nuanced", "interpret", "assess",
}

var legalDomainKeywords = []string{
	"contract", "litigation", "compliance", "regulation", "jurisdiction",
	"precedent", "statute", "tort", "liability", "damages",
}

var businessDomainKeywords = []string{
	"msme", "udyam", "udyog aadhar", "micro enterprise", "small enterprise",
	"medium enterprise", "gst", "mudra", "startup india", "sidbi",
	"labour law", "employee contract", "vendor agreement", "ip protection",
	"registration", "license", "tax", "loan", "credit", "insurance",
	"export", "import", "manufacturing", "retail", "services", "technology",
	"healthcare", "proprietary", "partnership", "llp", "private limited",
}

// scoreQuery produces the two routing heuristics, both in [0,1]. Pure
// function of its inputs: no hidden state.
func scoreQuery(question, contextText string, profile *domain.BusinessProfile) domain.QueryScores {
	return domain.QueryScores{
		Complexity:      scoreComplexity(question, contextText),
		DomainRelevance: scoreDomainRelevance(question, profile),
	}
}

// scoreComplexity = 0.3*length + 0.3*analytical + 0.2*legal + 0.2*context.
func scoreComplexity(question, contextText string) float64 {
	lower := strings.ToLower(question)

	score := 0.3 * capRatio(float64(len(question)), lengthThreshold)
	score += 0.3 * capRatio(float64(countKeywordMatches(lower, analyticalKeywords)), maxKeywordMatches)
	score += 0.2 * capRatio(float64(countKeywordMatches(lower, legalDomainKeywords)), maxKeywordMatches)
	if contextText != "" {
		score += 0.2 * capRatio(float64(len(contextText)), contextThreshold)
	}
	return capAt(score, 1.0)
}

// scoreDomainRelevance = 0.6*domain keywords + profile bonuses
// (0.2 industry, 0.1 business size, 0.1 legal structure).
func scoreDomainRelevance(question string, profile *domain.BusinessProfile) float64 {
	lower := strings.ToLower(question)

	score := 0.6 * capRatio(float64(countKeywordMatches(lower, businessDomainKeywords)), maxKeywordMatches)
	if profile != nil {
		if term := strings.ToLower(profile.Industry); term != "" && strings.Contains(lower, term) {
			score += 0.2
		}
		if term := strings.ToLower(profile.BusinessSize); term != "" && strings.Contains(lower, term) {
			score += 0.1
		}
		if term := strings.ToLower(profile.LegalStructure); term != "" && strings.Contains(lower, term) {
			score += 0.1
		}
	}
	return capAt(score, 1.0)
}

func countKeywordMatches(lower string, keywords []string) int {
	matches := 0
	for _, keyword := range keywords {
		if strings.Contains(lower, keyword) {
			matches++
		}
	}
	return matches
}

func capRatio(v, threshold float64) float64 {
	return capAt(v/threshold, 1.0)
}

func capAt(v, max float64) float64 {
	if v > max {
		return max
	}
	return v
}
