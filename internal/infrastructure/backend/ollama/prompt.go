package ollama

import (
	"strings"

	"github.com/asklegal/engine/internal/core/domain"
)

// buildLegalPrompt assembles the local model prompt. Retrieved excerpts,
// when present, are inlined so the small model answers from the corpus
// instead of free-associating.
func buildLegalPrompt(req domain.GenerationRequest) string {
	var b strings.Builder
	b.WriteString("You are a legal assistant for Indian micro, small and medium enterprises. ")
	b.WriteString("Answer the business owner's question clearly and concisely. ")
	b.WriteString("If you are not certain, say so and suggest consulting a qualified professional.\n\n")

	if profile := describeProfile(req.Profile); profile != "" {
		b.WriteString("Business profile: ")
		b.WriteString(profile)
		b.WriteString("\n\n")
	}

	if strings.TrimSpace(req.ContextText) != "" {
		b.WriteString("Relevant legal references:\n")
		b.WriteString(req.ContextText)
		b.WriteString("\n\nAnswer the question using the references above where they apply.\n\n")
	}

	b.WriteString("Question: ")
	b.WriteString(req.Question)
	b.WriteString("\n\nAnswer:")
	return b.String()
}

func describeProfile(p *domain.BusinessProfile) string {
	if p == nil {
		return ""
	}
	var parts []string
	if p.Industry != "" {
		parts = append(parts, "industry "+p.Industry)
	}
	if p.BusinessSize != "" {
		parts = append(parts, "size "+p.BusinessSize)
	}
	if p.LegalStructure != "" {
		parts = append(parts, "structure "+p.LegalStructure)
	}
	if p.Location != "" {
		parts = append(parts, "location "+p.Location)
	}
	return strings.Join(parts, ", ")
}
