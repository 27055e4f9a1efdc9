// Package privacy classifies query sensitivity and redacts identifying spans.
// The bias is deliberately conservative: a false positive toward higher
// sensitivity is acceptable, a false negative is not.
package privacy

import "github.com/asklegal/engine/internal/core/domain"

// Classify returns the query's sensitivity level. The highly-sensitive
// groups are tested first and short-circuit regardless of other matches.
func Classify(text string) domain.SensitivityLevel {
	for _, group := range highlySensitiveGroups {
		for _, pattern := range group.patterns {
			if pattern.MatchString(text) {
				return domain.SensitivityHighlySensitive
			}
		}
	}
	for _, group := range sensitiveGroups {
		for _, pattern := range group.patterns {
			if pattern.MatchString(text) {
				return domain.SensitivitySensitive
			}
		}
	}
	return domain.SensitivityPublic
}

// Redact replaces identifying spans with fixed placeholder tokens.
// Redact(Redact(x)) == Redact(x).
func Redact(text string) string {
	for _, rule := range redactionRules {
		text = rule.pattern.ReplaceAllString(text, rule.placeholder)
	}
	return text
}
