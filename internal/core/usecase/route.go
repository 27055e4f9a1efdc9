package usecase

import (
	"fmt"

	"github.com/asklegal/engine/internal/core/domain"
)

// Routing thresholds over the [0,1] heuristic scores.
const (
	highRelevance    = 0.7
	mediumRelevance  = 0.5
	highComplexity   = 0.7
	mediumComplexity = 0.4
	lowComplexity    = 0.5
)

// routeQuery maps (scores, sensitivity, calc detection, remote availability)
// to an ordered fallback chain. First matching rule wins. The privacy
// constraint is enforced by filtering the produced list, not by
// special-casing each rule, and the terminal fallback generator is always
// appended last so the chain can never be exhausted.
func routeQuery(
	scores domain.QueryScores,
	sensitivity domain.SensitivityLevel,
	isCalculation bool,
	remoteAvailable bool,
) domain.RoutingDecision {
	var backends []domain.BackendID
	var reason string

	switch {
	case isCalculation:
		backends = []domain.BackendID{domain.BackendCalc, domain.BackendRemote, domain.BackendLocal}
		reason = "calculation query detected, calculation engine first"

	case scores.DomainRelevance > highRelevance && scores.Complexity < lowComplexity:
		backends = []domain.BackendID{domain.BackendLocal, domain.BackendRemote}
		reason = fmt.Sprintf("high domain relevance (%.2f), low complexity, local model for domain expertise", scores.DomainRelevance)

	case scores.Complexity > highComplexity:
		if remoteAvailable {
			backends = []domain.BackendID{domain.BackendRemote, domain.BackendLocal}
			reason = fmt.Sprintf("high complexity (%.2f), remote model for reasoning", scores.Complexity)
		} else {
			backends = []domain.BackendID{domain.BackendLocal}
			reason = fmt.Sprintf("high complexity (%.2f) but remote unavailable, local model", scores.Complexity)
		}

	case scores.Complexity > mediumComplexity:
		if scores.DomainRelevance > mediumRelevance {
			backends = []domain.BackendID{domain.BackendLocal, domain.BackendRemote}
			reason = fmt.Sprintf("medium complexity (%.2f) with domain relevance (%.2f), local first", scores.Complexity, scores.DomainRelevance)
		} else if remoteAvailable {
			backends = []domain.BackendID{domain.BackendRemote, domain.BackendLocal}
			reason = fmt.Sprintf("medium complexity (%.2f), remote first", scores.Complexity)
		} else {
			backends = []domain.BackendID{domain.BackendLocal}
			reason = fmt.Sprintf("medium complexity (%.2f) but remote unavailable, local model", scores.Complexity)
		}

	default:
		backends = []domain.BackendID{domain.BackendLocal}
		reason = fmt.Sprintf("low complexity (%.2f), local model is cheapest", scores.Complexity)
	}

	backends = enforcePrivacy(backends, sensitivity)
	backends = append(backends, domain.BackendFallback)

	return domain.RoutingDecision{
		Backends: dedupeBackends(backends),
		Reason:   reason,
	}
}

// enforcePrivacy strips the remote backend from the chain for highly
// sensitive queries. Hard invariant: such queries never leave the host.
func enforcePrivacy(backends []domain.BackendID, sensitivity domain.SensitivityLevel) []domain.BackendID {
	if sensitivity != domain.SensitivityHighlySensitive {
		return backends
	}
	out := backends[:0]
	for _, id := range backends {
		if id != domain.BackendRemote {
			out = append(out, id)
		}
	}
	return out
}

func dedupeBackends(backends []domain.BackendID) []domain.BackendID {
	seen := make(map[domain.BackendID]struct{}, len(backends))
	out := make([]domain.BackendID, 0, len(backends))
	for _, id := range backends {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
