package usecase

import (
	"sort"
	"strings"
	"unicode"

	"github.com/asklegal/engine/internal/core/domain"
)

// Tokens shorter than this carry no ranking signal and are discarded.
const minTokenLen = 3

// scoreKeywords ranks corpus documents by term-overlap with the query,
// weighting each shared term by its frequency in the document and in the
// query. Documents with zero overlap are omitted. Deterministic: ties break
// by ascending document id.
func scoreKeywords(query string, docs []domain.Document) []domain.KeywordHit {
	queryFreq := termFrequencies(query)
	if len(queryFreq) == 0 {
		return nil
	}

	hits := make([]domain.KeywordHit, 0, len(docs))
	for _, doc := range docs {
		docFreq := termFrequencies(doc.Text)
		score := 0.0
		for term, qf := range queryFreq {
			if df, ok := docFreq[term]; ok {
				score += float64(qf) * float64(df)
			}
		}
		if score > 0 {
			hits = append(hits, domain.KeywordHit{DocumentID: doc.ID, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocumentID < hits[j].DocumentID
	})
	return hits
}

func termFrequencies(text string) map[string]int {
	tokens := tokenize(text)
	freq := make(map[string]int, len(tokens))
	for _, token := range tokens {
		freq[token]++
	}
	return freq
}

// tokenize lower-cases, strips punctuation and drops short tokens.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	tokens := make([]string, 0, 16)
	var b strings.Builder
	runes := 0
	flush := func() {
		// rune count, not bytes, so non-Latin tokens are measured fairly
		if runes >= minTokenLen {
			tokens = append(tokens, b.String())
		}
		b.Reset()
		runes = 0
	}
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			runes++
			continue
		}
		flush()
	}
	flush()
	return tokens
}
