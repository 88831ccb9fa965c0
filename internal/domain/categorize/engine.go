package categorize

import (
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
)

// RuleEngine matches weighted keywords against descriptions using the
// Aho-Corasick algorithm: one pass through the text regardless of how many
// keywords are loaded.
type RuleEngine struct {
	mu      sync.RWMutex
	matcher *ahocorasick.Matcher
	rules   []Rule // same order as matcher patterns
}

// NewRuleEngine builds an engine from a rule table.
func NewRuleEngine(rules []Rule) *RuleEngine {
	e := &RuleEngine{}
	e.Build(rules)
	return e
}

// Build constructs the matcher. It can be called again to swap rule sets.
func (e *RuleEngine) Build(rules []Rule) {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := make([]Rule, 0, len(rules))
	patterns := make([][]byte, 0, len(rules))
	for _, r := range rules {
		keyword := strings.ToUpper(strings.TrimSpace(r.Keyword))
		if keyword == "" {
			continue
		}
		r.Keyword = keyword
		kept = append(kept, r)
		patterns = append(patterns, []byte(keyword))
	}

	e.rules = kept
	if len(patterns) > 0 {
		e.matcher = ahocorasick.NewMatcher(patterns)
	} else {
		e.matcher = nil
	}
}

// Score sums matched keyword weights per category. When no keyword matches
// exactly, a fuzzy pass over description tokens catches near misses like
// "STARBUKCS" at half weight.
func (e *RuleEngine) Score(description string) map[transaction.Category]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil {
		return nil
	}

	normalized := strings.ToUpper(description)
	scores := make(map[transaction.Category]float64)

	for _, idx := range e.matcher.Match([]byte(normalized)) {
		if idx >= 0 && idx < len(e.rules) {
			r := e.rules[idx]
			scores[r.Category] += r.Weight
		}
	}
	if len(scores) > 0 {
		return scores
	}

	// Fuzzy fallback: single-word keywords within one edit of a token.
	for _, token := range strings.Fields(normalized) {
		if len(token) < 5 {
			continue
		}
		for _, r := range e.rules {
			if len(r.Keyword) < 5 || strings.ContainsRune(r.Keyword, ' ') {
				continue
			}
			if d := fuzzy.LevenshteinDistance(token, r.Keyword); d >= 0 && d <= 1 {
				scores[r.Category] += r.Weight * 0.5
			}
		}
	}
	return scores
}

// Best returns the winning category and a confidence in [0,1]. Score ties
// resolve by the fixed category priority order. The boolean is false when
// nothing matched at all.
func (e *RuleEngine) Best(description string) (transaction.Category, float64, bool) {
	scores := e.Score(description)
	if len(scores) == 0 {
		return transaction.CategoryOther, 0, false
	}

	best := transaction.CategoryOther
	bestScore := 0.0
	for _, c := range transaction.Categories {
		if s, ok := scores[c]; ok && s > bestScore {
			best = c
			bestScore = s
		}
	}

	confidence := bestScore / 10
	if confidence > 1 {
		confidence = 1
	}
	return best, confidence, true
}
