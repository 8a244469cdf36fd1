package rules

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Match is the outcome of rule evaluation. When Matched is set, Rule points
// at the winning rule; Rule.Allows() distinguishes whitelist hits from
// blocking hits.
type Match struct {
	Matched bool
	Rule    *Rule
}

type compiledRule struct {
	rule Rule
	pred predicate
}

// Matcher evaluates prioritized rules against a sender and optional message
// content. Rules are loaded from a Store and cached for a bounded refresh
// interval so the store is not hit on every event.
type Matcher struct {
	store              Store
	refreshInterval    time.Duration
	homePrefix         string
	shortCodeMaxDigits int
	logger             *zap.Logger

	mu       sync.RWMutex
	compiled []compiledRule
	loadedAt time.Time
}

// NewMatcher creates a matcher backed by the given store.
func NewMatcher(store Store, refreshInterval time.Duration, homePrefix string, shortCodeMaxDigits int, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{
		store:              store,
		refreshInterval:    refreshInterval,
		homePrefix:         homePrefix,
		shortCodeMaxDigits: shortCodeMaxDigits,
		logger:             logger,
	}
}

// Evaluate runs the active rules in descending priority order and returns
// the first match. Evaluation never fails: store errors yield an empty rule
// set and malformed rules are skipped.
func (m *Matcher) Evaluate(sender, content string, at time.Time) Match {
	for _, cr := range m.rules() {
		if cr.pred.matches(sender, content, at) {
			rule := cr.rule
			return Match{Matched: true, Rule: &rule}
		}
	}
	return Match{}
}

// Invalidate drops the cached rule set, forcing a reload from the store on
// the next evaluation. Call after mutating rules.
func (m *Matcher) Invalidate() {
	m.mu.Lock()
	m.compiled = nil
	m.loadedAt = time.Time{}
	m.mu.Unlock()
}

// RuleCount returns the number of currently loaded, compilable rules.
func (m *Matcher) RuleCount() int {
	return len(m.rules())
}

func (m *Matcher) rules() []compiledRule {
	m.mu.RLock()
	if m.compiled != nil && time.Since(m.loadedAt) < m.refreshInterval {
		compiled := m.compiled
		m.mu.RUnlock()
		return compiled
	}
	m.mu.RUnlock()

	return m.reload()
}

func (m *Matcher) reload() []compiledRule {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Another evaluation may have reloaded while we waited for the lock.
	if m.compiled != nil && time.Since(m.loadedAt) < m.refreshInterval {
		return m.compiled
	}

	loaded, err := m.store.List()
	if err != nil {
		m.logger.Warn("failed to load rules, keeping previous set", zap.Error(err))
		m.loadedAt = time.Now()
		if m.compiled == nil {
			m.compiled = []compiledRule{}
		}
		return m.compiled
	}

	compiled := make([]compiledRule, 0, len(loaded))
	for _, r := range loaded {
		if !r.Active {
			continue
		}
		pred, err := compile(r, m.homePrefix, m.shortCodeMaxDigits)
		if err != nil {
			m.logger.Warn("skipping malformed rule",
				zap.String("rule_id", r.ID),
				zap.String("kind", string(r.Kind)),
				zap.Error(err))
			continue
		}
		compiled = append(compiled, compiledRule{rule: r, pred: pred})
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		return compiled[i].rule.Priority > compiled[j].rule.Priority
	})

	m.compiled = compiled
	m.loadedAt = time.Now()
	return m.compiled
}
