package responder

import (
	"fmt"
	"math/rand/v2"

	"github.com/zhouzirui/calm-companion/backend/internal/analysis/signal"
	"github.com/zhouzirui/calm-companion/backend/internal/model/chat"
	"github.com/zhouzirui/calm-companion/backend/internal/model/script"
)

// SuggestBreathing asks the UI to offer the breathing exercise view.
const SuggestBreathing = "breathing_exercise"

// DefaultEscalationHistory is the transcript length after which an otherwise
// unmatched message gets the first-principles prompt.
const DefaultEscalationHistory = 8

// Reply is the router's answer to one message.
type Reply struct {
	Text       string          `json:"text"`
	Category   signal.Category `json:"category"`
	Suggestion string          `json:"suggestion,omitempty"`
}

// Config tunes a Router. Zero values fall back to the defaults.
type Config struct {
	SummaryThreshold  int
	EscalationHistory int
	// Rand drives pool selection. Nil uses the global source.
	Rand *rand.Rand
}

// Router classifies messages for one conversation and picks replies. It owns
// the session's metrics and pools and is not safe for concurrent use.
type Router struct {
	script            *script.Script
	metrics           *Metrics
	pools             map[signal.Category]*Pool
	summaryThreshold  int
	escalationHistory int
}

// NewRouter builds a router with fresh metrics and pools.
func NewRouter(s *script.Script, cfg Config) (*Router, error) {
	if s == nil {
		s = script.Seed()
	}

	var intn func(int) int
	if cfg.Rand != nil {
		intn = cfg.Rand.IntN
	}

	pools := make(map[signal.Category]*Pool)
	for _, category := range signal.Categories() {
		if !category.Pooled() {
			continue
		}
		pool, err := NewPool(s.Variants(category), intn)
		if err != nil {
			return nil, fmt.Errorf("build %s pool: %w", category, err)
		}
		pools[category] = pool
	}

	threshold := cfg.SummaryThreshold
	if threshold <= 0 {
		threshold = DefaultSummaryThreshold
	}
	escalation := cfg.EscalationHistory
	if escalation <= 0 {
		escalation = DefaultEscalationHistory
	}

	return &Router{
		script:            s,
		metrics:           NewMetrics(),
		pools:             pools,
		summaryThreshold:  threshold,
		escalationHistory: escalation,
	}, nil
}

// Respond routes text and returns the reply. history is the transcript that
// precedes text and is only read.
func (r *Router) Respond(text string, history []chat.Message) Reply {
	r.metrics.Touch()

	switch {
	case signal.ContainsAny(text, signal.SummaryKeywords):
		return Reply{
			Text:     Summarize(r.metrics.Snapshot(), r.summaryThreshold),
			Category: signal.AnalyticalSummary,
		}
	case signal.ContainsAny(text, signal.StressKeywords):
		return r.pick(signal.StressReset)
	case signal.ContainsAny(text, signal.ProductivityKeywords):
		return r.pick(signal.Productivity)
	case signal.ContainsAny(text, signal.BiologicalKeywords):
		return r.pick(signal.Biological)
	case signal.ContainsAny(text, signal.AbsolutistKeywords):
		return r.pick(signal.CognitiveReframing)
	case signal.ContainsAny(text, signal.CalmingKeywords):
		return Reply{
			Text:       r.script.Breathing,
			Category:   signal.GeneralSupport,
			Suggestion: SuggestBreathing,
		}
	case len(history) > r.escalationHistory:
		return Reply{Text: r.script.FirstPrinciples, Category: signal.GeneralSupport}
	default:
		return Reply{Text: r.script.Clarifying, Category: signal.GeneralSupport}
	}
}

// Metrics returns a copy of the session counters.
func (r *Router) Metrics() Snapshot {
	return r.metrics.Snapshot()
}

// Pool exposes the pool of a pooled category.
func (r *Router) Pool(category signal.Category) (*Pool, bool) {
	pool, ok := r.pools[category]
	return pool, ok
}

func (r *Router) pick(category signal.Category) Reply {
	r.metrics.Increment(category)
	return Reply{Text: r.pools[category].Pick(), Category: category}
}
