package responder

import "github.com/zhouzirui/calm-companion/backend/internal/analysis/signal"

// Snapshot is a point-in-time copy of one session's counters.
type Snapshot struct {
	TotalInteractions    int `json:"totalInteractions"`
	ProductivityBlocks   int `json:"productivityBlocks"`
	BiologicalFactors    int `json:"biologicalFactors"`
	CognitiveDistortions int `json:"cognitiveDistortions"`
	StressSignals        int `json:"stressSignals"`
}

// Count returns the counter tracked for a pooled category.
func (s Snapshot) Count(category signal.Category) int {
	switch category {
	case signal.Productivity:
		return s.ProductivityBlocks
	case signal.Biological:
		return s.BiologicalFactors
	case signal.CognitiveReframing:
		return s.CognitiveDistortions
	case signal.StressReset:
		return s.StressSignals
	default:
		return 0
	}
}

// Metrics counts interactions for a single conversation. Totals live as long
// as the session; nothing decays.
type Metrics struct {
	total  int
	counts map[signal.Category]int
}

// NewMetrics returns zeroed counters.
func NewMetrics() *Metrics {
	return &Metrics{counts: make(map[signal.Category]int)}
}

// Touch records one interaction.
func (m *Metrics) Touch() {
	m.total++
}

// Increment bumps the counter of a pooled category.
func (m *Metrics) Increment(category signal.Category) {
	if !category.Pooled() {
		return
	}
	m.counts[category]++
}

// Total returns the number of recorded interactions.
func (m *Metrics) Total() int {
	return m.total
}

// Count returns the counter for category.
func (m *Metrics) Count(category signal.Category) int {
	return m.counts[category]
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		TotalInteractions:    m.total,
		ProductivityBlocks:   m.counts[signal.Productivity],
		BiologicalFactors:    m.counts[signal.Biological],
		CognitiveDistortions: m.counts[signal.CognitiveReframing],
		StressSignals:        m.counts[signal.StressReset],
	}
}
