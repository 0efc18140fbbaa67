package responder

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/calm-companion/backend/internal/analysis/signal"
)

// DefaultSummaryThreshold is the number of interactions, including the one
// asking for the summary, required before a report is produced.
const DefaultSummaryThreshold = 4

const (
	insufficientDataMessage = "I need a bit more data before I can provide a structural analysis of our conversation. Let's explore a few more thoughts first."
	summaryHeader           = "### 🧠 Analytical Session Summary\n\n"
	summaryClosing          = "\n\nWould you like to deep-dive into a specific strategy for the primary issue identified?"
	noDominantPattern       = "No single pattern dominates yet. Your concerns are spread across several areas, which often means the load is diffuse rather than rooted in one bottleneck."
)

// dominanceOrder decides ties: the earlier category wins.
var dominanceOrder = []signal.Category{
	signal.Productivity,
	signal.Biological,
	signal.CognitiveReframing,
	signal.StressReset,
}

var diagnoses = map[signal.Category]string{
	signal.Productivity:       "Your current bottleneck appears to be **Executive Function**. You are likely struggling with task prioritization rather than a lack of ability.",
	signal.Biological:         "Our data suggests a **Physiological Drain**. Your mental friction might be a symptom of sleep debt or low glucose levels rather than a psychological block.",
	signal.CognitiveReframing: "I'm detecting a pattern of **Cognitive Filtering**. You are applying 'absolute' logic (always/never) to temporary situations.",
	signal.StressReset:        "The strongest thread is **Sustained Stress Load**. The pressure itself, more than any single task, seems to be what keeps pulling your attention.",
}

// InsufficientDataMessage is returned while too few interactions are logged.
func InsufficientDataMessage() string {
	return insufficientDataMessage
}

// Summarize renders the analytical report for a snapshot. The output depends
// only on the snapshot and threshold.
func Summarize(s Snapshot, threshold int) string {
	if threshold <= 0 {
		threshold = DefaultSummaryThreshold
	}
	if s.TotalInteractions < threshold {
		return insufficientDataMessage
	}

	var builder strings.Builder
	builder.WriteString(summaryHeader)

	if s.StressSignals > 0 {
		builder.WriteString(fmt.Sprintf("**Status: High Pressure.** I logged %d stress signal(s) in this session, so read the pattern below through that lens.\n\n", s.StressSignals))
	}

	if dominant, ok := Dominant(s); ok {
		builder.WriteString(diagnoses[dominant])
	} else {
		builder.WriteString(noDominantPattern)
	}

	builder.WriteString(summaryClosing)
	return builder.String()
}

// Dominant returns the category with the strictly highest counter. It reports
// false when every counter is zero.
func Dominant(s Snapshot) (signal.Category, bool) {
	var (
		best  signal.Category
		count int
	)
	for _, category := range dominanceOrder {
		if n := s.Count(category); n > count {
			best, count = category, n
		}
	}
	return best, count > 0
}
