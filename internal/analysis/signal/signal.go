package signal

import "strings"

// Category 表示一条用户消息被路由到的主题类别。
type Category string

const (
	Productivity       Category = "productivity"
	Biological         Category = "biological"
	CognitiveReframing Category = "cognitive_reframing"
	StressReset        Category = "stress_reset"
	GeneralSupport     Category = "general_support"
	AnalyticalSummary  Category = "analytical_summary"
)

// Keyword sets checked by the responder, in routing priority order.
var (
	SummaryKeywords      = []string{"summary", "analyze", "patterns", "insight"}
	StressKeywords       = []string{"stressed", "overwhelmed", "anxious", "panic"}
	ProductivityKeywords = []string{"busy", "procrastinate", "too much", "list", "work", "tasks"}
	BiologicalKeywords   = []string{"tired", "sleep", "energy", "focus", "fog", "exhausted"}
	AbsolutistKeywords   = []string{"always", "never", "failure", "everyone", "bad at", "worst"}
	CalmingKeywords      = []string{"breathe", "panic", "relax", "calm"}
)

// Categories returns the closed set of categories.
func Categories() []Category {
	return []Category{
		Productivity,
		Biological,
		CognitiveReframing,
		StressReset,
		GeneralSupport,
		AnalyticalSummary,
	}
}

// Pooled reports whether replies for the category come from a variant pool.
func (c Category) Pooled() bool {
	switch c {
	case Productivity, Biological, CognitiveReframing, StressReset:
		return true
	default:
		return false
	}
}

// ParseCategory 校验外部输入的类别名称。
func ParseCategory(raw string) (Category, bool) {
	normalized := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, c := range Categories() {
		if c == normalized {
			return c, true
		}
	}
	return "", false
}

// ContainsAny 判断文本中是否出现任一关键词（大小写不敏感的子串匹配）。
// "tired" 同样会命中 "retired"。
func ContainsAny(text string, keywords []string) bool {
	normalized := strings.ToLower(text)
	for _, word := range keywords {
		if word == "" {
			continue
		}
		if strings.Contains(normalized, strings.ToLower(word)) {
			return true
		}
	}
	return false
}
