package script

import "github.com/zhouzirui/calm-companion/backend/internal/analysis/signal"

// Script holds every canned line the companion can say.
type Script struct {
	Pools           map[signal.Category][]string `yaml:"pools" json:"pools"`
	Breathing       string                       `yaml:"breathing" json:"breathing"`
	FirstPrinciples string                       `yaml:"firstPrinciples" json:"firstPrinciples"`
	Clarifying      string                       `yaml:"clarifying" json:"clarifying"`
	Fallback        []string                     `yaml:"fallback" json:"fallback"`
}

// Variants returns a copy of the pool for category.
func (s *Script) Variants(category signal.Category) []string {
	return append([]string(nil), s.Pools[category]...)
}

// Seed provides the default wording shipped with the companion.
func Seed() *Script {
	return &Script{
		Pools: map[signal.Category][]string{
			signal.Productivity: {
				"When a list feels too long, the brain enters 'freeze' mode. Have you tried the **5-Minute Rule**? Commit to working on just one task for 300 seconds. You can stop after that.",
				"Logically, we can't do everything. Apply the **Eisenhower Matrix**: what is the one task that is truly *Important* but not yet *Urgent*? That's where your focus belongs.",
				"You're experiencing 'Decision Fatigue.' Stop trying to choose what to do next. Just do the smallest, easiest task on the list to regain momentum.",
			},
			signal.Biological: {
				"Intelligence is chemical. If you're feeling 'brain fog,' your prefrontal cortex might be depleted. A 10-minute walk or 500ml of water often resets focus better than caffeine.",
				"Check your 'Bio-Logic': When was your last meal or significant break? Low blood sugar mimics the symptoms of high-stress anxiety.",
				"Sleep debt is cumulative. If your logic feels 'slow' today, your brain is likely prioritizing basic survival over high-level processing. How was your rest last night?",
			},
			signal.CognitiveReframing: {
				"I noticed an absolute term ('always'/'never'). Factually, is this a universal truth, or a **Cognitive Distortion** based on a single data point?",
				"Let's look at the evidence objectively. What are three times in the past where the outcome contradicted what you are feeling right now?",
				"You're treating a feeling as a fact. Logically, a feeling is just a temporary chemical signal. What does the objective *evidence* say about your situation?",
			},
			signal.StressReset: {
				"Your nervous system is running hot right now, and that is a signal, not a verdict. Let's shrink the horizon: what is the one thing that needs you in the next ten minutes?",
				"Pressure narrows attention. Try a **physiological sigh**: two short inhales through the nose, one long exhale through the mouth. Repeat three times, then tell me what feels most urgent.",
				"Being overwhelmed usually means too many open loops. Name them out loud, one line each. We'll sort what is yours to carry today and what can wait.",
			},
		},
		Breathing:       "I'm detecting a need for immediate physiological regulation. Based on your input, I recommend pausing our chat for a 2-minute **Breathing Exercise**. Shall we switch to Focus mode?",
		FirstPrinciples: "We've analyzed several angles of this situation. If we were to apply a 'First Principles' approach, what is the single most basic truth we are working with here?",
		Clarifying:      "That's a helpful data point. To understand the logic behind this better: is this an internal obstacle you're facing, or an external constraint?",
		Fallback: []string{
			"I'm having trouble reaching my deeper reasoning right now, but I'm still here. What feels heaviest for you at this moment?",
			"Let's slow things down for a second. Take one steady breath, then tell me a little more about what's going on.",
			"Thank you for sharing that. Whatever you're carrying, you don't have to sort it all out at once. Where would you like to start?",
			"My connection is a bit unsteady, but your thoughts still matter here. What would make the next hour feel slightly easier?",
			"I hear you. Sometimes naming the feeling is the first step. If you had to pick one word for how you feel right now, what would it be?",
		},
	}
}
