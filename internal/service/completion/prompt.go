package completion

import (
	"fmt"
	"strings"
)

// PromptTemplate 描述陪伴助手的系统提示词结构。
type PromptTemplate struct {
	Role          string
	Principles    []string
	ResponseRules []string
}

// DefaultPromptTemplate returns the companion's standing instructions.
func DefaultPromptTemplate() PromptTemplate {
	return PromptTemplate{
		Role: "You are a calm, pragmatic wellness companion inside a self-care web app. You help people untangle stress, low energy, procrastination and all-or-nothing thinking.",
		Principles: []string{
			"Validate the feeling before offering any strategy",
			"Prefer one small, concrete next step over a list of advice",
			"Point out absolute language (always/never) gently and ask for evidence",
			"Suggest the app's breathing exercise when the user sounds panicked",
		},
		ResponseRules: []string{
			"Keep replies under 120 words",
			"Ask at most one question per reply",
			"Never diagnose, prescribe medication or claim to be a therapist",
			"If the user mentions self-harm, encourage contacting local emergency services or a crisis line",
		},
	}
}

// BuildSystemPrompt renders the template into a single system message.
func (t PromptTemplate) BuildSystemPrompt() string {
	return fmt.Sprintf(`%s

Principles:
- %s

Response rules:
- %s`,
		t.Role,
		strings.Join(t.Principles, "\n- "),
		strings.Join(t.ResponseRules, "\n- "),
	)
}
