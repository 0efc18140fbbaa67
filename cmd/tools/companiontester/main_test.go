package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/zhouzirui/calm-companion/backend/internal/config"
	"github.com/zhouzirui/calm-companion/backend/internal/model/script"
)

func TestReadInputsPrefersText(t *testing.T) {
	got := readInputs("hello", strings.NewReader("ignored\n"))
	if len(got) != 1 || got[0] != "hello" {
		t.Fatalf("unexpected inputs: %v", got)
	}

	got = readInputs("", strings.NewReader("one\ntwo\n"))
	if len(got) != 2 || got[1] != "two" {
		t.Fatalf("unexpected inputs: %v", got)
	}
}

func TestRunRulesPrintsCategoriesAndMetrics(t *testing.T) {
	var out bytes.Buffer
	inputs := []string{"too much work", "I'm exhausted", "give me a summary"}

	if err := runRules(context.Background(), &out, script.Seed(), config.ResponderConfig{}, inputs, false); err != nil {
		t.Fatalf("runRules err: %v", err)
	}

	text := out.String()
	for _, want := range []string{"[productivity]", "[biological]", "[analytical_summary]", `"totalInteractions": 3`} {
		if !strings.Contains(text, want) {
			t.Fatalf("output missing %q:\n%s", want, text)
		}
	}
}

func TestRunRemoteWithoutCredentialsUsesFallback(t *testing.T) {
	var out bytes.Buffer

	if err := runRemote(context.Background(), &out, script.Seed(), config.AIConfig{}, []string{"hi", "  "}); err != nil {
		t.Fatalf("runRemote err: %v", err)
	}
	if !strings.Contains(out.String(), "[fallback") {
		t.Fatalf("expected fallback output, got:\n%s", out.String())
	}
}
