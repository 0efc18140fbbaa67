package signal

import "testing"

func TestContainsAnyIsCaseInsensitive(t *testing.T) {
	if !ContainsAny("I am SO TIRED today", BiologicalKeywords) {
		t.Fatal("expected biological keyword match")
	}
}

func TestContainsAnyMatchesInsideWords(t *testing.T) {
	if !ContainsAny("my dad just retired", BiologicalKeywords) {
		t.Fatal("expected substring match for retired")
	}
}

func TestContainsAnyMultiWordKeyword(t *testing.T) {
	if !ContainsAny("there is just Too Much going on", ProductivityKeywords) {
		t.Fatal("expected multi-word keyword match")
	}
	if ContainsAny("too, much", ProductivityKeywords) {
		t.Fatal("punctuation between words must not match")
	}
}

func TestContainsAnyEmptyInputs(t *testing.T) {
	if ContainsAny("", SummaryKeywords) {
		t.Fatal("empty text must not match")
	}
	if ContainsAny("anything", nil) {
		t.Fatal("empty keyword set must not match")
	}
	if ContainsAny("anything", []string{""}) {
		t.Fatal("blank keyword must be ignored")
	}
}

func TestParseCategory(t *testing.T) {
	got, ok := ParseCategory("  Cognitive_Reframing ")
	if !ok || got != CognitiveReframing {
		t.Fatalf("unexpected parse result: %q %v", got, ok)
	}
	if _, ok := ParseCategory("joy"); ok {
		t.Fatal("expected unknown category to be rejected")
	}
}

func TestPooledCategories(t *testing.T) {
	pooled := 0
	for _, c := range Categories() {
		if c.Pooled() {
			pooled++
		}
	}
	if pooled != 4 {
		t.Fatalf("expected 4 pooled categories, got %d", pooled)
	}
	if GeneralSupport.Pooled() || AnalyticalSummary.Pooled() {
		t.Fatal("special categories must not be pooled")
	}
}
