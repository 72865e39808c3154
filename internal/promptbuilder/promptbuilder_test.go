package promptbuilder

import (
	"strings"
	"testing"

	"github.com/hfyorke/zrepair/internal/detector"
	"github.com/hfyorke/zrepair/internal/vocabulary"
)

func sampleVocab() *vocabulary.Vocabulary {
	v := vocabulary.New(3)
	v.AddWord("take", vocabulary.Verb)
	v.AddWord("examin", vocabulary.Verb)
	v.AddWord("with", vocabulary.Preposition)
	v.AddWord("leaflet", vocabulary.Noun)
	v.AddWord("rusty", vocabulary.Adjective)
	return v
}

func TestBuildUnknownVerbIncludesVerbsAndPrepositions(t *testing.T) {
	sys, user := Build("I don't understand that sentence.", "grab leaflet", detector.UnknownVerb, sampleVocab())
	if sys == "" {
		t.Fatal("system prompt must not be empty")
	}
	if !strings.Contains(user, "verbs:") || !strings.Contains(user, "prepositions:") {
		t.Fatalf("user prompt missing expected sections: %q", user)
	}
	if !strings.Contains(user, "examine") {
		t.Errorf("expected truncated verb stem expanded to full form, got %q", user)
	}
	if !strings.Contains(user, "Failure type: UnknownVerb") {
		t.Errorf("user prompt must name the failure type: %q", user)
	}
}

func TestBuildOtherFailureTypeProducesNoPrompt(t *testing.T) {
	_, user := Build("out", "cmd", detector.GameRefusal, sampleVocab())
	if user != "" {
		t.Fatalf("expected empty user prompt for non-rewritable failure type, got %q", user)
	}
}

func TestBuildTruncatesGameOutput(t *testing.T) {
	longOutput := strings.Repeat("a", 600)
	_, user := Build(longOutput, "cmd", detector.Syntax, sampleVocab())
	if strings.Count(user, "a") > 520 {
		t.Fatalf("expected game output truncated to 500 chars in prompt")
	}
}

func TestBuildSentinelMentionedInSystemPrompt(t *testing.T) {
	sys, _ := Build("x", "cmd", detector.CatchAll, sampleVocab())
	if !strings.Contains(sys, "<NO_VALID_REWRITE>") {
		t.Fatal("system prompt must mention the no-rewrite sentinel")
	}
}
