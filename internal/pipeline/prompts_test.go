package pipeline

import (
	"strings"
	"testing"

	"github.com/softreset-app/softreset/internal/models"
)

func TestBuildBreathePrompt_ContainsContractAndContext(t *testing.T) {
	p := BuildBreathePrompt(models.FeelingTense, "my shoulders are tight", "that sounds exhausting", "")
	for _, want := range []string{
		`Mode: "tense"`,
		"2-5 words",
		"Exactly 4 short prompts",
		"my shoulders are tight",
		"that sounds exhausting",
		`{"title":"...","prompts":["...","...","...","..."]}`,
		"No advice, no fixing, no questions",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("breathe prompt missing %q", want)
		}
	}
}

func TestBuildBreathePrompt_UnknownCategoryUsesDefaultSpec(t *testing.T) {
	p := BuildBreathePrompt(models.FeelingCategory("bogus"), "d", "r", "")
	if !strings.Contains(p, modeSpecs[models.FeelingBrain].goal) {
		t.Error("expected brain goal line for unknown category")
	}
}

func TestBuildBreathePrompt_BehaviorOverrideReplacesGoalAndTone(t *testing.T) {
	p := BuildBreathePrompt(models.FeelingTense, "d", "r", "keep every line about water")
	if !strings.Contains(p, "Behavior: keep every line about water") {
		t.Error("expected behavior override line")
	}
	if strings.Contains(p, modeSpecs[models.FeelingTense].goal) {
		t.Error("override should suppress the category goal line")
	}
}

func TestPickOpener_Deterministic(t *testing.T) {
	a := PickOpener("Stressed", "Late night")
	b := PickOpener("Stressed", "Late night")
	if a != b {
		t.Errorf("opener not deterministic: %q vs %q", a, b)
	}
}

func TestPickOpener_BankSelection(t *testing.T) {
	contains := func(bank []string, s string) bool {
		for _, o := range bank {
			if o == s {
				return true
			}
		}
		return false
	}

	if got := PickOpener("overwhelmed", "afternoon"); !contains(stressedOpeners, got) {
		t.Errorf("expected stressed opener, got %q", got)
	}
	if got := PickOpener("pretty okay", "afternoon"); !contains(okOpeners, got) {
		t.Errorf("expected ok opener, got %q", got)
	}
	if got := PickOpener("whatever", "late night"); !contains(lateOpeners, got) {
		t.Errorf("expected late opener, got %q", got)
	}
	if got := PickOpener("", ""); !contains(baseOpeners, got) {
		t.Errorf("expected base opener, got %q", got)
	}

	union := append(append([]string{}, lateOpeners...), stressedOpeners...)
	if got := PickOpener("anxious", "1 or later"); !contains(union, got) {
		t.Errorf("expected opener from late+stressed union, got %q", got)
	}
}

func TestBuildReflectPrompt_AnchorsOpenerAndDefaults(t *testing.T) {
	p := BuildReflectPrompt("I hear you.", "", "", "long day at school")
	for _, want := range []string{
		`Start with: "I hear you."`,
		"They're feeling: general",
		"Time of day: evening",
		`"""long day at school"""`,
		"55 to 90 words total",
	} {
		if !strings.Contains(p, want) {
			t.Errorf("reflect prompt missing %q", want)
		}
	}
}
