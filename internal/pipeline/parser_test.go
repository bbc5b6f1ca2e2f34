package pipeline

import "testing"

func TestParseCandidate_PlainJSON(t *testing.T) {
	c := ParseCandidate(`{"title":"Calm","prompts":["a","b","c","d"]}`)
	if c == nil {
		t.Fatal("expected candidate, got nil")
	}
	if c.Title != "Calm" {
		t.Errorf("expected title Calm, got %q", c.Title)
	}
	if len(c.Prompts) != 4 {
		t.Errorf("expected 4 prompts, got %d", len(c.Prompts))
	}
}

func TestParseCandidate_JSONWrappedInProse(t *testing.T) {
	raw := `Sure! {"title":"Calm","prompts":["a","b","c","d"]} Hope that helps!`
	c := ParseCandidate(raw)
	if c == nil {
		t.Fatal("expected candidate extracted from prose, got nil")
	}
	if c.Title != "Calm" {
		t.Errorf("expected title Calm, got %q", c.Title)
	}
}

func TestParseCandidate_MarkdownFence(t *testing.T) {
	raw := "```json\n{\"title\":\"Let go\",\"prompts\":[\"p1\",\"p2\",\"p3\",\"p4\"]}\n```"
	c := ParseCandidate(raw)
	if c == nil {
		t.Fatal("expected candidate extracted from fence, got nil")
	}
	if c.Title != "Let go" {
		t.Errorf("expected title 'Let go', got %q", c.Title)
	}
}

func TestParseCandidate_NoObject(t *testing.T) {
	for _, raw := range []string{"", "   ", "no json here", "{broken", "} {"} {
		if c := ParseCandidate(raw); c != nil {
			t.Errorf("expected nil for %q, got %+v", raw, c)
		}
	}
}

func TestExtractJSONObject(t *testing.T) {
	if got := ExtractJSONObject(`before {"a":1} after`); got != `{"a":1}` {
		t.Errorf("unexpected extraction: %q", got)
	}
	if got := ExtractJSONObject("no braces"); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
	if got := ExtractJSONObject("} reversed {"); got != "" {
		t.Errorf("expected empty string for reversed braces, got %q", got)
	}
}
