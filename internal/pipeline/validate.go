package pipeline

import (
	"strings"

	"github.com/softreset-app/softreset/internal/models"
	"github.com/softreset-app/softreset/internal/util"
)

// Validation limits for sanitized output.
const (
	// PromptCharCap is the per-prompt character cap applied for UI stability.
	PromptCharCap = 180
	// TitleWordCap is the maximum title word count. Over-cap titles are
	// rejected outright: a truncated title reads as broken.
	TitleWordCap = 6
)

// bannedPhrases reject output that slips into advice or instruction. This
// list is distinct from the drift filter's topic vocabulary and is checked
// unconditionally.
var bannedPhrases = []string{
	"you should",
	"must",
	"deep breath",
	"calm down",
	"stop thinking",
}

// Sanitized is normalized, accepted model output.
type Sanitized struct {
	Title   string
	Prompts []string
}

// Sanitize enforces the structural and stylistic contract on a parsed
// candidate. It returns nil on any violation; no partial data propagates.
//
// Rules: non-empty title of at most TitleWordCap words; prompts coerced to
// trimmed strings with empties dropped; at least models.PromptCount usable
// lines of which the first models.PromptCount are kept; per-prompt character
// cap (truncated with an ellipsis, or rejected under
// policy.RejectOverlongPrompts); no question marks; no banned phrases.
func Sanitize(c *Candidate, policy Policy) *Sanitized {
	if c == nil {
		return nil
	}

	title := util.NormalizeText(c.Title)
	if title == "" || len(strings.Fields(title)) > TitleWordCap {
		return nil
	}

	prompts := make([]string, 0, len(c.Prompts))
	for _, raw := range c.Prompts {
		s, ok := raw.(string)
		if !ok {
			continue
		}
		s = util.NormalizeText(s)
		if s == "" {
			continue
		}
		prompts = append(prompts, s)
	}

	if len(prompts) < models.PromptCount {
		return nil
	}
	prompts = prompts[:models.PromptCount]

	for i, p := range prompts {
		if runes := []rune(p); len(runes) > PromptCharCap {
			if policy.RejectOverlongPrompts {
				return nil
			}
			prompts[i] = string(runes[:PromptCharCap-1]) + "…"
			p = prompts[i]
		}
		if strings.Contains(p, "?") {
			return nil
		}
		lower := strings.ToLower(p)
		for _, phrase := range bannedPhrases {
			if strings.Contains(lower, phrase) {
				return nil
			}
		}
	}

	return &Sanitized{Title: title, Prompts: prompts}
}

// PadPrompts guarantees the response-shape invariant: exactly
// models.PromptCount lines. Short lists are padded with the filler line in
// order; long lists are truncated.
func PadPrompts(prompts []string, filler string) []string {
	out := make([]string, 0, models.PromptCount)
	for _, p := range prompts {
		if len(out) == models.PromptCount {
			break
		}
		out = append(out, p)
	}
	for len(out) < models.PromptCount {
		out = append(out, filler)
	}
	return out
}
