package pipeline

import (
	"encoding/json"
	"strings"
)

// Candidate is the parsed shape of model output before validation.
type Candidate struct {
	Title   string        `json:"title"`
	Prompts []interface{} `json:"prompts"`
}

// ExtractJSONObject returns the substring from the first '{' to the last '}'
// in raw. Models sometimes wrap their JSON in prose or markdown fences; this
// recovers the embedded object. Returns "" when no plausible object exists.
func ExtractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return raw[start : end+1]
}

// ParseCandidate extracts a single JSON object from raw model text. It first
// tries the trimmed full text, then the first-{ to last-} substring. Returns
// nil when no parseable object is found; callers treat that as a validation
// failure, not an error.
func ParseCandidate(raw string) *Candidate {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	var c Candidate
	if err := json.Unmarshal([]byte(trimmed), &c); err == nil {
		return &c
	}

	extracted := ExtractJSONObject(trimmed)
	if extracted == "" {
		return nil
	}
	c = Candidate{}
	if err := json.Unmarshal([]byte(extracted), &c); err != nil {
		return nil
	}
	return &c
}
