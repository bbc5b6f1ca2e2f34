package util

import "strings"

// quoteReplacer canonicalizes curly quotes and apostrophes so that substring
// checks against user text behave the same regardless of which keyboard
// produced the input.
var quoteReplacer = strings.NewReplacer(
	"‘", "'", // left single quote
	"’", "'", // right single quote
	"“", `"`, // left double quote
	"”", `"`, // right double quote
)

// NormalizeText canonicalizes quotes/apostrophes and trims surrounding
// whitespace. Every user-supplied string passes through here before it is
// used for prompt construction or vocabulary checks.
func NormalizeText(s string) string {
	return strings.TrimSpace(quoteReplacer.Replace(s))
}

// SeedIndex deterministically maps the joined parts into [0, n). It uses an
// x31 accumulator over the bytes of "part1|part2|..." so the same labels
// always select the same index. Returns 0 when n <= 0.
func SeedIndex(n int, parts ...string) int {
	if n <= 0 {
		return 0
	}
	var seed uint32
	joined := strings.Join(parts, "|")
	for i := 0; i < len(joined); i++ {
		seed = seed*31 + uint32(joined[i])
	}
	return int(seed % uint32(n))
}
