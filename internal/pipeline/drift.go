package pipeline

import (
	"regexp"
	"strings"

	"github.com/softreset-app/softreset/internal/feeling"
)

// advicePatterns catch advice-shaped sentences that steer toward topics the
// user never raised. Only applied under Policy.StrictDrift.
var advicePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\byou should\b.{0,40}\b(work|job|boss|deadline)\b`),
	regexp.MustCompile(`(?i)\btalk to\b.{0,40}\b(boss|manager|therapist|doctor)\b`),
	regexp.MustCompile(`(?i)\b(set|make)\b.{0,30}\b(boundaries|schedule|plan)\b`),
}

// CheckDrift scans candidate output for unsolicited subject matter: a
// forbidden topic word (or, under strict policy, an advice pattern) present
// in the output but absent from the user's own text. It returns the matched
// word or pattern and true on a violation.
//
// A violation rejects the candidate entirely. Partial redaction of a
// cohesive short message risks a nonsensical result, so full fallback
// substitution is the only remedy.
func CheckDrift(output, allowed string, policy Policy) (string, bool) {
	o := strings.ToLower(output)
	a := strings.ToLower(allowed)

	for _, w := range feeling.ForbiddenWords {
		if strings.Contains(o, w) && !strings.Contains(a, w) {
			return w, true
		}
	}

	if policy.StrictDrift {
		for _, re := range advicePatterns {
			if re.MatchString(output) && !re.MatchString(allowed) {
				return re.String(), true
			}
		}
	}

	return "", false
}
