// Package feeling provides total resolution of client input onto the closed
// feeling-category set, the pre-authored fallback catalog, and the forbidden
// topic vocabulary used by the drift filter.
//
// All catalogs are package-level immutable data built at process start; they
// are safe for unsynchronized concurrent reads.
package feeling

import (
	"strings"

	"github.com/softreset-app/softreset/internal/models"
)

// FallbackEntry is a pre-written, guaranteed-safe response for one category.
type FallbackEntry struct {
	Title   string
	Prompts [models.PromptCount]string
}

// fallbackSets maps every category to its canned response. Never mutated
// after init.
var fallbackSets = map[models.FeelingCategory]FallbackEntry{
	models.FeelingBrain: {
		Title: "Let them drift",
		Prompts: [models.PromptCount]string{
			"You don't need to stop your thoughts. Just let them pass.",
			"Imagine each thought as a cloud drifting across the sky.",
			"You don't have to follow any of them. They move on their own.",
			"Nothing needs your attention right now.",
		},
	},
	models.FeelingTense: {
		Title: "Let your body settle",
		Prompts: [models.PromptCount]string{
			"Breathe in gently through your nose. Let it out, a little longer.",
			"As you exhale, let your shoulders soften. Let your jaw loosen.",
			"Each exhale is your body letting go in its own time.",
			"There's nothing to hold up anymore.",
		},
	},
	models.FeelingRestless: {
		Title: "Feel your body settle",
		Prompts: [models.PromptCount]string{
			"Notice where your body meets the bed. Feel what's already supporting you.",
			"Let your weight rest there. The bed can hold you tonight.",
			"You don't have to stay alert anymore.",
			"You can be still now. Nothing else needs to happen.",
		},
	},
	models.FeelingLonely: {
		Title: "You're not alone",
		Prompts: [models.PromptCount]string{
			"You don't have to carry this by yourself tonight.",
			"Whatever feels heavy can rest here. You're allowed to set it down for now.",
			"Nothing needs to be explained. Nothing needs to be solved.",
			"You can rest while being held.",
		},
	},
}

// fillerLines pad model output that validated with fewer than four lines.
var fillerLines = map[models.FeelingCategory]string{
	models.FeelingBrain:    "Nothing needs your attention right now.",
	models.FeelingTense:    "There's nothing to hold up anymore.",
	models.FeelingRestless: "Nothing else needs to happen.",
	models.FeelingLonely:   "You can rest now.",
}

// ForbiddenWords is the ordered topic vocabulary checked case-insensitively
// by the drift filter. A word here may only appear in output if the user
// already used it themselves.
var ForbiddenWords = []string{
	"work",
	"job",
	"boss",
	"deadline",
	"project",
	"money",
	"rent",
	"bills",
	"family",
	"mom",
	"dad",
	"sister",
	"brother",
	"relationship",
	"girlfriend",
	"boyfriend",
	"medical",
	"diagnosis",
	"therapy",
	"therapist",
}

// Resolve maps loosely-specified client input onto exactly one category.
// A valid canonical id wins; otherwise the legacy label is matched by
// substring in priority order. Resolution is total: every input, including
// the empty string, yields a category.
func Resolve(feelingID, legacyLabel string) models.FeelingCategory {
	if c := models.FeelingCategory(feelingID); models.IsValidFeelingCategory(c) {
		return c
	}
	s := strings.ToLower(legacyLabel)
	switch {
	case strings.Contains(s, "tense"):
		return models.FeelingTense
	case strings.Contains(s, "restless"):
		return models.FeelingRestless
	case strings.Contains(s, "lonely"), strings.Contains(s, "heavy"):
		return models.FeelingLonely
	default:
		return models.FeelingBrain
	}
}

// Fallback returns the canned entry for the given category. Unknown
// categories resolve to the cognitive-overload entry so callers never
// receive an empty response.
func Fallback(c models.FeelingCategory) FallbackEntry {
	if e, ok := fallbackSets[c]; ok {
		return e
	}
	return fallbackSets[models.FeelingBrain]
}

// FillerLine returns the canned line used to pad short prompt lists for the
// given category.
func FillerLine(c models.FeelingCategory) string {
	if l, ok := fillerLines[c]; ok {
		return l
	}
	return fillerLines[models.FeelingBrain]
}
