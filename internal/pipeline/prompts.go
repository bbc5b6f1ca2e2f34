package pipeline

import (
	"fmt"
	"strings"

	"github.com/softreset-app/softreset/internal/models"
	"github.com/softreset-app/softreset/internal/util"
)

// modeSpec is the per-category behavior specification embedded into the
// breathe instruction text.
type modeSpec struct {
	goal string
	tone string
}

var modeSpecs = map[models.FeelingCategory]modeSpec{
	models.FeelingBrain: {
		goal: "help racing thoughts pass without engaging them",
		tone: "slow, spacious, permission-giving",
	},
	models.FeelingTense: {
		goal: "invite the body to release held tension on its own time",
		tone: "soft, physical, unhurried",
	},
	models.FeelingRestless: {
		goal: "help the body feel supported enough to be still",
		tone: "grounded, steady, quiet",
	},
	models.FeelingLonely: {
		goal: "offer quiet companionship without fixing anything",
		tone: "warm, close, gentle",
	},
}

// BuildBreathePrompt constructs the instruction text for the breathing
// screen. The numeric constraints are stated verbatim; the model is not
// guaranteed to comply, which is why the validator re-checks them. A
// non-empty behaviorOverride replaces the category's goal/tone lines.
func BuildBreathePrompt(cat models.FeelingCategory, dump, reflection, behaviorOverride string) string {
	spec, ok := modeSpecs[cat]
	if !ok {
		spec = modeSpecs[models.FeelingBrain]
	}

	var b strings.Builder
	b.WriteString("You are writing calm, late-night guidance.\n")
	fmt.Fprintf(&b, "Mode: %q\n", string(cat))
	if behaviorOverride != "" {
		fmt.Fprintf(&b, "Behavior: %s\n\n", behaviorOverride)
	} else {
		fmt.Fprintf(&b, "Goal: %s\n", spec.goal)
		fmt.Fprintf(&b, "Tone: %s\n\n", spec.tone)
	}
	b.WriteString("Rules:\n")
	b.WriteString("- No advice, no fixing, no questions\n")
	b.WriteString("- No therapy, medical, or diagnostic language\n")
	b.WriteString("- No breath counting or instructions to breathe a certain way\n")
	b.WriteString("- Do not introduce topics the user did not mention\n")
	b.WriteString("- Keep it simple, slow, and sleep-safe\n\n")
	b.WriteString("Write:\n")
	b.WriteString("- A short title (2-5 words)\n")
	b.WriteString("- Exactly 4 short prompts (each under ~160 chars, no markdown, no numbering, no question marks)\n\n")
	b.WriteString("Personal context (use subtly, don't mention specifics):\n")
	fmt.Fprintf(&b, "- Dump: %q\n", dump)
	fmt.Fprintf(&b, "- Reflection: %q\n\n", reflection)
	b.WriteString("Output ONLY valid JSON, nothing else:\n")
	b.WriteString(`{"title":"...","prompts":["...","...","...","..."]}`)
	return b.String()
}

// Opener banks for the reflection flow. The selected opener anchors the
// model's first sentence so the response never starts cold.
var (
	lateOpeners = []string{
		"Hey. I know it's late and your mind's still going.",
		"You're still up, still thinking about all of this.",
		"Late nights like this... when everything feels heavier.",
		"It's late and you're still carrying all of this.",
	}
	stressedOpeners = []string{
		"That's a lot spinning around in there.",
		"I can feel how heavy this has been for you.",
		"That sounds really overwhelming.",
		"Your mind is working overtime with all of this.",
	}
	okOpeners = []string{
		"Yeah, I get it. Just one of those days.",
		"Nothing major, but still... a lot of little things adding up.",
		"Sometimes the quiet days are their own kind of full.",
	}
	baseOpeners = []string{
		"I'm here. I'm listening.",
		"Thanks for sharing this with me.",
		"I hear you.",
	}
)

// PickOpener selects a canned opener from the bank matching the feeling and
// time labels. Selection is deterministic over the labels so the same
// check-in always gets the same opener.
func PickOpener(feelingLabel, timeLabel string) string {
	f := strings.ToLower(feelingLabel)
	t := strings.ToLower(timeLabel)

	late := strings.Contains(t, "late") || strings.Contains(t, "night") || strings.Contains(t, "1 or later")
	stressed := strings.Contains(f, "stress") || strings.Contains(f, "anx") ||
		strings.Contains(f, "overwhelm") || strings.Contains(f, "overthink")
	ok := strings.Contains(f, "okay") || strings.Contains(f, "fine") || strings.Contains(f, "neutral")

	var bank []string
	switch {
	case late && stressed:
		bank = append(append([]string{}, lateOpeners...), stressedOpeners...)
	case stressed:
		bank = stressedOpeners
	case late:
		bank = lateOpeners
	case ok:
		bank = okOpeners
	default:
		bank = baseOpeners
	}

	if len(bank) == 0 {
		return "I hear you."
	}
	return bank[util.SeedIndex(len(bank), f, t)]
}

// BuildReflectPrompt constructs the instruction text for the empathetic
// reflection, anchored on the pre-selected opener.
func BuildReflectPrompt(opener, feelingLabel, timeLabel, dump string) string {
	if feelingLabel == "" {
		feelingLabel = "general"
	}
	if timeLabel == "" {
		timeLabel = "evening"
	}

	var b strings.Builder
	b.WriteString("You're a close, trusted friend responding to someone who just shared what's weighing on their mind.\n\n")
	fmt.Fprintf(&b, "Start with: %q\n\n", opener)
	b.WriteString("Constraints:\n")
	b.WriteString("- 2 to 4 sentences total\n")
	b.WriteString("- 55 to 90 words total\n")
	b.WriteString("- Warm, quiet, simple tone\n")
	b.WriteString("- No advice, no action steps, no analysis, no reframing\n")
	b.WriteString(`- Do not say "you should", "try to", "take deep breaths", or "you've got this"` + "\n")
	b.WriteString("- No therapy, crisis support, or motivational cheerleading\n")
	b.WriteString("- Only respond to what they actually wrote\n")
	b.WriteString("- Structure: sentence 1 mirrors emotion; sentence 2 normalizes; optional sentence 3 gives permission; optional sentence 4 gently transitions toward downshift\n")
	b.WriteString(`- If they selected "my body feels tense", you may include one gentle body acknowledgement (not instruction)` + "\n\n")
	b.WriteString("Now respond to this user:\n")
	fmt.Fprintf(&b, "They're feeling: %s\n", feelingLabel)
	fmt.Fprintf(&b, "Time of day: %s\n\n", timeLabel)
	b.WriteString("What they shared:\n")
	fmt.Fprintf(&b, `"""%s"""`, dump)
	return b.String()
}
