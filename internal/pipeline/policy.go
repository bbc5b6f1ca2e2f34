// Package pipeline implements the content-generation pipeline: prompt
// construction, model invocation, output parsing/validation, topic-drift
// detection, and guaranteed-safe fallback assembly.
package pipeline

// Policy carries the per-endpoint knobs of the generation pipeline. The
// endpoints share one code path; their historical behavioral differences are
// expressed here as explicit configuration.
type Policy struct {
	// MaxAttempts bounds fresh generations used to overcome parse/validation
	// failures. Transport failures are never retried.
	MaxAttempts int
	// RejectOverlongPrompts rejects prompt lines over the length cap instead
	// of truncating them with an ellipsis.
	RejectOverlongPrompts bool
	// StrictDrift additionally runs the advice-pattern checks in the drift
	// filter, beyond the topic vocabulary.
	StrictDrift bool
	// MissingInputFallback substitutes fallback content (HTTP 200) when
	// required text is missing instead of rejecting the request.
	MissingInputFallback bool
	// PropagateUpstreamErrors surfaces non-model-related provider failures as
	// error responses instead of degrading to fallback content.
	PropagateUpstreamErrors bool
	// Temperature and MaxTokens are the sampling settings for this endpoint.
	Temperature float64
	MaxTokens   int
}

// BreathePolicy is the default policy for the breathing-prompt endpoint:
// soft on missing input and upstream failures (the client must always get
// usable content), low temperature, bounded regeneration on bad output.
func BreathePolicy() Policy {
	return Policy{
		MaxAttempts:             2,
		RejectOverlongPrompts:   false,
		StrictDrift:             false,
		MissingInputFallback:    true,
		PropagateUpstreamErrors: false,
		Temperature:             0.3,
		MaxTokens:               350,
	}
}

// ReflectPolicy is the default policy for the reflection endpoint: missing
// input is a hard client error, upstream failures propagate, higher
// temperature for a warmer register.
func ReflectPolicy() Policy {
	return Policy{
		MaxAttempts:             1,
		MissingInputFallback:    false,
		PropagateUpstreamErrors: true,
		Temperature:             0.9,
		MaxTokens:               800,
	}
}
