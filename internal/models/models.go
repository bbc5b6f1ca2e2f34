// Package models defines the core data structures for the Soft Reset server.
//
// It includes the feeling categories, generation request/response payloads,
// and the standard API response envelope shared across modules.
package models

import (
	"errors"
	"time"
)

// FeelingCategory identifies one of the closed set of emotional states the
// system personalizes responses around. The string values are the wire ids
// sent by the mobile client.
type FeelingCategory string

const (
	// FeelingBrain is cognitive overload ("my brain won't shut up").
	FeelingBrain FeelingCategory = "brain"
	// FeelingTense is physical tension held in the body.
	FeelingTense FeelingCategory = "tense"
	// FeelingRestless is restlessness / inability to settle.
	FeelingRestless FeelingCategory = "restless"
	// FeelingLonely is loneliness or emotional heaviness.
	FeelingLonely FeelingCategory = "lonely"
)

// IsValidFeelingCategory checks if the given category is a member of the closed set.
func IsValidFeelingCategory(c FeelingCategory) bool {
	switch c {
	case FeelingBrain, FeelingTense, FeelingRestless, FeelingLonely:
		return true
	default:
		return false
	}
}

// Validation constants for generation input.
const (
	// MaxDumpLength caps the free-text brain dump accepted from the client.
	MaxDumpLength = 8192
	// MaxLabelLength caps the feeling/time label fields.
	MaxLabelLength = 200
	// PromptCount is the number of prompt lines every breathe response carries.
	PromptCount = 4
)

// Error variables for better error handling and testability.
var (
	ErrMissingDump  = errors.New("dump text is required")
	ErrDumpTooLong  = errors.New("dump text exceeds maximum length")
	ErrLabelTooLong = errors.New("label exceeds maximum length")
)

// SourceFallback is the modelUsed tag reported when pre-authored fallback
// content is returned instead of model output.
const SourceFallback = "fallback"

// BreatheRequest is the inbound body for the breathe generation endpoint.
// FeelingID is the preferred canonical category; UserState is the legacy
// free-text label kept for older clients.
type BreatheRequest struct {
	FeelingID  string `json:"feelingId,omitempty"`
	UserState  string `json:"userState,omitempty"`
	Dump       string `json:"dump,omitempty"`
	Reflection string `json:"reflection,omitempty"`
	// BehaviorSpec optionally overrides the per-category goal/tone lines in
	// the generated instruction text.
	BehaviorSpec string `json:"behaviorSpec,omitempty"`
}

// Validate performs length validation on a BreatheRequest. Missing text is
// not an error here: the pipeline's input policy decides how to handle it.
func (r *BreatheRequest) Validate() error {
	if len(r.Dump) > MaxDumpLength || len(r.Reflection) > MaxDumpLength {
		return ErrDumpTooLong
	}
	if len(r.FeelingID) > MaxLabelLength || len(r.UserState) > MaxLabelLength {
		return ErrLabelTooLong
	}
	return nil
}

// BreatheResponse is the payload returned by the breathe endpoint. Prompts
// always has exactly PromptCount entries regardless of the path taken.
type BreatheResponse struct {
	Title     string   `json:"title"`
	Prompts   []string `json:"prompts"`
	ModelUsed string   `json:"modelUsed"`
	Note      string   `json:"note,omitempty"`
	Debug     []string `json:"debug,omitempty"`
}

// ReflectRequest is the inbound body for the reflect generation endpoint.
type ReflectRequest struct {
	Dump         string `json:"dump,omitempty"`
	FeelingLabel string `json:"feelingLabel,omitempty"`
	TimeLabel    string `json:"timeLabel,omitempty"`
}

// Validate checks the hard requirements of a ReflectRequest.
func (r *ReflectRequest) Validate() error {
	if r.Dump == "" {
		return ErrMissingDump
	}
	if len(r.Dump) > MaxDumpLength {
		return ErrDumpTooLong
	}
	if len(r.FeelingLabel) > MaxLabelLength || len(r.TimeLabel) > MaxLabelLength {
		return ErrLabelTooLong
	}
	return nil
}

// ReflectResponse is the payload returned by the reflect endpoint.
type ReflectResponse struct {
	Text       string   `json:"text"`
	ModelUsed  string   `json:"modelUsed"`
	OpenerUsed string   `json:"openerUsed"`
	Debug      []string `json:"debug,omitempty"`
}

// ReflectionRecord is the persisted form of an accepted reflection. Storage
// is fire-and-forget: failures are logged, never surfaced to the client.
type ReflectionRecord struct {
	ID           string    `json:"id"`
	FeelingLabel string    `json:"feeling_label,omitempty"`
	TimeLabel    string    `json:"time_label,omitempty"`
	Dump         string    `json:"dump"`
	Text         string    `json:"text"`
	ModelUsed    string    `json:"model_used"`
	CreatedAt    time.Time `json:"created_at"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates a successful API response.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates a failed API response.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`            // status of the API response
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// ErrorResponse is the body returned for non-content errors (400, 405, 500,
// and propagated upstream failures).
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Debug   []string `json:"debug,omitempty"`
}

// APIResponseBuilder provides a fluent interface for building API responses.
type APIResponseBuilder struct {
	response APIResponse
}

// NewAPIResponseBuilder creates a new APIResponseBuilder instance.
func NewAPIResponseBuilder() *APIResponseBuilder {
	return &APIResponseBuilder{
		response: APIResponse{},
	}
}

// WithStatus sets the status of the API response.
func (b *APIResponseBuilder) WithStatus(status APIStatus) *APIResponseBuilder {
	b.response.Status = string(status)
	return b
}

// WithMessage sets the message of the API response.
func (b *APIResponseBuilder) WithMessage(message string) *APIResponseBuilder {
	b.response.Message = message
	return b
}

// WithResult sets the result data of the API response.
func (b *APIResponseBuilder) WithResult(result interface{}) *APIResponseBuilder {
	b.response.Result = result
	return b
}

// Build constructs and returns the final APIResponse.
func (b *APIResponseBuilder) Build() APIResponse {
	return b.response
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusOK).
		WithResult(result).
		Build()
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return NewAPIResponseBuilder().
		WithStatus(APIStatusError).
		WithMessage(message).
		Build()
}
