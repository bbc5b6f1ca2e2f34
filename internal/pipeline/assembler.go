package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/softreset-app/softreset/internal/cache"
	"github.com/softreset-app/softreset/internal/feeling"
	"github.com/softreset-app/softreset/internal/genai"
	"github.com/softreset-app/softreset/internal/models"
	"github.com/softreset-app/softreset/internal/util"
)

// Diagnostic notes attached to fallback responses.
const (
	NoteMissingInput  = "missing_dump_or_reflection"
	NoteFallbackUsed  = "fallback_used"
	NoteUpstreamError = "upstream_error_fallback"

	reasonMissingAPIKey   = "missing_api_key"
	reasonContentRejected = "parse_failed_or_validation_failed_or_forbidden_drift"

	// debugModelTextCap bounds how much raw model text is echoed into the
	// diagnostic trail.
	debugModelTextCap = 800
)

// Invoker is the slice of the completion client the assembler needs.
type Invoker interface {
	Generate(ctx context.Context, prompt string, settings genai.GenerationSettings) (genai.Result, error)
}

// Sink receives accepted reflections. Persistence is fire-and-forget:
// failures are logged and never affect the response.
type Sink interface {
	SaveReflection(ctx context.Context, rec models.ReflectionRecord) error
}

// Opts holds configuration options for the Assembler.
type Opts struct {
	Invoker        Invoker
	Sink           Sink
	BreathePolicy  Policy
	ReflectPolicy  Policy
	EnableCache    bool
	CacheSize      int
	CacheTTL       time.Duration
	AttachDebug    bool
	breatheSet     bool
	reflectSet     bool
}

// Option defines a configuration option for the Assembler.
type Option func(*Opts)

// WithInvoker sets the completion client. A nil invoker means no credential
// is configured; every request then degrades to fallback content without
// network I/O.
func WithInvoker(inv Invoker) Option {
	return func(o *Opts) {
		o.Invoker = inv
	}
}

// WithSink sets the reflection persistence sink.
func WithSink(s Sink) Option {
	return func(o *Opts) {
		o.Sink = s
	}
}

// WithBreathePolicy overrides the breathe endpoint policy.
func WithBreathePolicy(p Policy) Option {
	return func(o *Opts) {
		o.BreathePolicy = p
		o.breatheSet = true
	}
}

// WithReflectPolicy overrides the reflect endpoint policy.
func WithReflectPolicy(p Policy) Option {
	return func(o *Opts) {
		o.ReflectPolicy = p
		o.reflectSet = true
	}
}

// WithCache enables the response cache with the given size and TTL
// (non-positive values use the cache package defaults).
func WithCache(size int, ttl time.Duration) Option {
	return func(o *Opts) {
		o.EnableCache = true
		o.CacheSize = size
		o.CacheTTL = ttl
	}
}

// WithDebugTrail attaches the per-attempt diagnostic trail to responses.
func WithDebugTrail() Option {
	return func(o *Opts) {
		o.AttachDebug = true
	}
}

// Assembler orchestrates the generation pipeline into a final decision:
// accept model output or substitute the fallback catalog entry. It holds no
// per-request state and is safe for concurrent use.
type Assembler struct {
	inv     Invoker
	sink    Sink
	breathe Policy
	reflect Policy
	debug   bool

	breatheCache *cache.Cache[models.BreatheResponse]
	reflectCache *cache.Cache[models.ReflectResponse]
}

// NewAssembler creates an Assembler, applying any provided options.
func NewAssembler(opts ...Option) *Assembler {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.breatheSet {
		cfg.BreathePolicy = BreathePolicy()
	}
	if !cfg.reflectSet {
		cfg.ReflectPolicy = ReflectPolicy()
	}

	a := &Assembler{
		inv:     cfg.Invoker,
		sink:    cfg.Sink,
		breathe: cfg.BreathePolicy,
		reflect: cfg.ReflectPolicy,
		debug:   cfg.AttachDebug,
	}
	if cfg.EnableCache {
		a.breatheCache = cache.New[models.BreatheResponse](cfg.CacheSize, cfg.CacheTTL)
		a.reflectCache = cache.New[models.ReflectResponse](cfg.CacheSize, cfg.CacheTTL)
	}
	slog.Debug("NewAssembler: configured", "invoker_set", cfg.Invoker != nil, "sink_set", cfg.Sink != nil, "cache_enabled", cfg.EnableCache, "debug_trail", cfg.AttachDebug)
	return a
}

// GenerateBreathe runs the full pipeline for the breathing screen. It never
// returns an error under the default breathe policy: every content-quality
// problem resolves locally to fallback content so the client always receives
// a well-formed four-prompt payload.
func (a *Assembler) GenerateBreathe(ctx context.Context, req models.BreatheRequest) (models.BreatheResponse, error) {
	dump := util.NormalizeText(req.Dump)
	reflection := util.NormalizeText(req.Reflection)
	behavior := util.NormalizeText(req.BehaviorSpec)
	cat := feeling.Resolve(util.NormalizeText(req.FeelingID), util.NormalizeText(req.UserState))

	if dump == "" || reflection == "" {
		if !a.breathe.MissingInputFallback {
			return models.BreatheResponse{}, models.ErrMissingDump
		}
		slog.Info("Assembler.GenerateBreathe: missing input, substituting fallback", "category", cat)
		return a.breatheFallback(cat, models.SourceFallback, NoteMissingInput, nil), nil
	}

	if a.inv == nil {
		slog.Info("Assembler.GenerateBreathe: no completion credential, substituting fallback", "category", cat)
		return a.breatheFallback(cat, models.SourceFallback, NoteFallbackUsed, []string{reasonMissingAPIKey}), nil
	}

	key := cache.Key("breathe", string(cat), dump, reflection, behavior)
	if cached, ok := a.breatheCache.Get(key); ok {
		slog.Debug("Assembler.GenerateBreathe: cache hit", "category", cat)
		return cached, nil
	}

	prompt := BuildBreathePrompt(cat, dump, reflection, behavior)
	allowed := dump + " " + reflection
	settings := genai.GenerationSettings{MaxTokens: a.breathe.MaxTokens, Temperature: a.breathe.Temperature}

	var trail []string
	lastModel := models.SourceFallback

	for attempt := 1; attempt <= a.breathe.MaxAttempts; attempt++ {
		res, err := a.inv.Generate(ctx, prompt, settings)
		trail = append(trail, res.Trace...)

		if err != nil {
			var upstream *genai.UpstreamError
			if errors.As(err, &upstream) {
				if a.breathe.PropagateUpstreamErrors {
					return models.BreatheResponse{}, err
				}
				slog.Warn("Assembler.GenerateBreathe: upstream error, substituting fallback", "status", upstream.StatusCode, "model", upstream.Model)
				return a.breatheFallback(cat, upstream.Model, NoteUpstreamError, trail), nil
			}
			if a.breathe.PropagateUpstreamErrors {
				return models.BreatheResponse{}, err
			}
			slog.Warn("Assembler.GenerateBreathe: invocation failed, substituting fallback", "error", err)
			return a.breatheFallback(cat, lastModel, NoteFallbackUsed, trail), nil
		}

		lastModel = res.Model
		candidate := ParseCandidate(res.Text)
		sanitized := Sanitize(candidate, a.breathe)
		if sanitized == nil {
			trail = append(trail, fmt.Sprintf("attempt %d: output rejected by validator", attempt))
			slog.Debug("Assembler.GenerateBreathe: output rejected by validator", "attempt", attempt, "model", res.Model)
			trail = appendModelText(trail, res.Text)
			continue
		}

		combined := sanitized.Title + " " + joinPrompts(sanitized.Prompts)
		if word, drifted := CheckDrift(combined, allowed, a.breathe); drifted {
			trail = append(trail, fmt.Sprintf("attempt %d: drift on %q", attempt, word))
			slog.Info("Assembler.GenerateBreathe: drift detected", "attempt", attempt, "model", res.Model, "word", word)
			continue
		}

		resp := models.BreatheResponse{
			Title:     sanitized.Title,
			Prompts:   PadPrompts(sanitized.Prompts, feeling.FillerLine(cat)),
			ModelUsed: res.Model,
		}
		if a.debug {
			resp.Debug = trail
		}
		a.breatheCache.Set(key, resp)
		slog.Info("Assembler.GenerateBreathe: model output accepted", "model", res.Model, "attempt", attempt, "category", cat)
		return resp, nil
	}

	slog.Info("Assembler.GenerateBreathe: retries exhausted, substituting fallback", "category", cat, "model", lastModel)
	return a.breatheFallback(cat, lastModel, NoteFallbackUsed, append(trail, reasonContentRejected)), nil
}

// GenerateReflect runs the pipeline for the empathetic reflection. The
// pre-selected opener doubles as the fallback text when the completion
// service cannot be used and the policy does not propagate the failure.
func (a *Assembler) GenerateReflect(ctx context.Context, req models.ReflectRequest) (models.ReflectResponse, error) {
	dump := util.NormalizeText(req.Dump)
	if dump == "" {
		return models.ReflectResponse{}, models.ErrMissingDump
	}
	feelingLabel := util.NormalizeText(req.FeelingLabel)
	timeLabel := util.NormalizeText(req.TimeLabel)

	opener := PickOpener(feelingLabel, timeLabel)
	trail := []string{
		fmt.Sprintf("received dump with %d chars", len(dump)),
		fmt.Sprintf("feeling: %s, time: %s", feelingLabel, timeLabel),
		fmt.Sprintf("selected opener: %s", opener),
	}

	if a.inv == nil {
		slog.Info("Assembler.GenerateReflect: no completion credential, returning opener fallback")
		resp := models.ReflectResponse{Text: opener, ModelUsed: models.SourceFallback, OpenerUsed: opener}
		if a.debug {
			resp.Debug = append(trail, reasonMissingAPIKey)
		}
		return resp, nil
	}

	key := cache.Key("reflect", dump, feelingLabel, timeLabel)
	if cached, ok := a.reflectCache.Get(key); ok {
		slog.Debug("Assembler.GenerateReflect: cache hit")
		return cached, nil
	}

	prompt := BuildReflectPrompt(opener, feelingLabel, timeLabel, dump)
	settings := genai.GenerationSettings{MaxTokens: a.reflect.MaxTokens, Temperature: a.reflect.Temperature}

	res, err := a.inv.Generate(ctx, prompt, settings)
	trail = append(trail, res.Trace...)
	if err != nil {
		if a.reflect.PropagateUpstreamErrors {
			return models.ReflectResponse{}, err
		}
		slog.Warn("Assembler.GenerateReflect: invocation failed, returning opener fallback", "error", err)
		resp := models.ReflectResponse{Text: opener, ModelUsed: models.SourceFallback, OpenerUsed: opener}
		if a.debug {
			resp.Debug = trail
		}
		return resp, nil
	}

	resp := models.ReflectResponse{Text: res.Text, ModelUsed: res.Model, OpenerUsed: opener}
	if a.debug {
		resp.Debug = trail
	}
	a.reflectCache.Set(key, resp)

	a.persistReflection(ctx, models.ReflectionRecord{
		ID:           util.GenerateReflectionID(),
		FeelingLabel: feelingLabel,
		TimeLabel:    timeLabel,
		Dump:         dump,
		Text:         res.Text,
		ModelUsed:    res.Model,
		CreatedAt:    time.Now().UTC(),
	})

	slog.Info("Assembler.GenerateReflect: model output accepted", "model", res.Model, "chars", len(res.Text))
	return resp, nil
}

// persistReflection records an accepted reflection. Errors are logged only;
// the sink is an external side effect, never part of the response contract.
func (a *Assembler) persistReflection(ctx context.Context, rec models.ReflectionRecord) {
	if a.sink == nil {
		return
	}
	if err := a.sink.SaveReflection(ctx, rec); err != nil {
		slog.Error("Assembler.persistReflection: failed to save reflection", "error", err, "id", rec.ID)
	}
}

func (a *Assembler) breatheFallback(cat models.FeelingCategory, modelUsed, note string, trail []string) models.BreatheResponse {
	entry := feeling.Fallback(cat)
	resp := models.BreatheResponse{
		Title:     entry.Title,
		Prompts:   PadPrompts(entry.Prompts[:], feeling.FillerLine(cat)),
		ModelUsed: modelUsed,
		Note:      note,
	}
	if a.debug {
		resp.Debug = trail
	}
	return resp
}

func joinPrompts(prompts []string) string {
	return strings.Join(prompts, " ")
}

func appendModelText(trail []string, text string) []string {
	if text == "" {
		return trail
	}
	if runes := []rune(text); len(runes) > debugModelTextCap {
		text = string(runes[:debugModelTextCap])
	}
	return append(trail, "model_text: "+text)
}
