package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/softreset-app/softreset/internal/genai"
	"github.com/softreset-app/softreset/internal/models"
)

// mockInvoker implements Invoker with a scripted sequence of outcomes.
type mockInvoker struct {
	results []genai.Result
	errs    []error
	calls   int
}

func (m *mockInvoker) Generate(ctx context.Context, prompt string, settings genai.GenerationSettings) (genai.Result, error) {
	i := m.calls
	m.calls++
	if i >= len(m.results) {
		return genai.Result{}, errors.New("unexpected extra invocation")
	}
	var err error
	if i < len(m.errs) {
		err = m.errs[i]
	}
	return m.results[i], err
}

// mockSink implements Sink and records saved reflections.
type mockSink struct {
	records []models.ReflectionRecord
	err     error
}

func (m *mockSink) SaveReflection(ctx context.Context, rec models.ReflectionRecord) error {
	m.records = append(m.records, rec)
	return m.err
}

func goodBreatheResult(model string) genai.Result {
	return genai.Result{
		Text:  `{"title":"Let go","prompts":["p1","p2","p3","p4"]}`,
		Model: model,
	}
}

func breatheRequest() models.BreatheRequest {
	return models.BreatheRequest{
		FeelingID:  "tense",
		Dump:       "my shoulders are so tight",
		Reflection: "that sounds exhausting",
	}
}

func TestGenerateBreathe_AcceptsModelOutput(t *testing.T) {
	inv := &mockInvoker{results: []genai.Result{goodBreatheResult("model-a")}}
	a := NewAssembler(WithInvoker(inv))

	resp, err := a.GenerateBreathe(context.Background(), breatheRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.ModelUsed != "model-a" {
		t.Errorf("expected modelUsed model-a, got %q", resp.ModelUsed)
	}
	if len(resp.Prompts) != models.PromptCount {
		t.Errorf("expected %d prompts, got %d", models.PromptCount, len(resp.Prompts))
	}
	if resp.Note != "" {
		t.Errorf("expected no note on accepted output, got %q", resp.Note)
	}
	if inv.calls != 1 {
		t.Errorf("expected 1 invocation, got %d", inv.calls)
	}
}

func TestGenerateBreathe_DriftFallsBack(t *testing.T) {
	drifty := genai.Result{
		Text:  `{"title":"Let go","prompts":["the deadline can wait","p2","p3","p4"]}`,
		Model: "model-a",
	}
	inv := &mockInvoker{results: []genai.Result{drifty, drifty}}
	a := NewAssembler(WithInvoker(inv))

	resp, err := a.GenerateBreathe(context.Background(), breatheRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Note != NoteFallbackUsed {
		t.Errorf("expected note %q, got %q", NoteFallbackUsed, resp.Note)
	}
	entry := models.FeelingTense
	if resp.Title != "Let your body settle" {
		t.Errorf("expected %s fallback title, got %q", entry, resp.Title)
	}
	if len(resp.Prompts) != models.PromptCount {
		t.Errorf("expected %d prompts, got %d", models.PromptCount, len(resp.Prompts))
	}
	if inv.calls != BreathePolicy().MaxAttempts {
		t.Errorf("expected %d attempts, got %d", BreathePolicy().MaxAttempts, inv.calls)
	}
}

func TestGenerateBreathe_RetryRecoversFromBadOutput(t *testing.T) {
	inv := &mockInvoker{results: []genai.Result{
		{Text: "not json at all", Model: "model-a"},
		goodBreatheResult("model-a"),
	}}
	a := NewAssembler(WithInvoker(inv))

	resp, err := a.GenerateBreathe(context.Background(), breatheRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Note != "" {
		t.Errorf("expected accepted output after retry, got note %q", resp.Note)
	}
	if inv.calls != 2 {
		t.Errorf("expected 2 invocations, got %d", inv.calls)
	}
}

func TestGenerateBreathe_MissingInputFallback(t *testing.T) {
	inv := &mockInvoker{}
	a := NewAssembler(WithInvoker(inv))

	resp, err := a.GenerateBreathe(context.Background(), models.BreatheRequest{UserState: "restless"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Note != NoteMissingInput {
		t.Errorf("expected note %q, got %q", NoteMissingInput, resp.Note)
	}
	if resp.ModelUsed != models.SourceFallback {
		t.Errorf("expected modelUsed fallback, got %q", resp.ModelUsed)
	}
	if resp.Title != "Feel your body settle" {
		t.Errorf("expected restless fallback, got %q", resp.Title)
	}
	if inv.calls != 0 {
		t.Errorf("expected no invocation on missing input, got %d", inv.calls)
	}
}

func TestGenerateBreathe_MissingInputRejectedUnderHardPolicy(t *testing.T) {
	p := BreathePolicy()
	p.MissingInputFallback = false
	a := NewAssembler(WithBreathePolicy(p))

	_, err := a.GenerateBreathe(context.Background(), models.BreatheRequest{})
	if !errors.Is(err, models.ErrMissingDump) {
		t.Errorf("expected ErrMissingDump, got %v", err)
	}
}

func TestGenerateBreathe_NoCredentialNeverInvokes(t *testing.T) {
	a := NewAssembler() // no invoker configured

	resp, err := a.GenerateBreathe(context.Background(), breatheRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Note != NoteFallbackUsed {
		t.Errorf("expected note %q, got %q", NoteFallbackUsed, resp.Note)
	}
	if resp.ModelUsed != models.SourceFallback {
		t.Errorf("expected modelUsed fallback, got %q", resp.ModelUsed)
	}
	if resp.Title != "Let your body settle" {
		t.Errorf("expected tense fallback, got %q", resp.Title)
	}
}

func TestGenerateBreathe_UpstreamErrorFallsBack(t *testing.T) {
	inv := &mockInvoker{
		results: []genai.Result{{}},
		errs:    []error{&genai.UpstreamError{StatusCode: 529, Model: "model-a"}},
	}
	a := NewAssembler(WithInvoker(inv))

	resp, err := a.GenerateBreathe(context.Background(), breatheRequest())
	if err != nil {
		t.Fatalf("expected fallback, got error %v", err)
	}
	if resp.Note != NoteUpstreamError {
		t.Errorf("expected note %q, got %q", NoteUpstreamError, resp.Note)
	}
	if resp.ModelUsed != "model-a" {
		t.Errorf("expected failing model reported, got %q", resp.ModelUsed)
	}
	if inv.calls != 1 {
		t.Errorf("transport failures must not be retried, got %d calls", inv.calls)
	}
}

func TestGenerateBreathe_CacheShortCircuits(t *testing.T) {
	inv := &mockInvoker{results: []genai.Result{goodBreatheResult("model-a")}}
	a := NewAssembler(WithInvoker(inv), WithCache(16, time.Minute))

	first, err := a.GenerateBreathe(context.Background(), breatheRequest())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := a.GenerateBreathe(context.Background(), breatheRequest())
	if err != nil {
		t.Fatalf("expected no error on cached call, got %v", err)
	}
	if inv.calls != 1 {
		t.Errorf("expected cache hit to skip invocation, got %d calls", inv.calls)
	}
	if first.Title != second.Title {
		t.Errorf("cached response differs: %q vs %q", first.Title, second.Title)
	}
}

func TestGenerateReflect_AcceptsAndPersists(t *testing.T) {
	inv := &mockInvoker{results: []genai.Result{{Text: "That's a lot to carry. You're allowed to rest now.", Model: "model-b"}}}
	sink := &mockSink{}
	a := NewAssembler(WithInvoker(inv), WithSink(sink))

	req := models.ReflectRequest{Dump: "long day", FeelingLabel: "stressed", TimeLabel: "late night"}
	resp, err := a.GenerateReflect(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.ModelUsed != "model-b" {
		t.Errorf("expected modelUsed model-b, got %q", resp.ModelUsed)
	}
	if resp.OpenerUsed == "" {
		t.Error("expected openerUsed to be set")
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 persisted reflection, got %d", len(sink.records))
	}
	rec := sink.records[0]
	if rec.Text != resp.Text || rec.ModelUsed != "model-b" || rec.Dump != "long day" {
		t.Errorf("persisted record mismatch: %+v", rec)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Errorf("expected id and timestamp on record: %+v", rec)
	}
}

func TestGenerateReflect_SinkFailureDoesNotAffectResponse(t *testing.T) {
	inv := &mockInvoker{results: []genai.Result{{Text: "I hear you. Rest now.", Model: "model-b"}}}
	sink := &mockSink{err: errors.New("db down")}
	a := NewAssembler(WithInvoker(inv), WithSink(sink))

	resp, err := a.GenerateReflect(context.Background(), models.ReflectRequest{Dump: "long day"})
	if err != nil {
		t.Fatalf("expected no error despite sink failure, got %v", err)
	}
	if resp.Text == "" {
		t.Error("expected response text")
	}
}

func TestGenerateReflect_MissingDump(t *testing.T) {
	a := NewAssembler()
	_, err := a.GenerateReflect(context.Background(), models.ReflectRequest{})
	if !errors.Is(err, models.ErrMissingDump) {
		t.Errorf("expected ErrMissingDump, got %v", err)
	}
}

func TestGenerateReflect_UpstreamErrorPropagates(t *testing.T) {
	inv := &mockInvoker{
		results: []genai.Result{{}},
		errs:    []error{&genai.UpstreamError{StatusCode: 429, Model: "model-b"}},
	}
	a := NewAssembler(WithInvoker(inv))

	_, err := a.GenerateReflect(context.Background(), models.ReflectRequest{Dump: "long day"})
	var upstream *genai.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected *genai.UpstreamError, got %v", err)
	}
	if upstream.StatusCode != 429 {
		t.Errorf("expected status 429, got %d", upstream.StatusCode)
	}
}

func TestGenerateReflect_NoCredentialReturnsOpener(t *testing.T) {
	a := NewAssembler()
	req := models.ReflectRequest{Dump: "long day", FeelingLabel: "stressed"}
	resp, err := a.GenerateReflect(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.ModelUsed != models.SourceFallback {
		t.Errorf("expected modelUsed fallback, got %q", resp.ModelUsed)
	}
	if resp.Text != resp.OpenerUsed {
		t.Errorf("expected opener as fallback text, got %q vs %q", resp.Text, resp.OpenerUsed)
	}
}
