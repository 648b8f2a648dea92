package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"parish_server/config"
	"parish_server/core/domain"
	"parish_server/core/port/out"
	"parish_server/pkg/apperr"
)

type fakeGenerator struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeGenerator) GenerateContent(_ context.Context, prompt string, _ out.GenerationOptions) (string, error) {
	i := f.calls
	f.calls++
	f.prompts = append(f.prompts, prompt)
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	resp := ""
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	return resp, err
}

func (f *fakeGenerator) Name() string { return "fake" }

func testGateway(gen *fakeGenerator) *Gateway {
	g := New(gen, config.LLMConfig{
		Temperature:     0.6,
		MaxOutputTokens: 800,
		RequestTimeout:  time.Second,
		Retry:           config.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2},
	})
	g.sleep = func(context.Context, time.Duration) error { return nil }
	return g
}

func rateLimited() error {
	return apperr.New(apperr.CodeProviderError, "rate limited", http.StatusBadGateway).
		WithDetail("status_code", 429)
}

func TestGenerateRetriesTransientErrors(t *testing.T) {
	gen := &fakeGenerator{
		errs:      []error{rateLimited(), rateLimited(), nil},
		responses: []string{"", "", "Buongiorno. Risposta."},
	}
	g := testGateway(gen)

	got, err := g.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Buongiorno. Risposta." {
		t.Errorf("got %q", got)
	}
	if gen.calls != 3 {
		t.Errorf("calls = %d, want 3", gen.calls)
	}
}

func TestGenerateFailsFastOnPermanentError(t *testing.T) {
	gen := &fakeGenerator{
		errs: []error{apperr.New(apperr.CodeProviderError, "bad request", http.StatusBadGateway).
			WithDetail("status_code", 400)},
	}
	g := testGateway(gen)

	if _, err := g.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error")
	}
	if gen.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on 400)", gen.calls)
	}
}

func TestGenerateExhaustsAttempts(t *testing.T) {
	gen := &fakeGenerator{errs: []error{rateLimited(), rateLimited(), rateLimited()}}
	g := testGateway(gen)

	_, err := g.Generate(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if gen.calls != 3 {
		t.Errorf("calls = %d, want 3", gen.calls)
	}
	if ae, ok := apperr.AsAppError(err); !ok || ae.Code != apperr.CodeGenerationFailed {
		t.Errorf("error = %v, want GENERATION_FAILED", err)
	}
}

// A provider answer with an unusable shape is a nil result, not an error,
// and must not be retried.
func TestGenerateEmptyShapeIsNotAnError(t *testing.T) {
	gen := &fakeGenerator{responses: []string{""}}
	g := testGateway(gen)

	got, err := g.Generate(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if gen.calls != 1 {
		t.Errorf("calls = %d, want 1", gen.calls)
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"deadline", context.DeadlineExceeded, true},
		{"rate limited", rateLimited(), true},
		{"service unavailable", apperr.New(apperr.CodeProviderError, "x", 502).WithDetail("status_code", 503), true},
		{"bad request", apperr.New(apperr.CodeProviderError, "x", 502).WithDetail("status_code", 400), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Retryable(tt.err); got != tt.want {
				t.Errorf("Retryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestGateCheck(t *testing.T) {
	msg := &domain.EmailMessage{Subject: "Info", From: "mario@example.com"}

	tests := []struct {
		name         string
		raw          string
		err          error
		wantRespond  bool
		wantLang     string
		wantFailsafe bool
	}{
		{"plain yes", `{"respond":"yes","language":"en"}`, nil, true, "en", false},
		{"plain no", `{"respond":"no","language":"it"}`, nil, false, "it", false},
		{"fenced json", "```json\n{\"respond\":\"yes\",\"language\":\"es\"}\n```", nil, true, "es", false},
		{"malformed json", "non saprei dire", nil, true, "it", true},
		{"unknown language falls back", `{"respond":"yes","language":"fr"}`, nil, true, "it", false},
		{"provider error", "", rateLimited(), true, "it", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{responses: []string{tt.raw, tt.raw, tt.raw}, errs: []error{tt.err, tt.err, tt.err}}
			g := testGateway(gen)
			got := g.GateCheck(context.Background(), msg, "testo", "it")
			if got.ShouldRespond != tt.wantRespond || got.Language != tt.wantLang || got.Failsafe != tt.wantFailsafe {
				t.Errorf("GateCheck() = %+v, want respond=%v lang=%q failsafe=%v",
					got, tt.wantRespond, tt.wantLang, tt.wantFailsafe)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	short := "Segreteria: Buongiorno.\nUtente: grazie"
	gen := &fakeGenerator{}
	g := testGateway(gen)

	if got := g.Summarize(context.Background(), short); got != short {
		t.Errorf("short history must pass through untouched")
	}
	if gen.calls != 0 {
		t.Errorf("no provider call expected for a short history")
	}

	long := strings.Repeat("Utente: vorrei sapere gli orari delle messe e altro ancora. ", 20)
	summary := strings.Repeat("riassunto della conversazione con le informazioni fornite ", 4)
	gen = &fakeGenerator{responses: []string{summary}}
	g = testGateway(gen)

	if got := g.Summarize(context.Background(), long); strings.TrimSpace(got) != strings.TrimSpace(summary) {
		t.Errorf("expected the summary, got %q", got)
	}

	// degenerate summary falls back to the full history
	gen = &fakeGenerator{responses: []string{"troppo corto", "ancora corto"}}
	g = testGateway(gen)
	if got := g.Summarize(context.Background(), long); got != long {
		t.Errorf("degenerate summary must fall back to the original history")
	}
}
