package ai

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// StubProvider returns a canned reply or an error.
type StubProvider struct {
	Reply  string
	Err    error
	Prompt string
}

func (p *StubProvider) Generate(_ context.Context, prompt string) (string, error) {
	p.Prompt = prompt
	return p.Reply, p.Err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExtract(t *testing.T) {
	provider := &StubProvider{Reply: `{"jobs":[{"title":"Driver","company":"Acme","confidence":0.9}]}`}
	e := NewLLMExtractor(provider, JobExtractionTemplate, discardLogger())

	result, err := e.Extract(context.Background(), "driver wanted at Acme, call 0700…")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Jobs) != 1 {
		t.Fatalf("got %d candidates, want 1", len(result.Jobs))
	}
	c := result.Jobs[0]
	if c.Title != "Driver" || c.Company != "Acme" {
		t.Errorf("candidate = %+v", c)
	}
	if c.Confidence == nil || *c.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", c.Confidence)
	}

	// The raw message must appear in the rendered prompt.
	if !strings.Contains(provider.Prompt, "driver wanted at Acme") {
		t.Errorf("prompt does not contain the message: %q", provider.Prompt)
	}
}

func TestExtract_FencedReply(t *testing.T) {
	provider := &StubProvider{Reply: "```json\n{\"jobs\":[{\"title\":\"Cook\"}]}\n```"}
	e := NewLLMExtractor(provider, JobExtractionTemplate, discardLogger())

	result, err := e.Extract(context.Background(), "cook needed")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Jobs) != 1 || result.Jobs[0].Title != "Cook" {
		t.Errorf("result = %+v", result)
	}
}

func TestExtract_GarbageReplyIsEmptyResult(t *testing.T) {
	provider := &StubProvider{Reply: "Sorry, I can't help with that."}
	e := NewLLMExtractor(provider, JobExtractionTemplate, discardLogger())

	result, err := e.Extract(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(result.Jobs) != 0 {
		t.Errorf("garbage reply produced %d candidates, want 0", len(result.Jobs))
	}
}

func TestExtract_ProviderError(t *testing.T) {
	provider := &StubProvider{Err: errors.New("503 overloaded")}
	e := NewLLMExtractor(provider, JobExtractionTemplate, discardLogger())

	_, err := e.Extract(context.Background(), "hello")
	var extErr *model.ExtractionError
	if !errors.As(err, &extErr) {
		t.Fatalf("error = %v, want *model.ExtractionError", err)
	}
	if extErr.Stage != "call" {
		t.Errorf("stage = %q, want call", extErr.Stage)
	}
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"jobs":[]}`, `{"jobs":[]}`},
		{"```json\n{\"jobs\":[]}\n```", `{"jobs":[]}`},
		{"```\n{\"jobs\":[]}\n```", `{"jobs":[]}`},
		{"  \n```JSON\n{}\n```  ", `{}`},
		{"", ""},
	}
	for _, tc := range cases {
		if got := StripCodeFences(tc.in); got != tc.want {
			t.Errorf("StripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
