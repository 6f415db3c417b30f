package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// LLMExtractor implements model.Extractor using an LLM.
type LLMExtractor struct {
	provider LLMProvider
	tmpl     *template.Template
	logger   *slog.Logger
}

var _ model.Extractor = (*LLMExtractor)(nil)

// NewLLMExtractor creates an extractor that pulls structured job candidates
// out of raw message text.
func NewLLMExtractor(provider LLMProvider, tmpl *template.Template, logger *slog.Logger) *LLMExtractor {
	return &LLMExtractor{
		provider: provider,
		tmpl:     tmpl,
		logger:   logger,
	}
}

// Extract renders the prompt for rawText, calls the provider, and decodes the
// {jobs: []} payload. An empty or unparsable model reply is not an error: it
// decodes to an empty result so the caller can treat it as "no jobs found".
// Provider failures are returned as *model.ExtractionError.
func (e *LLMExtractor) Extract(ctx context.Context, rawText string) (*model.ExtractionResult, error) {
	var promptBuf bytes.Buffer
	if err := e.tmpl.Execute(&promptBuf, struct{ RawText string }{RawText: rawText}); err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	raw, err := e.provider.Generate(ctx, promptBuf.String())
	if err != nil {
		return nil, &model.ExtractionError{Stage: "call", Err: err}
	}

	result := parseExtraction(raw)
	e.logger.Debug("extraction complete", "candidates", len(result.Jobs))
	return result, nil
}

// parseExtraction decodes the model output, tolerating code fences and junk.
// Anything that does not decode to the {jobs: []} contract becomes an empty
// result rather than an error: garbage output routes to "No jobs found".
func parseExtraction(raw string) *model.ExtractionResult {
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return &model.ExtractionResult{}
	}

	var result model.ExtractionResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return &model.ExtractionResult{}
	}
	return &result
}

// StripCodeFences removes a leading/trailing triple-backtick fence, with or
// without a language tag, from a model reply. Gemini wraps JSON this way
// often enough that parsing without stripping is not safe.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	// Drop an optional language tag on the opening fence line.
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		first := strings.TrimSpace(s[:nl])
		if first == "" || first == "json" || first == "JSON" {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
