package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// jobsSchema is the response schema sent with every generateContent call.
// Gemini enforces it server-side so the reply is a JSON object with a "jobs"
// array; confidence still has to be range-checked by the caller.
var jobsSchema = map[string]any{
	"type": "OBJECT",
	"properties": map[string]any{
		"jobs": map[string]any{
			"type": "ARRAY",
			"items": map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"title":            map[string]any{"type": "STRING"},
					"company":          map[string]any{"type": "STRING"},
					"location":         map[string]any{"type": "STRING"},
					"salary":           map[string]any{"type": "STRING"},
					"job_type":         map[string]any{"type": "STRING"},
					"application_link": map[string]any{"type": "STRING"},
					"contact":          map[string]any{"type": "STRING"},
					"deadline":         map[string]any{"type": "STRING"},
					"description":      map[string]any{"type": "STRING"},
					"confidence":       map[string]any{"type": "NUMBER"},
				},
			},
		},
	},
}

// GeminiProvider calls the Gemini generateContent REST endpoint.
type GeminiProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiProvider creates a provider targeting the Gemini API.
func NewGeminiProvider(baseURL, apiKey, model string, httpClient *http.Client) *GeminiProvider {
	return &GeminiProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
	}
}

// generateRequest mirrors the generateContent request body.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
	Temperature      int            `json:"temperature"`
}

// generateResponse mirrors the relevant fields of the Gemini response.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Generate sends prompt to Gemini and returns the first candidate's text.
// The schema constrains output to JSON, but stray code fences have been seen
// in the wild, so callers must still strip them before parsing.
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   jobsSchema,
			Temperature:      0,
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini returned HTTP %d: %s", resp.StatusCode, string(respBytes))
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBytes, &genResp); err != nil {
		return "", fmt.Errorf("parse gemini response: %w", err)
	}

	if genResp.Error != nil {
		return "", fmt.Errorf("gemini error (%s): %s", genResp.Error.Status, genResp.Error.Message)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	return genResp.Candidates[0].Content.Parts[0].Text, nil
}
