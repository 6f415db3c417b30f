package ai

import (
	"context"

	"github.com/Evans508/JobConnectUg/internal/model"
)

// NopExtractor is a no-op extractor used when ai.enabled is false. Every
// message extracts to zero candidates, so entries settle as rejected with
// "No jobs found" instead of hanging.
type NopExtractor struct{}

// NewNopExtractor returns a NopExtractor.
func NewNopExtractor() *NopExtractor {
	return &NopExtractor{}
}

// Extract returns an empty result.
func (n *NopExtractor) Extract(_ context.Context, _ string) (*model.ExtractionResult, error) {
	return &model.ExtractionResult{}, nil
}
