package onboarding

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

// Synthesizer turns a page document into a Prompt Set with a single
// Structured Generator call. Results are never cached.
type Synthesizer struct {
	gen StructuredGenerator
	log *logger.Logger
}

func NewSynthesizer(gen StructuredGenerator, log *logger.Logger) *Synthesizer {
	return &Synthesizer{gen: gen, log: log.With("component", "PromptSynthesizer")}
}

// Synthesize sends the fixed directive plus document. sourceURL is used for
// logging only. Any generator failure, and any output that does not decode to
// exactly 10x5, is a SynthesisError; nothing is repaired.
func (s *Synthesizer) Synthesize(ctx context.Context, document, sourceURL string) (brand.PromptSet, error) {
	const op = "onboarding.Synthesize"
	if s.gen == nil {
		return brand.PromptSet{}, brand.Synthesis(op, "structured generator not configured", nil)
	}

	obj, err := s.gen.GenerateJSON(ctx, SystemDirective, document, PromptSetSchemaName, PromptSetSchema())
	if err != nil {
		s.log.Warn("structured generation failed", "url", sourceURL, "error", err)
		return brand.PromptSet{}, brand.Synthesis(op, "structured generation failed", err)
	}

	ps, err := decodeGenerated(obj)
	if err != nil {
		s.log.Warn("generator output not decodable", "url", sourceURL, "error", err)
		return brand.PromptSet{}, brand.Synthesis(op, "generator output does not match the prompt set schema", err)
	}
	if err := brand.ValidateSynthesized(ps); err != nil {
		s.log.Warn("generator output violates prompt set shape", "url", sourceURL, "error", err)
		return brand.PromptSet{}, brand.Synthesis(op, "generator output does not match the prompt set schema", err)
	}

	s.log.Debug("prompt set synthesized", "url", sourceURL, "categories", len(ps.Categories))
	return ps, nil
}

func decodeGenerated(obj map[string]any) (brand.PromptSet, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return brand.PromptSet{}, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var ps brand.PromptSet
	if err := dec.Decode(&ps); err != nil {
		return brand.PromptSet{}, err
	}
	return ps, nil
}
