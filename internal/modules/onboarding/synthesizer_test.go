package onboarding_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/brandprompt-backend/internal/domain/brand"
	"github.com/yungbote/brandprompt-backend/internal/modules/onboarding"
	"github.com/yungbote/brandprompt-backend/internal/modules/onboarding/onboardingtest"
	"github.com/yungbote/brandprompt-backend/internal/pkg/logger"
)

func newSynth(t *testing.T, gen onboarding.StructuredGenerator) *onboarding.Synthesizer {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return onboarding.NewSynthesizer(gen, log)
}

func TestSynthesizeReturnsTenByFive(t *testing.T) {
	gen := onboardingtest.Valid()
	ps, err := newSynth(t, gen).Synthesize(context.Background(), "# Acme docs", "https://acme.test")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if len(ps.Categories) != 10 {
		t.Fatalf("categories: want=10 got=%d", len(ps.Categories))
	}
	for i, c := range ps.Categories {
		if len(c.Questions) != 5 {
			t.Fatalf("category %d questions: want=5 got=%d", i, len(c.Questions))
		}
	}
	if gen.Calls != 1 {
		t.Fatalf("generator calls: want=1 got=%d", gen.Calls)
	}
	if gen.User != "# Acme docs" {
		t.Fatalf("document should be sent verbatim as user content, got=%q", gen.User)
	}
	if gen.System != onboarding.SystemDirective || gen.SchemaName != onboarding.PromptSetSchemaName {
		t.Fatalf("unexpected directive or schema name: %q", gen.SchemaName)
	}
}

func TestSynthesizeWrapsGeneratorFailure(t *testing.T) {
	cause := errors.New("model refused: policy")
	gen := &onboardingtest.Generator{Err: cause}
	_, err := newSynth(t, gen).Synthesize(context.Background(), "doc", "https://acme.test")
	if !brand.IsKind(err, brand.KindSynthesis) {
		t.Fatalf("want SynthesisError got=%v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("SynthesisError should wrap the generator error")
	}
}

func TestSynthesizeRejectsShapeViolations(t *testing.T) {
	cases := map[string]map[string]any{
		"nine categories": onboardingtest.PromptSetObject(9, 5),
		"six questions":   onboardingtest.PromptSetObject(10, 6),
		"wrong type":      {"categories": "none"},
		"extra field":     {"categories": onboardingtest.PromptSetObject(10, 5)["categories"], "notes": "x"},
		"empty":           {},
	}
	for name, out := range cases {
		gen := &onboardingtest.Generator{Output: out}
		_, err := newSynth(t, gen).Synthesize(context.Background(), "doc", "https://acme.test")
		if !brand.IsKind(err, brand.KindSynthesis) {
			t.Fatalf("%s: want SynthesisError got=%v", name, err)
		}
	}
}

func TestSynthesizeDoesNotMemoize(t *testing.T) {
	gen := onboardingtest.Valid()
	s := newSynth(t, gen)
	for i := 0; i < 2; i++ {
		if _, err := s.Synthesize(context.Background(), "same doc", "https://acme.test"); err != nil {
			t.Fatalf("Synthesize #%d: %v", i, err)
		}
	}
	if gen.Calls != 2 {
		t.Fatalf("generator calls: want=2 got=%d", gen.Calls)
	}
}

func TestDirectiveNamesEveryPerspective(t *testing.T) {
	if len(onboarding.Perspectives) != 10 {
		t.Fatalf("perspectives: want=10 got=%d", len(onboarding.Perspectives))
	}
	for _, p := range onboarding.Perspectives {
		if !strings.Contains(onboarding.SystemDirective, p) {
			t.Fatalf("directive missing perspective %q", p)
		}
	}
}

func TestPromptSetSchemaCardinality(t *testing.T) {
	schema := onboarding.PromptSetSchema()
	cats := schema["properties"].(map[string]any)["categories"].(map[string]any)
	if cats["minItems"] != 10 || cats["maxItems"] != 10 {
		t.Fatalf("categories bounds: %v..%v", cats["minItems"], cats["maxItems"])
	}
	qs := cats["items"].(map[string]any)["properties"].(map[string]any)["questions"].(map[string]any)
	if qs["minItems"] != 5 || qs["maxItems"] != 5 {
		t.Fatalf("questions bounds: %v..%v", qs["minItems"], qs["maxItems"])
	}
}
