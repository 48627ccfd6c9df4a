// Package onboardingtest provides collaborator fakes for onboarding tests.
package onboardingtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/brandprompt-backend/internal/modules/onboarding"
)

// Fetcher returns a canned result or error and counts calls.
type Fetcher struct {
	mu     sync.Mutex
	Result onboarding.FetchResult
	Err    error
	Calls  int
	URLs   []string
}

// Page builds a Fetcher returning one markdown item.
func Page(markdown string) *Fetcher {
	return &Fetcher{Result: onboarding.FetchResult{Items: []onboarding.FetchItem{{Text: markdown}}}}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (onboarding.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.URLs = append(f.URLs, url)
	if f.Err != nil {
		return onboarding.FetchResult{}, f.Err
	}
	return f.Result, nil
}

// Generator returns Output (or Err) and records the last request. OnCall,
// when set, runs inside every call before the result is returned.
type Generator struct {
	mu         sync.Mutex
	Output     map[string]any
	Err        error
	OnCall     func()
	Calls      int
	System     string
	User       string
	SchemaName string
	Schema     map[string]any
}

// Valid builds a Generator returning a well-formed 10x5 object.
func Valid() *Generator {
	return &Generator{Output: PromptSetObject(10, 5)}
}

func (g *Generator) GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Calls++
	g.System, g.User, g.SchemaName, g.Schema = system, user, schemaName, schema
	if g.OnCall != nil {
		g.OnCall()
	}
	if g.Err != nil {
		return nil, g.Err
	}
	return g.Output, nil
}

// PromptSetObject builds generator-style output with the given dimensions.
func PromptSetObject(categories, questions int) map[string]any {
	cats := make([]any, 0, categories)
	for i := 0; i < categories; i++ {
		qs := make([]any, 0, questions)
		for j := 0; j < questions; j++ {
			qs = append(qs, fmt.Sprintf("What does the product offer for need %d.%d?", i, j))
		}
		name := fmt.Sprintf("Perspective %d", i)
		if i < len(onboarding.Perspectives) {
			name = onboarding.Perspectives[i]
		}
		cats = append(cats, map[string]any{"name": name, "questions": qs})
	}
	return map[string]any{"categories": cats}
}
