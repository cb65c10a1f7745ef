// Package eval runs prompt versions against test cases and scores the output.
package eval

import (
	"context"
	"fmt"
	"strings"

	"github.com/promptdiff/promptdiff/provider"
	"github.com/promptdiff/promptdiff/template"
)

// TestCase is a single test case for prompt evaluation.
type TestCase struct {
	Name      string         `json:"name"`
	InputVars map[string]any `json:"input_vars"`
	Expected  string         `json:"expected"`
	Weight    float64        `json:"weight"`
}

// Scorer scores a prompt output against the expected output, in [0, 1].
type Scorer interface {
	Score(output, expected string) float64
}

// ScorerFunc adapts a function to Scorer.
type ScorerFunc func(output, expected string) float64

// Score implements Scorer.
func (f ScorerFunc) Score(output, expected string) float64 {
	return f(output, expected)
}

// ExactMatch scores 1.0 when output equals expected after trimming, else 0.0.
var ExactMatch = ScorerFunc(func(output, expected string) float64 {
	if strings.TrimSpace(output) == strings.TrimSpace(expected) {
		return 1.0
	}
	return 0.0
})

// Contains scores 1.0 when the trimmed expected text appears in the output.
var Contains = ScorerFunc(func(output, expected string) float64 {
	if strings.Contains(strings.TrimSpace(output), strings.TrimSpace(expected)) {
		return 1.0
	}
	return 0.0
})

// WordOverlap scores by Jaccard similarity over case-folded word sets.
var WordOverlap = ScorerFunc(func(output, expected string) float64 {
	out := wordSet(output)
	exp := wordSet(expected)
	if len(out) == 0 && len(exp) == 0 {
		return 1.0
	}
	if len(out) == 0 || len(exp) == 0 {
		return 0.0
	}
	intersection := 0
	for w := range out {
		if exp[w] {
			intersection++
		}
	}
	return float64(intersection) / float64(len(out)+len(exp)-intersection)
})

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = true
	}
	return set
}

// Runner produces output for prompt content and input variables. The default
// substitutes variables into the template; a ProviderRunner calls an LLM.
type Runner interface {
	Run(ctx context.Context, content string, vars map[string]any) (string, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, content string, vars map[string]any) (string, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, content string, vars map[string]any) (string, error) {
	return f(ctx, content, vars)
}

// TemplateRunner renders the prompt content with the template engine, with no
// LLM call. Render failures fall back to the raw content.
type TemplateRunner struct {
	engine *template.Engine
}

// NewTemplateRunner creates the default no-LLM runner.
func NewTemplateRunner() *TemplateRunner {
	return &TemplateRunner{engine: template.NewEngine()}
}

// Run implements Runner.
func (r *TemplateRunner) Run(ctx context.Context, content string, vars map[string]any) (string, error) {
	out, err := r.engine.Render(ctx, content, vars)
	if err != nil {
		return content, nil
	}
	return out, nil
}

// ProviderRunner renders the prompt content, then sends it to an LLM provider.
type ProviderRunner struct {
	Provider provider.Provider
	Model    string

	engine *template.Engine
}

// NewProviderRunner creates a runner backed by an LLM provider.
func NewProviderRunner(p provider.Provider, model string) *ProviderRunner {
	return &ProviderRunner{Provider: p, Model: model, engine: template.NewEngine()}
}

// Run implements Runner.
func (r *ProviderRunner) Run(ctx context.Context, content string, vars map[string]any) (string, error) {
	rendered, err := r.engine.Render(ctx, content, vars)
	if err != nil {
		rendered = content
	}
	resp, err := r.Provider.Complete(ctx, provider.CompletionRequest{
		Prompt: rendered,
		Model:  r.Model,
	})
	if err != nil {
		return "", fmt.Errorf("run prompt: %w", err)
	}
	return resp.Content, nil
}

var (
	_ Runner = (*TemplateRunner)(nil)
	_ Runner = (*ProviderRunner)(nil)
)
