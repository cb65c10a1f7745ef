package eval

import (
	"context"
	"fmt"
)

// passThreshold is the minimum per-case score for a version to pass overall.
const passThreshold = 0.5

// Detail records the outcome of one test case.
type Detail struct {
	Test     string         `json:"test"`
	Input    map[string]any `json:"input"`
	Expected string         `json:"expected"`
	Output   string         `json:"output"`
	Score    float64        `json:"score"`
	Weight   float64        `json:"weight"`
}

// Result is the outcome of evaluating one prompt version.
type Result struct {
	PromptName string    `json:"prompt_name"`
	Version    int       `json:"version"`
	Scores     []float64 `json:"scores"`
	TestNames  []string  `json:"test_names"`
	Details    []Detail  `json:"details"`
}

// MeanScore is the unweighted average score, 0.0 with no cases.
func (r *Result) MeanScore() float64 {
	if len(r.Scores) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, s := range r.Scores {
		sum += s
	}
	return sum / float64(len(r.Scores))
}

// WeightedScore is the weight-normalized average score, 0.0 with no cases or
// zero total weight.
func (r *Result) WeightedScore() float64 {
	if len(r.Details) == 0 {
		return 0.0
	}
	totalWeight := 0.0
	weighted := 0.0
	for _, d := range r.Details {
		totalWeight += d.Weight
		weighted += d.Score * d.Weight
	}
	if totalWeight == 0 {
		return 0.0
	}
	return weighted / totalWeight
}

// Passed reports whether every case scored at least the pass threshold.
func (r *Result) Passed() bool {
	for _, s := range r.Scores {
		if s < passThreshold {
			return false
		}
	}
	return true
}

// VersionComparison summarizes one version within a Comparison.
type VersionComparison struct {
	Version       int     `json:"version"`
	MeanScore     float64 `json:"mean_score"`
	WeightedScore float64 `json:"weighted_score"`
	Passed        bool    `json:"passed"`
}

// Comparison ranks evaluation results across versions.
type Comparison struct {
	Versions    []VersionComparison `json:"versions"`
	BestVersion int                 `json:"best_version"`
}

// Evaluator runs prompt versions against test cases. The zero value is not
// usable; construct with NewEvaluator.
type Evaluator struct {
	runner Runner
	scorer Scorer
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithRunner replaces the default template runner.
func WithRunner(r Runner) EvaluatorOption {
	return func(e *Evaluator) {
		e.runner = r
	}
}

// WithScorer replaces the default word-overlap scorer.
func WithScorer(s Scorer) EvaluatorOption {
	return func(e *Evaluator) {
		e.scorer = s
	}
}

// NewEvaluator creates an evaluator. Defaults: template substitution runner,
// word-overlap scorer.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		runner: NewTemplateRunner(),
		scorer: WordOverlap,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Evaluate runs the prompt content against every test case and scores each
// output. Cases with unset weight count as weight 1.0.
func (e *Evaluator) Evaluate(ctx context.Context, promptName string, version int, content string, cases []TestCase) (*Result, error) {
	result := &Result{PromptName: promptName, Version: version}
	for _, tc := range cases {
		output, err := e.runner.Run(ctx, content, tc.InputVars)
		if err != nil {
			return nil, fmt.Errorf("run case %q: %w", tc.Name, err)
		}
		score := e.scorer.Score(output, tc.Expected)
		weight := tc.Weight
		if weight == 0 {
			weight = 1.0
		}
		result.Scores = append(result.Scores, score)
		result.TestNames = append(result.TestNames, tc.Name)
		result.Details = append(result.Details, Detail{
			Test:     tc.Name,
			Input:    tc.InputVars,
			Expected: tc.Expected,
			Output:   output,
			Score:    score,
			Weight:   weight,
		})
	}
	return result, nil
}

// Compare ranks results by weighted score. BestVersion is 0 with no results.
func Compare(results []*Result) *Comparison {
	cmp := &Comparison{}
	var best *Result
	for _, r := range results {
		cmp.Versions = append(cmp.Versions, VersionComparison{
			Version:       r.Version,
			MeanScore:     r.MeanScore(),
			WeightedScore: r.WeightedScore(),
			Passed:        r.Passed(),
		})
		if best == nil || r.WeightedScore() > best.WeightedScore() {
			best = r
		}
	}
	if best != nil {
		cmp.BestVersion = best.Version
	}
	return cmp
}
