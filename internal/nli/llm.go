package nli

import (
	"context"
	"fmt"
	"sync"

	"github.com/factgraph/factgraph/internal/llm"
	"github.com/factgraph/factgraph/internal/model"
)

// Completer is the completion surface the LLM classifier needs. Any
// provider from the llm package satisfies it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const classifierInstruction = `You are a natural language inference (NLI) classifier. Given a premise and a hypothesis, you must decide whether the hypothesis is ENTAILMENT, CONTRADICTION, or NEUTRAL with respect to the premise. Respond ONLY with a JSON object of the form {"label": "entailment" | "contradiction" | "neutral"}.`

// LLMClassifier performs inference classification by prompting a
// completion provider once per pair. Scores are one-hot: the model
// reports a label, not a distribution.
type LLMClassifier struct {
	completer  Completer
	maxWorkers int
}

// NewLLMClassifier creates a classifier over the given completer.
func NewLLMClassifier(completer Completer, maxWorkers int) *LLMClassifier {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	return &LLMClassifier{
		completer:  completer,
		maxWorkers: maxWorkers,
	}
}

// Name returns the classifier name
func (c *LLMClassifier) Name() string {
	return "llm"
}

// ClassifyBatch classifies all pairs concurrently with bounded workers.
// Results keep input order. The first failing pair (lowest index) fails
// the batch.
func (c *LLMClassifier) ClassifyBatch(ctx context.Context, pairs []Pair) ([]Result, error) {
	if len(pairs) == 0 {
		return []Result{}, nil
	}

	results := make([]Result, len(pairs))
	errs := make([]error, len(pairs))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, c.maxWorkers)

	for i, pair := range pairs {
		wg.Add(1)
		go func(idx int, p Pair) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx], errs[idx] = c.classifyOne(ctx, p)
		}(i, pair)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("classify pair %d: %w", i, err)
		}
	}

	return results, nil
}

// classifyOne prompts the completer for a single pair and parses the
// JSON verdict.
func (c *LLMClassifier) classifyOne(ctx context.Context, pair Pair) (Result, error) {
	prompt := buildClassifyPrompt(pair.Premise, pair.Hypothesis)

	raw, err := c.completer.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("complete: %w", err)
	}

	return parseClassifyResponse(raw)
}

func buildClassifyPrompt(premise, hypothesis string) string {
	return fmt.Sprintf("%s\n\nPremise: %s\nHypothesis: %s\n", classifierInstruction, premise, hypothesis)
}

// parseClassifyResponse decodes the {"label": ...} object and builds a
// one-hot score distribution for the reported label.
func parseClassifyResponse(raw string) (Result, error) {
	var payload struct {
		Label string `json:"label"`
	}
	if err := llm.DecodeJSON(raw, &payload); err != nil {
		return Result{}, fmt.Errorf("parse response: %w", err)
	}
	if payload.Label == "" {
		return Result{}, fmt.Errorf("response missing label field")
	}

	label, err := CanonicalLabel(payload.Label)
	if err != nil {
		return Result{}, err
	}

	var scores model.Scores
	setScore(&scores, label, 1.0)

	return Result{Label: label, Scores: scores}, nil
}
