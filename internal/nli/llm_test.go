package nli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/factgraph/factgraph/internal/model"
)

// mockCompleter answers classification prompts by hypothesis content
type mockCompleter struct {
	byHypothesis map[string]string // hypothesis substring -> label
	fallback     string
	err          error
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	for needle, label := range m.byHypothesis {
		if strings.Contains(prompt, needle) {
			return fmt.Sprintf(`{"label": %q}`, label), nil
		}
	}
	if m.fallback != "" {
		return m.fallback, nil
	}
	return `{"label": "entailment"}`, nil
}

func TestLLMClassifier_ClassifyBatch(t *testing.T) {
	completer := &mockCompleter{byHypothesis: map[string]string{
		"Paris":  "entailment",
		"London": "contradiction",
		"Berlin": "neutral",
	}}

	classifier := NewLLMClassifier(completer, 2)
	pairs := []Pair{
		{Premise: "ctx", Hypothesis: "Paris is the capital of France."},
		{Premise: "ctx", Hypothesis: "London is the capital of France."},
		{Premise: "ctx", Hypothesis: "Berlin has a large airport."},
	}

	results, err := classifier.ClassifyBatch(context.Background(), pairs)
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Order must match input order regardless of completion order
	wantLabels := []model.Label{model.LabelEntailment, model.LabelContradiction, model.LabelNeutral}
	for i, want := range wantLabels {
		if results[i].Label != want {
			t.Errorf("result %d: expected %s, got %s", i, want, results[i].Label)
		}
	}

	// One-hot distributions
	if results[1].Scores.Contradiction != 1.0 || results[1].Scores.Entailment != 0 {
		t.Errorf("expected one-hot contradiction scores, got %+v", results[1].Scores)
	}
}

func TestLLMClassifier_Empty(t *testing.T) {
	classifier := NewLLMClassifier(&mockCompleter{}, 2)

	results, err := classifier.ClassifyBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("expected no error for empty batch, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty results, got %d", len(results))
	}
}

func TestLLMClassifier_UnknownLabel(t *testing.T) {
	completer := &mockCompleter{fallback: `{"label": "definitely"}`}

	classifier := NewLLMClassifier(completer, 1)
	_, err := classifier.ClassifyBatch(context.Background(), []Pair{{Premise: "p", Hypothesis: "h"}})
	if err == nil {
		t.Fatal("expected error for unknown label")
	}
	if !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("expected ErrUnknownLabel, got %v", err)
	}
}

func TestLLMClassifier_MissingLabel(t *testing.T) {
	completer := &mockCompleter{fallback: `{"verdict": "entailment"}`}

	classifier := NewLLMClassifier(completer, 1)
	_, err := classifier.ClassifyBatch(context.Background(), []Pair{{Premise: "p", Hypothesis: "h"}})
	if err == nil {
		t.Fatal("expected error for missing label field")
	}
	if !strings.Contains(err.Error(), "missing label") {
		t.Errorf("expected missing label error, got %v", err)
	}
}

func TestLLMClassifier_CompleterError(t *testing.T) {
	completer := &mockCompleter{err: errors.New("rate limited")}

	classifier := NewLLMClassifier(completer, 4)
	_, err := classifier.ClassifyBatch(context.Background(), []Pair{
		{Premise: "p", Hypothesis: "a"},
		{Premise: "p", Hypothesis: "b"},
	})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	// The lowest failing index reports
	if !strings.Contains(err.Error(), "classify pair 0") {
		t.Errorf("expected pair index in error, got %v", err)
	}
}

func TestLLMClassifier_FencedResponse(t *testing.T) {
	completer := &mockCompleter{fallback: "```json\n{\"label\": \"neutral\"}\n```"}

	classifier := NewLLMClassifier(completer, 1)
	results, err := classifier.ClassifyBatch(context.Background(), []Pair{{Premise: "p", Hypothesis: "h"}})
	if err != nil {
		t.Fatalf("classify failed on fenced response: %v", err)
	}
	if results[0].Label != model.LabelNeutral {
		t.Errorf("expected neutral, got %s", results[0].Label)
	}
}
