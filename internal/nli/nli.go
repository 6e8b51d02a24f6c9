package nli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/factgraph/factgraph/internal/model"
)

// ErrUnknownLabel is returned when a classifier emits a label outside
// the canonical set. Score semantics depend on knowing what each label
// means, so this is never silently skipped.
var ErrUnknownLabel = errors.New("unrecognized inference label")

// Pair is one classification input: does Premise entail Hypothesis?
type Pair struct {
	Premise    string
	Hypothesis string
}

// Result is the classification outcome for one pair.
type Result struct {
	Label  model.Label
	Scores model.Scores
}

// Classifier classifies premise/hypothesis pairs. Implementations must
// return exactly one Result per input pair, in input order.
type Classifier interface {
	// Name returns the classifier name
	Name() string

	// ClassifyBatch classifies all pairs. Any per-pair failure fails
	// the whole batch.
	ClassifyBatch(ctx context.Context, pairs []Pair) ([]Result, error)
}

// labelMapping maps model-specific label spellings to canonical ones.
var labelMapping = map[string]model.Label{
	"entailment":    model.LabelEntailment,
	"ENTAILMENT":    model.LabelEntailment,
	"contradiction": model.LabelContradiction,
	"CONTRADICTION": model.LabelContradiction,
	"neutral":       model.LabelNeutral,
	"NEUTRAL":       model.LabelNeutral,
}

// CanonicalLabel normalizes a raw classifier label. Unmapped labels are
// lowercased and retried before giving up with ErrUnknownLabel.
func CanonicalLabel(raw string) (model.Label, error) {
	if mapped, ok := labelMapping[raw]; ok {
		return mapped, nil
	}
	lower := strings.ToLower(strings.TrimSpace(raw))
	switch model.Label(lower) {
	case model.LabelEntailment, model.LabelContradiction, model.LabelNeutral:
		return model.Label(lower), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLabel, raw)
}

// setScore assigns a probability to the canonical label's slot.
func setScore(s *model.Scores, label model.Label, p float64) {
	switch label {
	case model.LabelEntailment:
		s.Entailment = p
	case model.LabelContradiction:
		s.Contradiction = p
	case model.LabelNeutral:
		s.Neutral = p
	}
}
