// Package detect judges extracted claims against a reference context.
// Each claim is verbalized into a hypothesis sentence and scored by an
// inference classifier; threshold rules decide which claims the context
// fails to support.
package detect

import (
	"context"
	"fmt"

	"github.com/factgraph/factgraph/internal/model"
	"github.com/factgraph/factgraph/internal/nli"
)

// Verbalize renders a claim as the hypothesis sentence handed to the
// classifier: "head relation tail." with a closing period.
func Verbalize(triple model.RelationTriple) string {
	return triple.Sentence() + "."
}

// Detector flags claims the reference context contradicts or fails to
// support. A claim is a hallucination when its contradiction score
// reaches ContradictionThreshold or its neutral score reaches
// NeutralThreshold; both comparisons are inclusive so a score sitting
// exactly on a threshold flags the claim.
type Detector struct {
	classifier             nli.Classifier
	contradictionThreshold float64
	neutralThreshold       float64
}

// NewDetector creates a detector with the given thresholds.
func NewDetector(classifier nli.Classifier, cfg model.DetectConfig) *Detector {
	return &Detector{
		classifier:             classifier,
		contradictionThreshold: cfg.ContradictionThreshold,
		neutralThreshold:       cfg.NeutralThreshold,
	}
}

// Judge classifies every claim against the context in a single batch
// and returns one verdict per claim, in claim order. The verdict label
// is the classifier's argmax and is recorded independently of the
// hallucination decision: the two can disagree and both signals are
// kept.
func (d *Detector) Judge(ctx context.Context, triples []model.RelationTriple, reference string) ([]model.Verdict, error) {
	if len(triples) == 0 {
		return []model.Verdict{}, nil
	}

	pairs := make([]nli.Pair, len(triples))
	for i, triple := range triples {
		pairs[i] = nli.Pair{Premise: reference, Hypothesis: Verbalize(triple)}
	}

	results, err := d.classifier.ClassifyBatch(ctx, pairs)
	if err != nil {
		return nil, fmt.Errorf("classify batch: %w", err)
	}
	if len(results) != len(triples) {
		return nil, fmt.Errorf("classifier returned %d results for %d claims", len(results), len(triples))
	}

	verdicts := make([]model.Verdict, len(triples))
	for i, result := range results {
		flagged := result.Scores.Contradiction >= d.contradictionThreshold ||
			result.Scores.Neutral >= d.neutralThreshold

		verdicts[i] = model.Verdict{
			Triple:        triples[i],
			Label:         result.Label,
			Scores:        result.Scores,
			Hallucination: flagged,
		}
	}

	return verdicts, nil
}

// Flagged filters a verdict list down to the hallucinated claims,
// preserving order.
func Flagged(verdicts []model.Verdict) []model.Verdict {
	var flagged []model.Verdict
	for _, verdict := range verdicts {
		if verdict.Hallucination {
			flagged = append(flagged, verdict)
		}
	}
	return flagged
}
