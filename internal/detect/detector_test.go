package detect

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/factgraph/factgraph/internal/model"
	"github.com/factgraph/factgraph/internal/nli"
)

// fakeClassifier returns canned results in order
type fakeClassifier struct {
	results []nli.Result
	err     error
	pairs   []nli.Pair
	calls   int
}

func (f *fakeClassifier) Name() string { return "fake" }

func (f *fakeClassifier) ClassifyBatch(ctx context.Context, pairs []nli.Pair) ([]nli.Result, error) {
	f.calls++
	f.pairs = pairs
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func triple(head, relation, tail string) model.RelationTriple {
	return model.RelationTriple{
		Head:       &model.Entity{Text: head},
		Tail:       &model.Entity{Text: tail},
		Relation:   relation,
		Confidence: 1.0,
	}
}

func defaultThresholds() model.DetectConfig {
	return model.DetectConfig{ContradictionThreshold: 0.5, NeutralThreshold: 0.5}
}

func TestVerbalize(t *testing.T) {
	got := Verbalize(triple("Marie Curie", "born in", "Warsaw"))
	if got != "Marie Curie born in Warsaw." {
		t.Errorf("unexpected hypothesis: %q", got)
	}
}

func TestDetector_ThresholdBoundary(t *testing.T) {
	// Scores sitting exactly on a threshold flag the claim; scores just
	// below do not.
	classifier := &fakeClassifier{results: []nli.Result{
		{Label: model.LabelEntailment, Scores: model.Scores{Entailment: 0.5, Contradiction: 0.5, Neutral: 0.0}},
		{Label: model.LabelEntailment, Scores: model.Scores{Entailment: 0.02, Contradiction: 0.49, Neutral: 0.49}},
	}}

	detector := NewDetector(classifier, defaultThresholds())
	verdicts, err := detector.Judge(context.Background(), []model.RelationTriple{
		triple("A", "r", "B"),
		triple("C", "r", "D"),
	}, "the context")
	if err != nil {
		t.Fatalf("judge failed: %v", err)
	}

	if !verdicts[0].Hallucination {
		t.Error("expected contradiction = 0.5 flagged under inclusive threshold")
	}
	if verdicts[1].Hallucination {
		t.Error("expected 0.49/0.49 not flagged")
	}
}

func TestDetector_NeutralThreshold(t *testing.T) {
	classifier := &fakeClassifier{results: []nli.Result{
		{Label: model.LabelEntailment, Scores: model.Scores{Entailment: 0.45, Contradiction: 0.05, Neutral: 0.5}},
	}}

	detector := NewDetector(classifier, defaultThresholds())
	verdicts, err := detector.Judge(context.Background(), []model.RelationTriple{triple("A", "r", "B")}, "ctx")
	if err != nil {
		t.Fatalf("judge failed: %v", err)
	}

	// Argmax label and threshold flag are independent: top label can
	// disagree with the flag decision.
	if !verdicts[0].Hallucination {
		t.Error("expected neutral = 0.5 flagged")
	}
	if verdicts[0].Label != model.LabelEntailment {
		t.Errorf("expected argmax label kept, got %s", verdicts[0].Label)
	}
}

func TestDetector_SingleBatchCall(t *testing.T) {
	classifier := &fakeClassifier{results: []nli.Result{
		{Label: model.LabelEntailment, Scores: model.Scores{Entailment: 1.0}},
		{Label: model.LabelEntailment, Scores: model.Scores{Entailment: 1.0}},
		{Label: model.LabelEntailment, Scores: model.Scores{Entailment: 1.0}},
	}}

	detector := NewDetector(classifier, defaultThresholds())
	_, err := detector.Judge(context.Background(), []model.RelationTriple{
		triple("A", "r", "B"),
		triple("C", "r", "D"),
		triple("E", "r", "F"),
	}, "the reference paragraph")
	if err != nil {
		t.Fatalf("judge failed: %v", err)
	}

	if classifier.calls != 1 {
		t.Errorf("expected one batched call, got %d", classifier.calls)
	}
	for i, pair := range classifier.pairs {
		if pair.Premise != "the reference paragraph" {
			t.Errorf("pair %d: expected reference as premise, got %q", i, pair.Premise)
		}
		if !strings.HasSuffix(pair.Hypothesis, ".") {
			t.Errorf("pair %d: expected verbalized hypothesis with period, got %q", i, pair.Hypothesis)
		}
	}
}

func TestDetector_EmptyGraph(t *testing.T) {
	classifier := &fakeClassifier{}

	detector := NewDetector(classifier, defaultThresholds())
	verdicts, err := detector.Judge(context.Background(), nil, "ctx")
	if err != nil {
		t.Fatalf("judge failed: %v", err)
	}
	if len(verdicts) != 0 {
		t.Errorf("expected no verdicts, got %d", len(verdicts))
	}
	if classifier.calls != 0 {
		t.Errorf("expected classifier not called for empty graph, got %d calls", classifier.calls)
	}
}

func TestDetector_ClassifierError(t *testing.T) {
	classifier := &fakeClassifier{err: errors.New("endpoint down")}

	detector := NewDetector(classifier, defaultThresholds())
	_, err := detector.Judge(context.Background(), []model.RelationTriple{triple("A", "r", "B")}, "ctx")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "endpoint down") {
		t.Errorf("expected classifier error surfaced, got %v", err)
	}
}

func TestDetector_CountMismatch(t *testing.T) {
	classifier := &fakeClassifier{results: []nli.Result{
		{Label: model.LabelEntailment, Scores: model.Scores{Entailment: 1.0}},
	}}

	detector := NewDetector(classifier, defaultThresholds())
	_, err := detector.Judge(context.Background(), []model.RelationTriple{
		triple("A", "r", "B"),
		triple("C", "r", "D"),
	}, "ctx")
	if err == nil {
		t.Fatal("expected error for result count mismatch")
	}
}

func TestDetector_CustomThresholds(t *testing.T) {
	classifier := &fakeClassifier{results: []nli.Result{
		{Label: model.LabelNeutral, Scores: model.Scores{Entailment: 0.3, Neutral: 0.4, Contradiction: 0.3}},
	}}

	detector := NewDetector(classifier, model.DetectConfig{ContradictionThreshold: 0.9, NeutralThreshold: 0.4})
	verdicts, err := detector.Judge(context.Background(), []model.RelationTriple{triple("A", "r", "B")}, "ctx")
	if err != nil {
		t.Fatalf("judge failed: %v", err)
	}
	if !verdicts[0].Hallucination {
		t.Error("expected flag under lowered neutral threshold")
	}
}

func TestFlagged(t *testing.T) {
	verdicts := []model.Verdict{
		{Triple: triple("A", "r", "B"), Hallucination: false},
		{Triple: triple("C", "r", "D"), Hallucination: true},
		{Triple: triple("E", "r", "F"), Hallucination: true},
	}

	flagged := Flagged(verdicts)
	if len(flagged) != 2 {
		t.Fatalf("expected 2 flagged, got %d", len(flagged))
	}
	if flagged[0].Triple.Head.Text != "C" || flagged[1].Triple.Head.Text != "E" {
		t.Error("expected input order preserved")
	}

	if got := Flagged(nil); len(got) != 0 {
		t.Errorf("expected no flagged verdicts for empty input, got %d", len(got))
	}
}
