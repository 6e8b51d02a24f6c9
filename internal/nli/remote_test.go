package nli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/factgraph/factgraph/internal/model"
)

func TestRemoteClassifier_ClassifyBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req remoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if len(req.Inputs) != 2 {
			t.Errorf("expected 2 inputs, got %d", len(req.Inputs))
		}
		if req.Inputs[0].Text != "the context" {
			t.Errorf("expected premise in text field, got %q", req.Inputs[0].Text)
		}

		scores := [][]remoteScore{
			{
				{Label: "ENTAILMENT", Score: 0.92},
				{Label: "CONTRADICTION", Score: 0.03},
				{Label: "NEUTRAL", Score: 0.05},
			},
			{
				{Label: "ENTAILMENT", Score: 0.10},
				{Label: "CONTRADICTION", Score: 0.75},
				{Label: "NEUTRAL", Score: 0.15},
			},
		}
		_ = json.NewEncoder(w).Encode(scores)
	}))
	defer server.Close()

	classifier, err := NewRemoteClassifier(server.URL, 0)
	if err != nil {
		t.Fatalf("failed to create classifier: %v", err)
	}

	results, err := classifier.ClassifyBatch(context.Background(), []Pair{
		{Premise: "the context", Hypothesis: "claim one."},
		{Premise: "the context", Hypothesis: "claim two."},
	})
	if err != nil {
		t.Fatalf("classify failed: %v", err)
	}

	if results[0].Label != model.LabelEntailment {
		t.Errorf("expected entailment, got %s", results[0].Label)
	}
	if results[0].Scores.Entailment != 0.92 || results[0].Scores.Neutral != 0.05 {
		t.Errorf("unexpected distribution: %+v", results[0].Scores)
	}
	if results[1].Label != model.LabelContradiction {
		t.Errorf("expected contradiction, got %s", results[1].Label)
	}
	if results[1].Scores.Contradiction != 0.75 {
		t.Errorf("unexpected contradiction score: %f", results[1].Scores.Contradiction)
	}
}

func TestRemoteClassifier_CountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scores := [][]remoteScore{{{Label: "neutral", Score: 1.0}}}
		_ = json.NewEncoder(w).Encode(scores)
	}))
	defer server.Close()

	classifier, err := NewRemoteClassifier(server.URL, 0)
	if err != nil {
		t.Fatalf("failed to create classifier: %v", err)
	}

	_, err = classifier.ClassifyBatch(context.Background(), []Pair{
		{Premise: "p", Hypothesis: "a"},
		{Premise: "p", Hypothesis: "b"},
	})
	if err == nil {
		t.Fatal("expected error for count mismatch")
	}
	if !strings.Contains(err.Error(), "1 results for 2 pairs") {
		t.Errorf("expected count mismatch error, got %v", err)
	}
}

func TestRemoteClassifier_UnknownLabel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scores := [][]remoteScore{{{Label: "LABEL_0", Score: 1.0}}}
		_ = json.NewEncoder(w).Encode(scores)
	}))
	defer server.Close()

	classifier, err := NewRemoteClassifier(server.URL, 0)
	if err != nil {
		t.Fatalf("failed to create classifier: %v", err)
	}

	_, err = classifier.ClassifyBatch(context.Background(), []Pair{{Premise: "p", Hypothesis: "h"}})
	if err == nil {
		t.Fatal("expected error for unknown label")
	}
}

func TestRemoteClassifier_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		scores := [][]remoteScore{{{Label: "entailment", Score: 1.0}}}
		_ = json.NewEncoder(w).Encode(scores)
	}))
	defer server.Close()

	// Override sleep for fast tests
	origSleep := classifySleepFunc
	classifySleepFunc = func(d time.Duration) {}
	defer func() { classifySleepFunc = origSleep }()

	classifier, err := NewRemoteClassifier(server.URL, 0)
	if err != nil {
		t.Fatalf("failed to create classifier: %v", err)
	}

	results, err := classifier.ClassifyBatch(context.Background(), []Pair{{Premise: "p", Hypothesis: "h"}})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if results[0].Label != model.LabelEntailment {
		t.Errorf("expected entailment, got %s", results[0].Label)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestRemoteClassifier_PermanentFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "too many tokens"}`))
	}))
	defer server.Close()

	classifier, err := NewRemoteClassifier(server.URL, 0)
	if err != nil {
		t.Fatalf("failed to create classifier: %v", err)
	}

	_, err = classifier.ClassifyBatch(context.Background(), []Pair{{Premise: "p", Hypothesis: "h"}})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "too many tokens") {
		t.Errorf("expected API error message, got %v", err)
	}
}

func TestNewRemoteClassifier_RequiresEndpoint(t *testing.T) {
	if _, err := NewRemoteClassifier("", 0); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
}
