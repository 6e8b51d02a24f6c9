// Package correct proposes replacement triples for flagged claims and
// rewrites the original output text to use them.
package correct

import (
	"context"
	"fmt"
	"strings"

	"github.com/factgraph/factgraph/internal/llm"
	"github.com/factgraph/factgraph/internal/model"
)

// correctionInstruction precedes every correction request. The reply
// contract is a bare JSON object so it survives DecodeJSON untouched.
const correctionInstruction = "You are a fact-checking assistant. Given a context paragraph and " +
	"a possibly hallucinated fact expressed as a triple, you will propose " +
	"a corrected triple that is consistent with the context.\n\n" +
	"Return ONLY a JSON object with keys: head, relation, tail.\n\n"

// Completer is the LLM capability the corrector needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Corrector asks an LLM for a context-consistent replacement for each
// flagged triple.
type Corrector struct {
	completer Completer
}

func NewCorrector(completer Completer) (*Corrector, error) {
	if completer == nil {
		return nil, fmt.Errorf("corrector requires an LLM completer")
	}
	return &Corrector{completer: completer}, nil
}

// Correct proposes one replacement per flagged triple, preserving input
// order. Requests go out one per triple with no deduplication of
// identical triples. A reply that cannot be decoded fails the call.
func (c *Corrector) Correct(ctx context.Context, flagged []model.RelationTriple, reference string) ([]model.Correction, error) {
	corrections := make([]model.Correction, 0, len(flagged))
	for i, triple := range flagged {
		raw, err := c.completer.Complete(ctx, buildCorrectionPrompt(triple, reference))
		if err != nil {
			return nil, fmt.Errorf("correct triple %d: %w", i, err)
		}
		corrected, err := parseCorrection(raw, triple)
		if err != nil {
			return nil, fmt.Errorf("correct triple %d: %w", i, err)
		}
		corrections = append(corrections, model.Correction{Original: triple, Corrected: corrected})
	}
	return corrections, nil
}

func buildCorrectionPrompt(triple model.RelationTriple, reference string) string {
	return fmt.Sprintf("%sContext:\n%s\n\nOriginal triple sentence:\n%s.\n",
		correctionInstruction, reference, triple.Sentence())
}

// parseCorrection decodes a correction reply. Absent fields fall back to
// the original triple, so a partial reply still yields a usable
// correction. The corrected entities are fresh instances that inherit
// the original types even when the text is unchanged.
func parseCorrection(raw string, original model.RelationTriple) (model.RelationTriple, error) {
	var payload struct {
		Head     *string `json:"head"`
		Relation *string `json:"relation"`
		Tail     *string `json:"tail"`
	}
	if err := llm.DecodeJSON(raw, &payload); err != nil {
		return model.RelationTriple{}, fmt.Errorf("decode correction: %w", err)
	}
	head := &model.Entity{Text: fieldOr(payload.Head, original.Head.Text), Type: original.Head.Type}
	tail := &model.Entity{Text: fieldOr(payload.Tail, original.Tail.Text), Type: original.Tail.Type}
	return model.RelationTriple{
		Head:       head,
		Relation:   fieldOr(payload.Relation, original.Relation),
		Tail:       tail,
		Confidence: 1.0,
	}, nil
}

func fieldOr(v *string, fallback string) string {
	if v == nil {
		return strings.TrimSpace(fallback)
	}
	return strings.TrimSpace(*v)
}
