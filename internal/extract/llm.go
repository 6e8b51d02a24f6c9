package extract

import (
	"context"
	"fmt"

	"github.com/factgraph/factgraph/internal/llm"
	"github.com/factgraph/factgraph/internal/model"
)

const extractionInstruction = "You are an information extraction system. Given an LLM answer, you will extract named entities and semantic relations between them as JSON."

// LLMExtractor extracts claims by prompting a completion provider for a
// JSON entity/relation listing of the output text.
type LLMExtractor struct {
	completer Completer
}

// NewLLMExtractor creates an extractor over the given completer.
func NewLLMExtractor(completer Completer) *LLMExtractor {
	return &LLMExtractor{completer: completer}
}

// Name returns the backend name
func (e *LLMExtractor) Name() string {
	return "llm"
}

// Extract prompts for entities and triples and normalizes the response.
// An undecodable response is fatal: partial extraction would silently
// shrink the audit surface.
func (e *LLMExtractor) Extract(ctx context.Context, output string) (*model.ExtractionResult, error) {
	raw, err := e.completer.Complete(ctx, buildExtractionPrompt(output))
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	result, err := parseExtractionResponse(raw)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func buildExtractionPrompt(output string) string {
	return extractionInstruction + "\n\n" +
		"Return a JSON object with the following keys: 'entities' and 'triples'.\n" +
		"- 'entities' is a list of objects with fields: text, type.\n" +
		"- 'triples' is a list of objects with fields: head, relation, tail.\n\n" +
		"Answer text:\n" + output
}

// parseExtractionResponse decodes the model's JSON and feeds it through
// the normalizer: entities first so their types win, then triples.
func parseExtractionResponse(raw string) (*model.ExtractionResult, error) {
	var payload struct {
		Entities []struct {
			Text string `json:"text"`
			Type string `json:"type"`
		} `json:"entities"`
		Triples []struct {
			Head     string `json:"head"`
			Relation string `json:"relation"`
			Tail     string `json:"tail"`
		} `json:"triples"`
	}
	if err := llm.DecodeJSON(raw, &payload); err != nil {
		return nil, fmt.Errorf("parse extraction response: %w", err)
	}

	normalizer := NewNormalizer()
	for _, entity := range payload.Entities {
		normalizer.AddEntity(entity.Text, entity.Type)
	}
	for _, triple := range payload.Triples {
		normalizer.AddTriple(model.RawTriple{
			Head:     triple.Head,
			Relation: triple.Relation,
			Tail:     triple.Tail,
		})
	}

	return normalizer.Result(), nil
}
