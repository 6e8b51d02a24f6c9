package extract

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/factgraph/factgraph/internal/model"
)

// Extractor turns generative output text into a normalized claim graph.
type Extractor interface {
	// Name returns the backend name
	Name() string

	// Extract builds the claim graph for one output text
	Extract(ctx context.Context, output string) (*model.ExtractionResult, error)
}

// Completer is the completion surface the LLM backend needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NewExtractor creates an extraction backend by name.
func NewExtractor(cfg model.ExtractConfig, completer Completer) (Extractor, error) {
	switch strings.ToLower(cfg.Backend) {
	case "llm", "":
		if completer == nil {
			return nil, fmt.Errorf("llm extraction backend requires a configured provider")
		}
		return NewLLMExtractor(completer), nil

	case "rebel":
		timeout := time.Duration(cfg.Timeout) * time.Second
		return NewRebelExtractor(cfg.Endpoint, timeout)

	default:
		return nil, fmt.Errorf("unknown extraction backend: %s (supported: llm, rebel)", cfg.Backend)
	}
}
