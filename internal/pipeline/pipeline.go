// Package pipeline sequences extraction, judging, correction, and text
// repair into the single audit entry point.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/factgraph/factgraph/internal/cache"
	"github.com/factgraph/factgraph/internal/correct"
	"github.com/factgraph/factgraph/internal/detect"
	"github.com/factgraph/factgraph/internal/extract"
	"github.com/factgraph/factgraph/internal/llm"
	"github.com/factgraph/factgraph/internal/model"
	"github.com/factgraph/factgraph/internal/nli"
	"github.com/factgraph/factgraph/internal/score"
)

// Pipeline orchestrates the complete audit of one generative output:
// extract its claims, judge each against the reference context, request
// corrections for what was flagged, and repair the text. Stages run
// strictly in sequence; each consumes the whole output of the previous
// one.
type Pipeline struct {
	fetcher   *Fetcher
	extractor extract.Extractor
	detector  *detect.Detector
	corrector *correct.Corrector
	scorer    *score.Scorer
	renderer  *Renderer
	config    *model.Config
}

// Result bundles the report with the normalized claim graph so callers
// can persist the graph separately.
type Result struct {
	Report *model.Report
	Graph  *model.ExtractionResult
}

// NewPipeline creates a pipeline with the given configuration. The
// corrector stays nil when no LLM provider is configured; a run that
// flags claims without one fails at the correction stage.
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	completer, err := buildCompleter(cfg)
	if err != nil {
		return nil, err
	}

	extractor, err := extract.NewExtractor(cfg.Extract, completer)
	if err != nil {
		return nil, fmt.Errorf("initialize extractor: %w", err)
	}

	classifier, err := buildClassifier(cfg, completer)
	if err != nil {
		return nil, fmt.Errorf("initialize classifier: %w", err)
	}

	var corrector *correct.Corrector
	if completer != nil {
		corrector, err = correct.NewCorrector(completer)
		if err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		fetcher:   NewFetcher(cfg.HTTP, cfg.RateLimit),
		extractor: extractor,
		detector:  detect.NewDetector(classifier, cfg.Detect),
		corrector: corrector,
		scorer:    score.NewScorer(cfg.Detect),
		renderer:  NewRenderer(cfg.Output.IncludeFooter),
		config:    cfg,
	}, nil
}

// buildCompleter creates the completion provider, wrapped with the
// response cache when enabled. Returns nil when no provider is
// configured.
func buildCompleter(cfg *model.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}
	if provider == nil || !cfg.Cache.Enabled {
		return provider, nil
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			// No resolvable cache dir; run uncached rather than fail
			return provider, nil
		}
		dir = filepath.Join(home, ".factgraph", "cache")
	}

	store := cache.NewLayeredCache(cfg.Cache.TTL, dir, cfg.Cache.TTL)
	return llm.NewCachingProvider(provider, store, cfg.LLM.Model, cfg.Cache.TTL), nil
}

// buildClassifier creates the inference backend for the judge.
func buildClassifier(cfg *model.Config, completer llm.Provider) (nli.Classifier, error) {
	switch strings.ToLower(cfg.NLI.Backend) {
	case "llm", "":
		if completer == nil {
			return nil, fmt.Errorf("llm classification backend requires a configured provider")
		}
		return nli.NewLLMClassifier(completer, cfg.NLI.MaxWorkers), nil

	case "remote":
		return nli.NewRemoteClassifier(cfg.NLI.Endpoint, time.Duration(cfg.NLI.Timeout)*time.Second)

	default:
		return nil, fmt.Errorf("unknown classification backend: %s (supported: llm, remote)", cfg.NLI.Backend)
	}
}

// Run audits one generative output against its reference context. When
// no claim is flagged, correction and repair are skipped and the
// corrected output equals the original verbatim.
func (p *Pipeline) Run(ctx context.Context, output string, reference string) (*Result, error) {
	// 1. Extract and normalize the claim graph
	extraction, err := p.extractor.Extract(ctx, output)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	// 2. Judge every claim against the reference
	verdicts, err := p.detector.Judge(ctx, extraction.Triples, reference)
	if err != nil {
		return nil, fmt.Errorf("judge: %w", err)
	}
	flagged := detect.Flagged(verdicts)

	// 3. Correct and repair only what was flagged
	correctedOutput := output
	var corrections []model.Correction
	if len(flagged) > 0 {
		if p.corrector == nil {
			return nil, fmt.Errorf("correct: %d claims flagged but no LLM provider is configured", len(flagged))
		}

		flaggedTriples := make([]model.RelationTriple, len(flagged))
		for i, v := range flagged {
			flaggedTriples[i] = v.Triple
		}

		corrections, err = p.corrector.Correct(ctx, flaggedTriples, reference)
		if err != nil {
			return nil, fmt.Errorf("correct: %w", err)
		}

		correctedTriples := make([]model.RelationTriple, len(corrections))
		for i, c := range corrections {
			correctedTriples[i] = c.Corrected
		}
		correctedOutput, err = correct.Repair(output, flaggedTriples, correctedTriples)
		if err != nil {
			return nil, fmt.Errorf("repair: %w", err)
		}
	}

	// 4. Assemble the report
	return &Result{
		Report: p.buildReport(output, extraction, verdicts, corrections, correctedOutput),
		Graph:  extraction,
	}, nil
}

// Audit runs the pipeline and returns only the report. It satisfies the
// batch worker's job contract.
func (p *Pipeline) Audit(ctx context.Context, output string, reference string) (*model.Report, error) {
	result, err := p.Run(ctx, output, reference)
	if err != nil {
		return nil, err
	}
	return result.Report, nil
}

// FetchContext resolves a reference context document from a URL.
func (p *Pipeline) FetchContext(ctx context.Context, rawURL string) (string, error) {
	return p.fetcher.FetchText(ctx, rawURL)
}

// buildReport flattens the run artifacts into the report. Slices are
// allocated even when empty so the JSON form is stable.
func (p *Pipeline) buildReport(output string, extraction *model.ExtractionResult, verdicts []model.Verdict, corrections []model.Correction, correctedOutput string) *model.Report {
	report := &model.Report{
		OriginalOutput:  output,
		Triples:         make([]model.TripleRecord, 0, len(extraction.Triples)),
		Verdicts:        make([]model.VerdictRecord, 0, len(verdicts)),
		CorrectedOutput: correctedOutput,
	}

	for _, t := range extraction.Triples {
		report.Triples = append(report.Triples, model.NewTripleRecord(t))
	}
	for _, v := range verdicts {
		report.Verdicts = append(report.Verdicts, model.VerdictRecord{
			Triple:        model.NewTripleRecord(v.Triple),
			Label:         v.Label,
			Scores:        v.Scores,
			Hallucination: v.Hallucination,
		})
	}
	for _, c := range corrections {
		report.Corrections = append(report.Corrections, model.CorrectionRecord{
			Original:  model.NewTripleRecord(c.Original),
			Corrected: model.NewTripleRecord(c.Corrected),
		})
	}

	report.Stats = p.scorer.Calculate(verdicts)
	return report
}

// RenderReport renders the report to the requested outputs and prints
// the terminal summary.
func (p *Pipeline) RenderReport(report *model.Report, jsonPath string, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(report)

	return nil
}
