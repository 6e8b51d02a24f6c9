// Package score turns verdicts into the support index and diagnostic
// signals for a report.
package score

import (
	"fmt"
	"math"

	"github.com/factgraph/factgraph/internal/model"
)

// borderlineMargin is how close a score must sit to its threshold for a
// verdict to count as borderline.
const borderlineMargin = 0.1

// Scorer aggregates verdicts into transparent support metrics. The
// result depends only on the verdicts and the configured thresholds,
// so the same inputs always produce the same stats.
type Scorer struct {
	contradictionThreshold float64
	neutralThreshold       float64
}

// NewScorer creates a scorer using the judge's threshold configuration.
func NewScorer(cfg model.DetectConfig) *Scorer {
	return &Scorer{
		contradictionThreshold: cfg.ContradictionThreshold,
		neutralThreshold:       cfg.NeutralThreshold,
	}
}

// Calculate computes the support index and generates diagnostic signals.
func (s *Scorer) Calculate(verdicts []model.Verdict) model.Stats {
	total := len(verdicts)
	if total == 0 {
		return model.Stats{
			Confidence: "low",
			Signals: []model.Signal{{
				Type:        model.SignalEmptyGraph,
				Severity:    model.SeverityCritical,
				Description: "No claims extracted",
				Data:        map[string]any{"claims": 0},
			}},
		}
	}

	supported := 0
	flagged := 0
	contradicted := 0
	unsupported := 0
	borderline := 0

	for _, v := range verdicts {
		if v.Hallucination {
			flagged++
			switch v.Label {
			case model.LabelContradiction:
				contradicted++
			case model.LabelNeutral:
				unsupported++
			}
		} else {
			supported++
		}
		if s.isBorderline(v.Scores) {
			borderline++
		}
	}

	ratio := float64(supported) / float64(total)
	index := int(math.Min(ratio*100, 100))

	signals := []model.Signal{s.supportSignal(supported, total, ratio, index)}
	if contradicted > 0 {
		signals = append(signals, s.contradictionSignal(contradicted, total))
	}
	if unsupported > 0 {
		signals = append(signals, s.unsupportedSignal(unsupported, total))
	}
	if borderline > 0 {
		signals = append(signals, s.borderlineSignal(borderline, total))
	}

	return model.Stats{
		TotalClaims:  total,
		Supported:    supported,
		Flagged:      flagged,
		Contradicted: contradicted,
		Unsupported:  unsupported,
		SupportIndex: index,
		Confidence:   s.determineConfidence(index, total, contradicted),
		Signals:      signals,
	}
}

// supportSignal reports the share of claims the context entails.
func (s *Scorer) supportSignal(supported, total int, ratio float64, index int) model.Signal {
	severity := model.SeverityInfo
	if ratio < 0.5 {
		severity = model.SeverityCritical
	} else if ratio < 0.8 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:        model.SignalSupportRate,
		Severity:    severity,
		Description: fmt.Sprintf("Context supports %d/%d claims (%.0f%%)", supported, total, ratio*100),
		Data: map[string]any{
			"supported": supported,
			"total":     total,
			"ratio":     ratio,
			"score":     index,
			"formula":   "supported / total * 100",
		},
	}
}

// contradictionSignal reports claims the context directly contradicts.
func (s *Scorer) contradictionSignal(contradicted, total int) model.Signal {
	return model.Signal{
		Type:        model.SignalContradictions,
		Severity:    model.SeverityCritical,
		Description: fmt.Sprintf("Context contradicts %d of %d claims", contradicted, total),
		Data: map[string]any{
			"contradicted": contradicted,
			"total":        total,
			"share":        float64(contradicted) / float64(total),
		},
	}
}

// unsupportedSignal reports claims the context says nothing about.
func (s *Scorer) unsupportedSignal(unsupported, total int) model.Signal {
	return model.Signal{
		Type:        model.SignalUnsupported,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Context does not support %d of %d claims", unsupported, total),
		Data: map[string]any{
			"unsupported": unsupported,
			"total":       total,
			"share":       float64(unsupported) / float64(total),
		},
	}
}

// borderlineSignal reports verdicts decided close to a threshold. These
// are the claims most likely to flip under a different configuration.
func (s *Scorer) borderlineSignal(borderline, total int) model.Signal {
	return model.Signal{
		Type:        model.SignalBorderlineScores,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("%d of %d verdicts decided within %.2f of a threshold", borderline, total, borderlineMargin),
		Data: map[string]any{
			"borderline":              borderline,
			"total":                   total,
			"margin":                  borderlineMargin,
			"contradiction_threshold": s.contradictionThreshold,
			"neutral_threshold":       s.neutralThreshold,
		},
	}
}

func (s *Scorer) isBorderline(sc model.Scores) bool {
	return math.Abs(sc.Contradiction-s.contradictionThreshold) < borderlineMargin ||
		math.Abs(sc.Neutral-s.neutralThreshold) < borderlineMargin
}

// determineConfidence grades how much to trust the index itself.
func (s *Scorer) determineConfidence(index int, total int, contradicted int) string {
	if contradicted > 0 {
		return "low-medium"
	}

	if total < 3 {
		return "low"
	}

	if index >= 80 {
		return "high"
	} else if index >= 60 {
		return "medium"
	}
	return "low"
}
