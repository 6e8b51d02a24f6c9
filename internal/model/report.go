package model

// Report is the complete audit result for one generative output.
// It is a pure function of the inputs and the classifier scores: no
// timestamps, hostnames, or random identifiers, so that repeated runs
// over the same inputs marshal to identical bytes.
type Report struct {
	OriginalOutput string `json:"original_output"` // The audited text, untouched

	Triples  []TripleRecord  `json:"triples"`  // Every extracted claim, input order
	Verdicts []VerdictRecord `json:"verdicts"` // One judgement per claim, same order

	Corrections     []CorrectionRecord `json:"corrections,omitempty"` // Only for flagged claims
	CorrectedOutput string             `json:"corrected_output"`      // Equals OriginalOutput when nothing was flagged

	Stats Stats `json:"stats"` // Support index and diagnostic signals
}

// TripleRecord is the flattened, JSON-stable form of a claim.
type TripleRecord struct {
	Head       string  `json:"head"`
	HeadType   string  `json:"head_type,omitempty"`
	Relation   string  `json:"relation"`
	Tail       string  `json:"tail"`
	TailType   string  `json:"tail_type,omitempty"`
	Confidence float64 `json:"confidence"`
}

// NewTripleRecord flattens a RelationTriple for reporting.
func NewTripleRecord(t RelationTriple) TripleRecord {
	return TripleRecord{
		Head:       t.Head.Text,
		HeadType:   t.Head.Type,
		Relation:   t.Relation,
		Tail:       t.Tail.Text,
		TailType:   t.Tail.Type,
		Confidence: t.Confidence,
	}
}

// VerdictRecord is the flattened form of a Verdict.
type VerdictRecord struct {
	Triple        TripleRecord `json:"triple"`
	Label         Label        `json:"label"`
	Scores        Scores       `json:"scores"`
	Hallucination bool         `json:"hallucination"`
}

// CorrectionRecord pairs the flattened original and corrected claims.
type CorrectionRecord struct {
	Original  TripleRecord `json:"original"`
	Corrected TripleRecord `json:"corrected"`
}

// Stats is the transparent scoring breakdown for a report.
type Stats struct {
	TotalClaims  int `json:"total_claims"`
	Supported    int `json:"supported"`    // Verdicts not flagged
	Flagged      int `json:"flagged"`      // Verdicts flagged as hallucination
	Contradicted int `json:"contradicted"` // Flagged with argmax contradiction
	Unsupported  int `json:"unsupported"`  // Flagged with argmax neutral

	SupportIndex int      `json:"support_index"` // 0-100, share of supported claims
	Confidence   string   `json:"confidence"`    // "low", "low-medium", "medium", "high"
	Signals      []Signal `json:"signals"`       // Diagnostic signals with scoring data
}

// Signal is a diagnostic observation with the data that produced it.
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    SignalSeverity `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// SignalType classifies a diagnostic signal.
type SignalType string

const (
	SignalSupportRate      SignalType = "support_rate"      // Share of claims the context entails
	SignalContradictions   SignalType = "contradictions"    // Claims the context directly contradicts
	SignalUnsupported      SignalType = "unsupported"       // Claims the context says nothing about
	SignalEmptyGraph       SignalType = "empty_graph"       // No claims could be extracted
	SignalBorderlineScores SignalType = "borderline_scores" // Verdicts decided near a threshold
)

// SignalSeverity indicates the importance of a signal.
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
