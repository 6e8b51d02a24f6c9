package model

// Label is a canonical inference relation between the reference context
// and a verbalized claim.
type Label string

const (
	LabelEntailment    Label = "entailment"    // Context supports the claim
	LabelContradiction Label = "contradiction" // Context contradicts the claim
	LabelNeutral       Label = "neutral"       // Context neither supports nor contradicts
)

// Scores is a probability distribution over the three inference labels
// for one (context, claim) pair. Labels the classifier did not report
// score zero.
type Scores struct {
	Entailment    float64 `json:"entailment"`
	Contradiction float64 `json:"contradiction"`
	Neutral       float64 `json:"neutral"`
}

// Top returns the argmax label of the distribution. Ties resolve in the
// fixed order entailment, contradiction, neutral so that equal inputs
// always yield the same label.
func (s Scores) Top() Label {
	label := LabelEntailment
	best := s.Entailment
	if s.Contradiction > best {
		label = LabelContradiction
		best = s.Contradiction
	}
	if s.Neutral > best {
		label = LabelNeutral
	}
	return label
}

// Verdict is the judged outcome for one claim. Label is the argmax of
// Scores; Hallucination is the independent threshold decision. The two
// can disagree: a claim whose top label is entailment is still flagged
// when its contradiction or neutral mass crosses a threshold.
type Verdict struct {
	Triple        RelationTriple `json:"triple"`
	Label         Label          `json:"label"`
	Scores        Scores         `json:"scores"`
	Hallucination bool           `json:"hallucination"`
}

// Correction pairs a rejected claim with its proposed replacement.
// Corrected holds fresh entity instances that inherit the original
// entity types.
type Correction struct {
	Original  RelationTriple `json:"original"`
	Corrected RelationTriple `json:"corrected"`
}
