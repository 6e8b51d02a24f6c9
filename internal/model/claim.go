package model

// MentionSpan locates one mention of an entity in the source text.
// Offsets are byte positions, half-open: [Start, End).
type MentionSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Entity represents a node in the claim graph. Text is the identity key:
// within one ExtractionResult no two entities share the same Text.
type Entity struct {
	Text     string        `json:"text"`               // Surface form, e.g. "Marie Curie"
	Type     string        `json:"type,omitempty"`     // Optional type label, e.g. "person"
	ID       string        `json:"id,omitempty"`       // Optional stable identifier (set by storage)
	Mentions []MentionSpan `json:"mentions,omitempty"` // Where the entity appears in the source
}

// RelationTriple is a single factual claim: head --relation--> tail.
// Head and Tail point into the entity set of the owning ExtractionResult.
type RelationTriple struct {
	Head       *Entity `json:"head"`
	Tail       *Entity `json:"tail"`
	Relation   string  `json:"relation"`
	Confidence float64 `json:"confidence"` // Extractor confidence, 1.0 when not reported
}

// Sentence renders the triple as a plain declarative clause without a
// trailing period: "head relation tail". Callers that need a full
// sentence append the period themselves.
func (t RelationTriple) Sentence() string {
	return t.Head.Text + " " + t.Relation + " " + t.Tail.Text
}

// Key returns the (head, relation, tail) surface texts. Two triples with
// equal keys assert the same fact regardless of entity instances.
func (t RelationTriple) Key() [3]string {
	return [3]string{t.Head.Text, t.Relation, t.Tail.Text}
}

// ExtractionResult is the normalized claim graph produced by extraction.
// Entities appear in first-seen order; Triples preserve input order and
// may repeat (duplicate claims are kept).
type ExtractionResult struct {
	Entities []*Entity        `json:"entities"`
	Triples  []RelationTriple `json:"triples"`
}

// RawTriple is one unnormalized claim record as emitted by an extraction
// backend, before entity deduplication.
type RawTriple struct {
	Head       string  `json:"head"`
	Relation   string  `json:"relation"`
	Tail       string  `json:"tail"`
	HeadType   string  `json:"head_type,omitempty"`
	TailType   string  `json:"tail_type,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}
