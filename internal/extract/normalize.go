package extract

import (
	"strings"

	"github.com/factgraph/factgraph/internal/model"
)

// Normalizer coalesces raw claim records into a deduplicated claim
// graph. Entities are unique by exact surface text: the first record
// that introduces an entity fixes its type, later records reuse the
// instance untouched. Triples keep input order, duplicates included.
type Normalizer struct {
	entities map[string]*model.Entity
	order    []*model.Entity
	triples  []model.RelationTriple
}

// NewNormalizer creates an empty normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		entities: make(map[string]*model.Entity),
	}
}

// AddEntity registers an entity ahead of any triples that mention it.
// Blank text is ignored. Re-registering an existing text is a no-op,
// even when the new record carries a different type.
func (n *Normalizer) AddEntity(text, entType string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	n.entity(text, entType)
}

// AddTriple appends one claim. Records with a blank head, relation or
// tail are skipped silently: one bad record must not sink the rest of
// the extraction. Zero confidence means unreported and defaults to 1.0.
func (n *Normalizer) AddTriple(raw model.RawTriple) {
	head := strings.TrimSpace(raw.Head)
	relation := strings.TrimSpace(raw.Relation)
	tail := strings.TrimSpace(raw.Tail)
	if head == "" || relation == "" || tail == "" {
		return
	}

	confidence := raw.Confidence
	if confidence == 0 {
		confidence = 1.0
	}

	n.triples = append(n.triples, model.RelationTriple{
		Head:       n.entity(head, raw.HeadType),
		Tail:       n.entity(tail, raw.TailType),
		Relation:   relation,
		Confidence: confidence,
	})
}

// entity returns the canonical instance for a surface text, creating it
// on first sight.
func (n *Normalizer) entity(text, entType string) *model.Entity {
	if existing, ok := n.entities[text]; ok {
		return existing
	}
	created := &model.Entity{Text: text, Type: strings.TrimSpace(entType)}
	n.entities[text] = created
	n.order = append(n.order, created)
	return created
}

// Result returns the accumulated claim graph. Entities appear in
// first-seen order.
func (n *Normalizer) Result() *model.ExtractionResult {
	entities := make([]*model.Entity, len(n.order))
	copy(entities, n.order)

	triples := make([]model.RelationTriple, len(n.triples))
	copy(triples, n.triples)

	return &model.ExtractionResult{Entities: entities, Triples: triples}
}
