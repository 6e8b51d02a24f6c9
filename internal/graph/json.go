// Package graph persists normalized claim graphs outside a single run.
package graph

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/factgraph/factgraph/internal/model"
)

// fileDocument is the on-disk JSON layout: flat entity and triple
// records, with triples referencing entities by surface text.
type fileDocument struct {
	Entities []entityRecord `json:"entities"`
	Triples  []tripleRecord `json:"triples"`
}

type entityRecord struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
}

type tripleRecord struct {
	Head       string  `json:"head"`
	Relation   string  `json:"relation"`
	Tail       string  `json:"tail"`
	Confidence float64 `json:"confidence"`
}

// SaveJSON writes the claim graph to path as indented JSON. Entities
// without an ID get one from EntityID, so exports of the same graph are
// byte-identical across runs.
func SaveJSON(result *model.ExtractionResult, path string) error {
	doc := fileDocument{
		Entities: make([]entityRecord, 0, len(result.Entities)),
		Triples:  make([]tripleRecord, 0, len(result.Triples)),
	}
	for _, e := range result.Entities {
		id := e.ID
		if id == "" {
			id = EntityID(e.Text)
		}
		doc.Entities = append(doc.Entities, entityRecord{Text: e.Text, Type: e.Type, ID: id})
	}
	for _, t := range result.Triples {
		doc.Triples = append(doc.Triples, tripleRecord{
			Head:       t.Head.Text,
			Relation:   t.Relation,
			Tail:       t.Tail.Text,
			Confidence: t.Confidence,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal claim graph: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write claim graph: %w", err)
	}
	return nil
}

// LoadJSON reads a claim graph previously written by SaveJSON. Triples
// are reconnected to the entity set by surface text; a triple naming an
// entity missing from the entity list gets a fresh untyped one. Records
// with blank identity fields are skipped, matching the normalizer.
func LoadJSON(path string) (*model.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read claim graph: %w", err)
	}
	var doc fileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse claim graph: %w", err)
	}

	result := &model.ExtractionResult{}
	byText := make(map[string]*model.Entity, len(doc.Entities))
	lookup := func(text string) *model.Entity {
		if e, ok := byText[text]; ok {
			return e
		}
		e := &model.Entity{Text: text}
		byText[text] = e
		result.Entities = append(result.Entities, e)
		return e
	}

	for _, rec := range doc.Entities {
		if rec.Text == "" {
			continue
		}
		if _, ok := byText[rec.Text]; ok {
			continue
		}
		e := &model.Entity{Text: rec.Text, Type: rec.Type, ID: rec.ID}
		byText[rec.Text] = e
		result.Entities = append(result.Entities, e)
	}
	for _, rec := range doc.Triples {
		if rec.Head == "" || rec.Relation == "" || rec.Tail == "" {
			continue
		}
		result.Triples = append(result.Triples, model.RelationTriple{
			Head:       lookup(rec.Head),
			Tail:       lookup(rec.Tail),
			Relation:   rec.Relation,
			Confidence: rec.Confidence,
		})
	}
	return result, nil
}
