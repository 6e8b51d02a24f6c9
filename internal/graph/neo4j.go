package graph

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/factgraph/factgraph/internal/model"
)

const (
	mergeEntityQuery = "MERGE (e:Entity {text: $text}) " +
		"ON CREATE SET e.id = $id " +
		"SET e.type = coalesce($type, e.type)"

	mergeTripleQuery = "MATCH (h:Entity {text: $head_text}), (t:Entity {text: $tail_text}) " +
		"MERGE (h)-[r:RELATION {name: $relation}]->(t) " +
		"SET r.confidence = $confidence"
)

// EntityID derives the stable node identifier for an entity surface
// form. The same text always maps to the same ID, so repeated inserts
// and exports agree without coordination.
func EntityID(text string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("factgraph:entity:"+text)).String()
}

// Summary reports what a store operation wrote.
type Summary struct {
	EntitiesWritten int `json:"entities_written"`
	TriplesWritten  int `json:"triples_written"`
}

// Neo4jStore upserts claim graphs into a Neo4j database.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore connects to the configured URI and verifies
// connectivity before returning. An empty database name selects the
// server default.
func NewNeo4jStore(ctx context.Context, cfg model.GraphConfig) (*Neo4jStore, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return &Neo4jStore{driver: driver, database: cfg.Database}, nil
}

// Close releases the underlying driver.
func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Store upserts every entity and triple of the graph. Entities merge on
// surface text and keep their first-set type; relation edges merge on
// name and refresh their confidence. Node IDs are minted on first
// insert only.
func (s *Neo4jStore) Store(ctx context.Context, result *model.ExtractionResult) (Summary, error) {
	for _, e := range result.Entities {
		if err := s.mergeEntity(ctx, e); err != nil {
			return Summary{}, fmt.Errorf("merge entity %q: %w", e.Text, err)
		}
	}
	for _, t := range result.Triples {
		if err := s.mergeTriple(ctx, t); err != nil {
			return Summary{}, fmt.Errorf("merge triple %q: %w", t.Sentence(), err)
		}
	}
	return Summary{
		EntitiesWritten: len(result.Entities),
		TriplesWritten:  len(result.Triples),
	}, nil
}

func (s *Neo4jStore) mergeEntity(ctx context.Context, e *model.Entity) error {
	// A nil type leaves an existing label untouched via coalesce.
	var entType any
	if e.Type != "" {
		entType = e.Type
	}
	id := e.ID
	if id == "" {
		id = EntityID(e.Text)
	}
	return s.run(ctx, mergeEntityQuery, map[string]any{
		"text": e.Text,
		"type": entType,
		"id":   id,
	})
}

func (s *Neo4jStore) mergeTriple(ctx context.Context, t model.RelationTriple) error {
	return s.run(ctx, mergeTripleQuery, map[string]any{
		"head_text":  t.Head.Text,
		"tail_text":  t.Tail.Text,
		"relation":   t.Relation,
		"confidence": t.Confidence,
	})
}

func (s *Neo4jStore) run(ctx context.Context, query string, params map[string]any) error {
	var opts []neo4j.ExecuteQueryConfigurationOption
	if s.database != "" {
		opts = append(opts, neo4j.ExecuteQueryWithDatabase(s.database))
	}
	_, err := neo4j.ExecuteQuery(ctx, s.driver, query, params, neo4j.EagerResultTransformer, opts...)
	return err
}
