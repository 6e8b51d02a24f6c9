package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/factgraph/factgraph/internal/model"
)

// Triplet stream markers emitted by REBEL-style seq2seq models. The
// decoded output interleaves them with plain text:
//
//	<triplet> head <subj> tail <obj> relation <triplet> ...
const (
	markerTriplet = "<triplet>"
	markerSubject = "<subj>"
	markerObject  = "<obj>"
)

// rebelCleaner removes sequence framing tokens before parsing.
var rebelCleaner = strings.NewReplacer("<s>", "", "</s>", "", "<pad>", "")

// ParseStream decodes a triplet token stream into raw claim records.
// Each <triplet> opens a segment; inside a segment the grammar is
// head <subj> tail <obj> relation, with the relation running up to the
// next <subj>, the next <triplet>, or the end of the stream. Malformed
// or truncated segments are dropped without affecting their neighbors.
// The stream is not deduplicated: repeated claims stay repeated.
func ParseStream(raw string) []model.RawTriple {
	text := strings.TrimSpace(rebelCleaner.Replace(raw))

	var records []model.RawTriple
	for _, segment := range strings.Split(text, markerTriplet) {
		records = append(records, parseSegment(segment)...)
	}
	return records
}

// parseSegment walks one segment's markers. A <subj> with no following
// <obj> is malformed and skipped; the scan resumes at the next marker.
func parseSegment(segment string) []model.RawTriple {
	var records []model.RawTriple

	rest := segment
	for {
		si := strings.Index(rest, markerSubject)
		if si < 0 {
			break
		}
		head := cleanField(rest[:si])
		rest = rest[si+len(markerSubject):]

		oi := strings.Index(rest, markerObject)
		if oi < 0 {
			// Truncated: subject with no object, drop the remainder
			break
		}
		if ni := strings.Index(rest, markerSubject); ni >= 0 && ni < oi {
			// A second subject before the object: the first subject has
			// no claim, rescan from the second
			continue
		}
		tail := strings.TrimSpace(rest[:oi])
		rest = rest[oi+len(markerObject):]

		var relation string
		if ni := strings.Index(rest, markerSubject); ni >= 0 {
			relation = strings.TrimSpace(rest[:ni])
			rest = rest[ni:]
		} else {
			relation = strings.TrimSpace(rest)
			rest = ""
		}

		if head != "" && tail != "" && relation != "" {
			records = append(records, model.RawTriple{
				Head:     head,
				Relation: relation,
				Tail:     tail,
			})
		}
	}

	return records
}

// cleanField trims a head candidate to the text after any stray marker
// fragment, then strips whitespace.
func cleanField(s string) string {
	if i := strings.LastIndex(s, "<"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}

// RebelExtractor extracts claims by sending the output text to a hosted
// seq2seq relation-extraction model and parsing the decoded triplet
// stream it returns.
type RebelExtractor struct {
	endpoint   string
	httpClient *http.Client
}

// Rebel endpoint structures
type rebelRequest struct {
	Inputs string `json:"inputs"`
}

type rebelGeneration struct {
	GeneratedText string `json:"generated_text"`
}

type rebelError struct {
	Error string `json:"error"`
}

// NewRebelExtractor creates an extractor against the given generation
// endpoint.
func NewRebelExtractor(endpoint string, timeout time.Duration) (*RebelExtractor, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("rebel extraction backend requires an endpoint")
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &RebelExtractor{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Name returns the backend name
func (e *RebelExtractor) Name() string {
	return "rebel"
}

// Extract generates the triplet stream for the output text and
// normalizes the parsed records into a claim graph.
func (e *RebelExtractor) Extract(ctx context.Context, output string) (*model.ExtractionResult, error) {
	decoded, err := e.generate(ctx, output)
	if err != nil {
		return nil, fmt.Errorf("rebel generate: %w", err)
	}

	normalizer := NewNormalizer()
	for _, record := range ParseStream(decoded) {
		normalizer.AddTriple(record)
	}
	return normalizer.Result(), nil
}

// generate performs one generation round trip against the endpoint
func (e *RebelExtractor) generate(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(rebelRequest{Inputs: text})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr rebelError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return "", fmt.Errorf("API error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return "", fmt.Errorf("API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var generations []rebelGeneration
	if err := json.Unmarshal(respBody, &generations); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(generations) == 0 {
		return "", fmt.Errorf("empty generation response")
	}

	return generations[0].GeneratedText, nil
}
