package nli

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

const classifyMaxRetries = 3

// classifySleepFunc is the sleep function used between retries (injectable for tests)
var classifySleepFunc = time.Sleep

// RemoteClassifier calls a hosted sequence-classification model that
// scores premise/hypothesis pairs, e.g. an inference endpoint serving
// an MNLI-tuned model. Unlike the LLM classifier it returns a full
// probability distribution per pair.
type RemoteClassifier struct {
	endpoint   string
	httpClient *http.Client
}

// Remote endpoint structures
type remoteInput struct {
	Text     string `json:"text"`
	TextPair string `json:"text_pair"`
}

type remoteRequest struct {
	Inputs []remoteInput `json:"inputs"`
}

type remoteScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type remoteError struct {
	Error string `json:"error"`
}

// NewRemoteClassifier creates a classifier against the given endpoint.
func NewRemoteClassifier(endpoint string, timeout time.Duration) (*RemoteClassifier, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("classifier endpoint is required")
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &RemoteClassifier{
		endpoint: strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Name returns the classifier name
func (c *RemoteClassifier) Name() string {
	return "remote"
}

// ClassifyBatch sends all pairs in one request and maps the returned
// label scores onto the canonical distribution.
func (c *RemoteClassifier) ClassifyBatch(ctx context.Context, pairs []Pair) ([]Result, error) {
	if len(pairs) == 0 {
		return []Result{}, nil
	}

	req := remoteRequest{Inputs: make([]remoteInput, len(pairs))}
	for i, pair := range pairs {
		req.Inputs[i] = remoteInput{Text: pair.Premise, TextPair: pair.Hypothesis}
	}

	scores, err := c.makeRequestWithRetry(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("classifier request: %w", err)
	}

	if len(scores) != len(pairs) {
		return nil, fmt.Errorf("classifier returned %d results for %d pairs", len(scores), len(pairs))
	}

	results := make([]Result, len(pairs))
	for i, pairScores := range scores {
		var dist model.Scores
		for _, item := range pairScores {
			label, err := CanonicalLabel(item.Label)
			if err != nil {
				return nil, fmt.Errorf("pair %d: %w", i, err)
			}
			setScore(&dist, label, item.Score)
		}
		results[i] = Result{Label: dist.Top(), Scores: dist}
	}

	return results, nil
}

// makeRequestWithRetry retries transient failures with exponential backoff
func (c *RemoteClassifier) makeRequestWithRetry(ctx context.Context, req remoteRequest) ([][]remoteScore, error) {
	var scores [][]remoteScore
	var err error
	for attempt := 0; attempt < classifyMaxRetries; attempt++ {
		scores, err = c.makeRequest(ctx, req)
		if err == nil || !isRetryableClassifyError(err) {
			return scores, err
		}
		if attempt < classifyMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			classifySleepFunc(backoff)
		}
	}
	return scores, err
}

// makeRequest makes a single HTTP request to the classifier endpoint
func (c *RemoteClassifier) makeRequest(ctx context.Context, apiReq remoteRequest) ([][]remoteScore, error) {
	body, err := json.Marshal(apiReq)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr remoteError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("API error (%d): %s", httpResp.StatusCode, string(respBody))
	}

	var scores [][]remoteScore
	if err := json.Unmarshal(respBody, &scores); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return scores, nil
}

// isRetryableClassifyError returns true for transient transport failures
func isRetryableClassifyError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "api error (429)") ||
		strings.Contains(s, "api error (5") ||
		strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
