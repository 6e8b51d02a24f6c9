package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/factgraph/factgraph/internal/model"
)

// maxCaseBytes bounds one JSONL line. Cases carry whole model outputs,
// which overflow bufio's default split buffer.
const maxCaseBytes = 4 << 20

// Auditor runs one audit and resolves context URLs. The pipeline
// satisfies this interface.
type Auditor interface {
	Audit(ctx context.Context, output string, reference string) (*model.Report, error)
	FetchContext(ctx context.Context, rawURL string) (string, error)
}

// Case is one audit request from a batch file: the output text to check
// plus its reference context, either inline or by URL.
type Case struct {
	Output     string `json:"output"`
	Context    string `json:"context,omitempty"`
	ContextURL string `json:"context_url,omitempty"`
}

// CheckJob audits a single case.
type CheckJob struct {
	Index   int
	Case    Case
	Auditor Auditor
}

// Execute runs the audit for this case. Inline context wins over a
// context URL when both are present.
func (j *CheckJob) Execute(ctx context.Context) Result {
	if strings.TrimSpace(j.Case.Output) == "" {
		return &CheckResult{Index: j.Index, Case: j.Case, Error: fmt.Errorf("case %d: no output text", j.Index)}
	}

	reference := j.Case.Context
	if reference == "" && j.Case.ContextURL != "" {
		fetched, err := j.Auditor.FetchContext(ctx, j.Case.ContextURL)
		if err != nil {
			return &CheckResult{Index: j.Index, Case: j.Case, Error: fmt.Errorf("case %d: fetch context: %w", j.Index, err)}
		}
		reference = fetched
	}
	if strings.TrimSpace(reference) == "" {
		return &CheckResult{Index: j.Index, Case: j.Case, Error: fmt.Errorf("case %d: neither context nor context_url given", j.Index)}
	}

	report, err := j.Auditor.Audit(ctx, j.Case.Output, reference)
	if err != nil {
		return &CheckResult{Index: j.Index, Case: j.Case, Error: fmt.Errorf("case %d: %w", j.Index, err)}
	}

	return &CheckResult{Index: j.Index, Case: j.Case, Report: report}
}

// CheckResult is the outcome of one case.
type CheckResult struct {
	Index  int
	Case   Case
	Report *model.Report
	Error  error
}

// GetError returns the error from the check result.
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor audits many cases concurrently.
type BatchProcessor struct {
	auditor     Auditor
	concurrency int
}

// NewBatchProcessor creates a new batch processor.
func NewBatchProcessor(auditor Auditor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		auditor:     auditor,
		concurrency: concurrency,
	}
}

// ProcessCases audits all cases and returns their results in input
// order regardless of completion order.
func (b *BatchProcessor) ProcessCases(ctx context.Context, cases []Case) []*CheckResult {
	if len(cases) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	for i, c := range cases {
		pool.Submit(&CheckJob{Index: i, Case: c, Auditor: b.auditor})
	}

	results := pool.Wait()

	checkResults := make([]*CheckResult, len(results))
	for i, result := range results {
		checkResults[i] = result.(*CheckResult)
	}
	sort.Slice(checkResults, func(i, j int) bool {
		return checkResults[i].Index < checkResults[j].Index
	})

	return checkResults
}

// ProcessFile reads cases from a JSONL file and audits them
// concurrently.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	cases, err := ReadCasesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}

	return b.ProcessCases(ctx, cases), nil
}

// ReadCasesFromFile reads audit cases from a JSONL file, one JSON
// object per line. Blank lines and lines starting with '#' are skipped.
func ReadCasesFromFile(filePath string) ([]Case, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var cases []Case

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxCaseBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var c Case
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return nil, fmt.Errorf("line %d: parse case: %w", lineNo, err)
		}
		cases = append(cases, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return cases, nil
}
