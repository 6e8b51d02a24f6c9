package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/factgraph/factgraph/internal/model"
)

// Renderer writes reports as JSON, Markdown, and terminal summaries.
// Rendering never mutates the report, and the same report always
// renders to the same bytes.
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer.
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// JSON returns the canonical indented JSON encoding of a report.
func (r *Renderer) JSON(report *model.Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderJSON writes the report as indented JSON.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := r.JSON(report)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown writes the human-readable report.
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	if err := os.WriteFile(path, []byte(r.Markdown(report)), 0o644); err != nil {
		return fmt.Errorf("write markdown: %w", err)
	}
	return nil
}

// Markdown renders the report as a Markdown document.
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder
	st := report.Stats

	b.WriteString("# Fact Audit\n\n")
	fmt.Fprintf(&b, "**Support index**: %d/100 (confidence: %s)\n\n", st.SupportIndex, st.Confidence)
	fmt.Fprintf(&b, "Claims: %d total, %d supported, %d flagged (%d contradicted, %d unsupported)\n\n",
		st.TotalClaims, st.Supported, st.Flagged, st.Contradicted, st.Unsupported)

	if len(report.Verdicts) > 0 {
		b.WriteString("## Claims\n\n")
		b.WriteString("| Claim | Label | Entailment | Contradiction | Neutral | Flagged |\n")
		b.WriteString("|-------|-------|-----------:|--------------:|--------:|---------|\n")
		for _, v := range report.Verdicts {
			flagged := ""
			if v.Hallucination {
				flagged = "yes"
			}
			fmt.Fprintf(&b, "| %s %s %s | %s | %.2f | %.2f | %.2f | %s |\n",
				escapeCell(v.Triple.Head), escapeCell(v.Triple.Relation), escapeCell(v.Triple.Tail),
				v.Label, v.Scores.Entailment, v.Scores.Contradiction, v.Scores.Neutral, flagged)
		}
		b.WriteString("\n")
	}

	if len(report.Corrections) > 0 {
		b.WriteString("## Corrections\n\n")
		for _, c := range report.Corrections {
			fmt.Fprintf(&b, "- `%s %s %s` corrected to `%s %s %s`\n",
				c.Original.Head, c.Original.Relation, c.Original.Tail,
				c.Corrected.Head, c.Corrected.Relation, c.Corrected.Tail)
		}
		b.WriteString("\n")
	}

	if len(st.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, s := range st.Signals {
			fmt.Fprintf(&b, "- **%s** [%s]: %s\n", s.Type, s.Severity, s.Description)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Corrected Output\n\n")
	b.WriteString(report.CorrectedOutput)
	b.WriteString("\n")

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString("*Claims were extracted from the audited output and judged against the supplied reference context only. ")
		b.WriteString("A supported claim means the context entails it, not that it is true.*\n")
	}

	return b.String()
}

// RenderSummary prints a short report summary to stdout.
func (r *Renderer) RenderSummary(report *model.Report) {
	st := report.Stats

	fmt.Printf("\nSupport index: %d/100 (confidence: %s)\n", st.SupportIndex, st.Confidence)
	fmt.Printf("Claims: %d total, %d supported, %d flagged\n", st.TotalClaims, st.Supported, st.Flagged)

	for _, s := range st.Signals {
		if s.Severity == model.SeverityInfo {
			continue
		}
		fmt.Printf("  [%s] %s\n", s.Severity, s.Description)
	}

	if len(report.Corrections) > 0 {
		fmt.Printf("Applied %d corrections to the output\n", len(report.Corrections))
	}
}

// escapeCell keeps claim text from breaking the Markdown table.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
