package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/factgraph/factgraph/internal/graph"
	"github.com/factgraph/factgraph/internal/model"
	"github.com/factgraph/factgraph/internal/pipeline"
)

var (
	outputText  string
	outputFile  string
	contextText string
	contextFile string
	contextURL  string

	outJSON   string
	outMD     string
	graphJSON string
	neo4jURI  string

	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	noFooter    bool
	insecureTLS bool
	httpProxy   string
	httpsProxy  string

	extractBackend   string
	extractEndpoint  string
	nliBackend       string
	nliEndpoint      string
	contradictionThr float64
	neutralThr       float64

	llmProvider string
	llmModel    string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Audit one output against a reference context",
	Long: `Check extracts the factual claims of one generative output into a
claim graph, judges every claim against the supplied reference context,
requests corrections for the claims the context contradicts or fails to
support, and writes the repaired output with a full audit report.

The output and the context each come from exactly one source: inline
text, a file, or (for the context) a URL.

Example:
  factgraph check --output-file answer.txt --context-file article.txt
  factgraph check --output "Marie Curie discovered radium." --context-url https://en.wikipedia.org/wiki/Radium
  factgraph check --output-file answer.txt --context-file article.txt --nli-backend remote --nli-endpoint http://localhost:8000/classify`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Input flags
	checkCmd.Flags().StringVar(&outputText, "output", "", "output text to audit")
	checkCmd.Flags().StringVar(&outputFile, "output-file", "", "file containing the output text to audit")
	checkCmd.Flags().StringVar(&contextText, "context", "", "reference context text")
	checkCmd.Flags().StringVar(&contextFile, "context-file", "", "file containing the reference context")
	checkCmd.Flags().StringVar(&contextURL, "context-url", "", "URL to fetch the reference context from")

	// Output flags
	checkCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	checkCmd.Flags().StringVar(&graphJSON, "graph-json", "", "write the extracted claim graph to this JSON path")
	checkCmd.Flags().StringVar(&neo4jURI, "neo4j-uri", "", "store the claim graph in this Neo4j database (credentials via NEO4J_USER, NEO4J_PASSWORD)")

	// HTTP flags
	checkCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall check timeout")
	checkCmd.Flags().StringVar(&userAgent, "ua", "factgraph/0.1 (+https://github.com/factgraph/factgraph)", "HTTP User-Agent")
	checkCmd.Flags().Int64Var(&maxBytes, "max-bytes", 2_000_000, "max response bytes to read from a context URL")
	checkCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the completion response cache")
	checkCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	checkCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	checkCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	checkCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// Backend flags
	checkCmd.Flags().StringVar(&extractBackend, "extract-backend", "llm", "claim extraction backend (llm, rebel)")
	checkCmd.Flags().StringVar(&extractEndpoint, "extract-endpoint", "", "hosted extraction model endpoint (rebel backend)")
	checkCmd.Flags().StringVar(&nliBackend, "nli-backend", "llm", "inference classification backend (llm, remote)")
	checkCmd.Flags().StringVar(&nliEndpoint, "nli-endpoint", "", "hosted classifier endpoint (remote backend)")
	checkCmd.Flags().Float64Var(&contradictionThr, "contradiction-threshold", 0.5, "flag claims with contradiction score at or above this")
	checkCmd.Flags().Float64Var(&neutralThr, "neutral-threshold", 0.5, "flag claims with neutral score at or above this")

	// LLM flags
	checkCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama; empty disables)")
	checkCmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (provider default when empty)")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	output, err := resolveOutput()
	if err != nil {
		return err
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.HTTP.Timeout = timeout

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return fmt.Errorf("initialize pipeline: %w", err)
	}

	reference, err := resolveContext(ctx, p)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Auditing %d bytes of output against %d bytes of context\n", len(output), len(reference))
		fmt.Fprintf(os.Stderr, "Backends: extract=%s nli=%s\n", cfg.Extract.Backend, cfg.NLI.Backend)
		fmt.Fprintln(os.Stderr)
	}

	result, err := p.Run(ctx, output, reference)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Extracted %d claims\n", len(result.Report.Triples))
		fmt.Fprintf(os.Stderr, "✓ Flagged %d claims\n", result.Report.Stats.Flagged)
		fmt.Fprintf(os.Stderr, "✓ Support index: %d/100\n", result.Report.Stats.SupportIndex)
		fmt.Fprintln(os.Stderr)
	}

	if err := persistGraph(ctx, cfg, result.Graph); err != nil {
		return err
	}

	if err := p.RenderReport(result.Report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// buildConfig assembles the runtime configuration from flags and
// provider credentials in the environment.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.HTTP.UserAgent = userAgent
	cfg.HTTP.MaxBodyBytes = maxBytes
	cfg.HTTP.InsecureTLS = insecureTLS
	cfg.HTTP.HTTPProxy = httpProxy
	cfg.HTTP.HTTPSProxy = httpsProxy
	cfg.Cache.Enabled = !noCache
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	cfg.Extract.Backend = extractBackend
	cfg.Extract.Endpoint = extractEndpoint
	cfg.NLI.Backend = nliBackend
	cfg.NLI.Endpoint = nliEndpoint
	cfg.Detect.ContradictionThreshold = contradictionThr
	cfg.Detect.NeutralThreshold = neutralThr

	if neo4jURI != "" {
		cfg.Graph.Neo4jURI = neo4jURI
		cfg.Graph.Neo4jUser = os.Getenv("NEO4J_USER")
		if cfg.Graph.Neo4jUser == "" {
			cfg.Graph.Neo4jUser = "neo4j"
		}
		cfg.Graph.Neo4jPassword = os.Getenv("NEO4J_PASSWORD")
		if cfg.Graph.Neo4jPassword == "" {
			return nil, fmt.Errorf("NEO4J_PASSWORD environment variable not set")
		}
	}

	// Configure the LLM provider unless explicitly disabled
	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
		cfg.LLM.Model = llmModel

		// Get API key from environment
		switch llmProvider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "anthropic", "claude":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
			if cfg.LLM.APIKey == "" {
				return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			baseURL := os.Getenv("OLLAMA_BASE_URL")
			if baseURL != "" {
				cfg.LLM.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}

// resolveOutput returns the output text from exactly one input flag.
func resolveOutput() (string, error) {
	set := 0
	if outputText != "" {
		set++
	}
	if outputFile != "" {
		set++
	}
	if set != 1 {
		return "", fmt.Errorf("exactly one of --output or --output-file is required")
	}

	if outputText != "" {
		return outputText, nil
	}
	data, err := os.ReadFile(outputFile)
	if err != nil {
		return "", fmt.Errorf("read output file: %w", err)
	}
	return string(data), nil
}

// resolveContext returns the reference context from exactly one source.
func resolveContext(ctx context.Context, p *pipeline.Pipeline) (string, error) {
	set := 0
	for _, v := range []string{contextText, contextFile, contextURL} {
		if v != "" {
			set++
		}
	}
	if set != 1 {
		return "", fmt.Errorf("exactly one of --context, --context-file, or --context-url is required")
	}

	switch {
	case contextText != "":
		return contextText, nil

	case contextFile != "":
		data, err := os.ReadFile(contextFile)
		if err != nil {
			return "", fmt.Errorf("read context file: %w", err)
		}
		return string(data), nil

	default:
		if verbose {
			fmt.Fprintf(os.Stderr, "⚙️  Fetching context: %s\n", contextURL)
		}
		text, err := p.FetchContext(ctx, contextURL)
		if err != nil {
			return "", fmt.Errorf("fetch context: %w", err)
		}
		return text, nil
	}
}

// persistGraph writes the claim graph to the requested stores.
func persistGraph(ctx context.Context, cfg *model.Config, g *model.ExtractionResult) error {
	if graphJSON != "" {
		if err := graph.SaveJSON(g, graphJSON); err != nil {
			return fmt.Errorf("save claim graph: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote claim graph: %s\n", graphJSON)
		}
	}

	if cfg.Graph.Neo4jURI != "" {
		store, err := graph.NewNeo4jStore(ctx, cfg.Graph)
		if err != nil {
			return fmt.Errorf("connect to Neo4j: %w", err)
		}
		defer func() { _ = store.Close(ctx) }()

		summary, err := store.Store(ctx, g)
		if err != nil {
			return fmt.Errorf("store claim graph: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Stored claim graph in Neo4j: %d entities, %d triples\n",
				summary.EntitiesWritten, summary.TriplesWritten)
		}
	}

	return nil
}
