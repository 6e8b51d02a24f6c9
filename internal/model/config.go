package model

import "time"

// Config is the full runtime configuration. Values are populated from
// defaults, then the config file, then FACTGRAPH_* environment
// variables, then CLI flags.
type Config struct {
	Extract     ExtractConfig     `yaml:"extract"`
	NLI         NLIConfig         `yaml:"nli"`
	Detect      DetectConfig      `yaml:"detect"`
	LLM         LLMConfig         `yaml:"llm"`
	HTTP        HTTPConfig        `yaml:"http"`
	Cache       CacheConfig       `yaml:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Graph       GraphConfig       `yaml:"graph"`
	Output      OutputConfig      `yaml:"output"`
}

// ExtractConfig selects and tunes the claim extraction backend.
type ExtractConfig struct {
	// Backend: "llm" (prompted extraction) or "rebel" (triplet token stream)
	Backend string `yaml:"backend"`

	// Endpoint of the hosted seq2seq extraction model (rebel backend only)
	Endpoint string `yaml:"endpoint"`

	// Timeout for extraction model requests, seconds
	Timeout int `yaml:"timeout"`
}

// NLIConfig selects the inference classifier used by the judge.
type NLIConfig struct {
	// Backend: "llm" (prompted classification) or "remote" (hosted classifier endpoint)
	Backend string `yaml:"backend"`

	// Endpoint of the hosted classifier (remote backend only)
	Endpoint string `yaml:"endpoint"`

	// Timeout for classifier requests, seconds
	Timeout int `yaml:"timeout"`

	// MaxWorkers bounds concurrent classification requests
	MaxWorkers int `yaml:"max_workers"`
}

// DetectConfig holds the judge's decision thresholds. A claim is flagged
// when contradiction >= ContradictionThreshold or neutral >=
// NeutralThreshold (both inclusive).
type DetectConfig struct {
	ContradictionThreshold float64 `yaml:"contradiction_threshold"`
	NeutralThreshold       float64 `yaml:"neutral_threshold"`
}

// LLMConfig holds completion provider configuration.
type LLMConfig struct {
	// Provider name: "openai", "anthropic", "ollama", "" (disabled)
	Provider string `yaml:"provider"`

	// Model name (provider-specific)
	Model string `yaml:"model"`

	// APIKey for OpenAI/Anthropic
	APIKey string `yaml:"api_key"`

	// BaseURL for custom endpoints (e.g. Ollama)
	BaseURL string `yaml:"base_url"`

	// Timeout for API requests, seconds
	Timeout int `yaml:"timeout"`

	// MaxTokens for response generation
	MaxTokens int `yaml:"max_tokens"`

	// Proxy settings
	HTTPProxy  string `yaml:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy"`
	NoProxy    string `yaml:"no_proxy"`
}

// HTTPConfig configures the reference-context fetcher.
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout"`
	UserAgent    string        `yaml:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy"`
}

// CacheConfig configures the completion response cache.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Dir     string        `yaml:"dir"` // Empty means ~/.factgraph/cache
	TTL     time.Duration `yaml:"ttl"`
}

// ConcurrencyConfig bounds parallel work.
type ConcurrencyConfig struct {
	// Workers for batch case processing
	Workers int `yaml:"workers"`
}

// RateLimitConfig throttles outbound context fetches per domain.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// GraphConfig configures claim-graph persistence.
type GraphConfig struct {
	// Neo4jURI like "neo4j://localhost:7687"; empty disables the store
	Neo4jURI      string `yaml:"neo4j_uri"`
	Neo4jUser     string `yaml:"neo4j_user"`
	Neo4jPassword string `yaml:"neo4j_password"`
	Database      string `yaml:"database"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose"`
	IncludeFooter bool `yaml:"include_footer"`
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() *Config {
	return &Config{
		Extract: ExtractConfig{
			Backend: "llm",
		},
		NLI: NLIConfig{
			Backend:    "llm",
			Timeout:    30,
			MaxWorkers: 4,
		},
		Detect: DetectConfig{
			ContradictionThreshold: 0.5,
			NeutralThreshold:       0.5,
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "",
			Timeout:   30,
			MaxTokens: 1000,
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "factgraph/0.1 (+https://github.com/factgraph/factgraph)",
			MaxBodyBytes: 2_000_000,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 2.0,
			Burst:             5,
		},
		Graph: GraphConfig{
			Database: "neo4j",
		},
		Output: OutputConfig{
			Verbose:       false,
			IncludeFooter: true,
		},
	}
}
