// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "biosearch-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LLMConfig holds settings for one model role.
type LLMConfig struct {
	// Model is the model identifier (e.g. "gemini-2.5-pro").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Timeout is the per-invocation deadline (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ModelsConfig names the model roles the engine uses. Roles may share a
// model; they exist so that cheap classification work and long-form report
// writing can be routed differently.
type ModelsConfig struct {
	// Reasoning drives planning, reflection and final answers.
	Reasoning LLMConfig `json:"reasoning" yaml:"reasoning"`

	// Fast handles classification and cleanup calls.
	Fast LLMConfig `json:"fast" yaml:"fast"`

	// ToolPlanning drives tool selection and argument construction.
	ToolPlanning LLMConfig `json:"tool_planning" yaml:"tool_planning"`

	// Report writes the long-form final report.
	Report LLMConfig `json:"report" yaml:"report"`
}

// EmbeddingConfig holds settings for the embedding endpoint and its cache.
type EmbeddingConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the OpenAI-compatible embeddings URL.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Model is the embedding model identifier (e.g. "bge-m3").
	Model string `json:"model" yaml:"model"`

	// APIKey is an optional bearer token for the endpoint.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// CachePath is the SQLite file backing the vector cache (empty
	// disables disk caching).
	CachePath string `json:"cache_path" yaml:"cache_path"`
}

// SelectorConfig holds settings for tool selection.
type SelectorConfig struct {
	// NodePoolThreshold is the candidate-tool pool size above which
	// embedding narrowing kicks in for entity matches (default 10).
	NodePoolThreshold int `json:"node_pool_threshold" yaml:"node_pool_threshold"`

	// NodeTopK is how many tools embedding narrowing keeps per entity
	// (default 10).
	NodeTopK int `json:"node_top_k" yaml:"node_top_k"`

	// EdgePoolThreshold is the pool size above which relationship
	// matches are narrowed (default 5).
	EdgePoolThreshold int `json:"edge_pool_threshold" yaml:"edge_pool_threshold"`

	// EdgeTopK is how many tools narrowing keeps per relationship
	// (default 5).
	EdgeTopK int `json:"edge_top_k" yaml:"edge_top_k"`

	// MappingPath is the YAML file describing tool-to-entity wiring for
	// the knowledge graph.
	MappingPath string `json:"mapping_path" yaml:"mapping_path"`
}

// ExecutorConfig holds settings for the tool execution stage.
type ExecutorConfig struct {
	// MaxConcurrent bounds parallel tool calls in a batch (default 6).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// CallTimeout is the per-call deadline (default 150s).
	CallTimeout time.Duration `json:"call_timeout" yaml:"call_timeout"`

	// MaxRetries is the number of retries after a failed call (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// FailureLogPath is the JSON file recording failed invocations
	// (empty disables the log).
	FailureLogPath string `json:"failure_log_path" yaml:"failure_log_path"`
}

// ParserConfig holds settings for evidence extraction.
type ParserConfig struct {
	// MaxConcurrent bounds parallel extraction calls (default 10).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`
}

// CandidateConfig holds settings for the report-mode candidate pool.
type CandidateConfig struct {
	// PoolMax caps the pool size the cleanup pass keeps (default 250).
	PoolMax int `json:"pool_max" yaml:"pool_max"`

	// ValidationBatchSize caps symbols selected for validation per
	// iteration (default 12).
	ValidationBatchSize int `json:"validation_batch_size" yaml:"validation_batch_size"`

	// ValidationConcurrency bounds parallel validation lookups (default 5).
	ValidationConcurrency int `json:"validation_concurrency" yaml:"validation_concurrency"`

	// ProfileMinPool is the pool size at which profiling starts
	// (default 60).
	ProfileMinPool int `json:"profile_min_pool" yaml:"profile_min_pool"`
}

// ToolServerConfig points the engine at the HTTP tool server that fronts
// the biomedical tool suites.
type ToolServerConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the tool server root (e.g. "http://localhost:8810").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is an optional bearer token for the server.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// ContextConfig holds settings for accumulated-knowledge management.
type ContextConfig struct {
	// MaxContextLength is the token budget for accumulated knowledge
	// (default 32000).
	MaxContextLength int `json:"max_context_length" yaml:"max_context_length"`
}

// EngineConfig groups all component configurations for a research run.
type EngineConfig struct {
	Models     ModelsConfig     `json:"models" yaml:"models"`
	Embedding  EmbeddingConfig  `json:"embedding" yaml:"embedding"`
	Selector   SelectorConfig   `json:"selector" yaml:"selector"`
	Executor   ExecutorConfig   `json:"executor" yaml:"executor"`
	Parser     ParserConfig     `json:"parser" yaml:"parser"`
	Candidates CandidateConfig  `json:"candidates" yaml:"candidates"`
	Context    ContextConfig    `json:"context" yaml:"context"`
	ToolServer ToolServerConfig `json:"tool_server" yaml:"tool_server"`

	// MaxIterations is the iteration budget per question (default 10).
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// QuestionsPerIteration is how many sub-questions each planning pass
	// asks for (default 5).
	QuestionsPerIteration int `json:"questions_per_iteration" yaml:"questions_per_iteration"`

	// ReportMode enables candidate discovery and the detailed report.
	ReportMode bool `json:"report_mode" yaml:"report_mode"`

	// BibliographyPath is the cross-run bibliography JSON file.
	BibliographyPath string `json:"bibliography_path" yaml:"bibliography_path"`

	// TraceDir is the directory for trace and case files.
	TraceDir string `json:"trace_dir" yaml:"trace_dir"`
}

// DefaultEngineConfig returns the configuration with all documented
// defaults applied.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Models: ModelsConfig{
			Reasoning:    LLMConfig{Model: "gemini-2.5-pro", Timeout: 60 * time.Second, MaxRetries: 3},
			Fast:         LLMConfig{Model: "gemini-2.5-flash", Timeout: 30 * time.Second, MaxRetries: 3},
			ToolPlanning: LLMConfig{Model: "gemini-2.5-flash", Timeout: 60 * time.Second, MaxRetries: 3},
			Report:       LLMConfig{Model: "gemini-2.5-pro", Timeout: 180 * time.Second, MaxRetries: 2},
		},
		Embedding: EmbeddingConfig{
			HTTPConfig: HTTPConfig{Timeout: 30 * time.Second, UserAgent: "biosearch-engine/0.1"},
			Model:      "bge-m3",
		},
		Selector: SelectorConfig{
			NodePoolThreshold: 10,
			NodeTopK:          10,
			EdgePoolThreshold: 5,
			EdgeTopK:          5,
		},
		Executor: ExecutorConfig{
			MaxConcurrent: 6,
			CallTimeout:   150 * time.Second,
			MaxRetries:    2,
		},
		Parser: ParserConfig{MaxConcurrent: 10},
		Candidates: CandidateConfig{
			PoolMax:               250,
			ValidationBatchSize:   12,
			ValidationConcurrency: 5,
			ProfileMinPool:        60,
		},
		Context:               ContextConfig{MaxContextLength: 32000},
		MaxIterations:         10,
		QuestionsPerIteration: 5,
	}
}
