package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"topicseg/internal/domain"
)

// LogConfig configures the process logger.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ChunkerConfig configures how text is split into chunks.
type ChunkerConfig struct {
	TargetWords        int `yaml:"target_words"`
	MinWords           int `yaml:"min_words"`
	SentencesPerWindow int `yaml:"sentences_per_window"`
	CharWindow         int `yaml:"char_window"`
}

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL           string `yaml:"base_url"`
	APIKeyEnv         string `yaml:"api_key_env"`
	Model             string `yaml:"model"`
	TimeoutSecs       int    `yaml:"timeout_secs"`
	BatchSize         int    `yaml:"batch_size"`
	MaxRetries        int    `yaml:"max_retries"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
	RequestsPerDay    int    `yaml:"requests_per_day"`
}

// OllamaEmbedderConfig holds configuration for the Ollama embedder.
type OllamaEmbedderConfig struct {
	ServerURL string `yaml:"server_url"`
	Model     string `yaml:"model"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string                `yaml:"type"`
	CacheSize int                   `yaml:"cache_size"`
	OpenAI    *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
	Ollama    *OllamaEmbedderConfig `yaml:"ollama,omitempty"`
}

// ClusterConfig configures density clustering.
type ClusterConfig struct {
	SmallSampleThreshold  int `yaml:"small_sample_threshold"`
	MinClusterSizeDivisor int `yaml:"min_cluster_size_divisor"`
}

// NamingConfig configures topic labels.
type NamingConfig struct {
	TopTerms      int    `yaml:"top_terms"`
	LabelTerms    int    `yaml:"label_terms"`
	FallbackWords int    `yaml:"fallback_words"`
	MaxFeatures   int    `yaml:"max_features"`
	DefaultLabel  string `yaml:"default_label"`
}

// ConfidenceConfig holds the empirical confidence weights. The defaults are
// tunable and not derived from a validated model.
type ConfidenceConfig struct {
	LengthWeight       float64 `yaml:"length_weight"`
	CompletenessWeight float64 `yaml:"completeness_weight"`
	RichnessWeight     float64 `yaml:"richness_weight"`
	TargetWords        int     `yaml:"target_words"`
	IncompleteScore    float64 `yaml:"incomplete_score"`
	SizeBonusStep      float64 `yaml:"size_bonus_step"`
	SizeBonusCap       float64 `yaml:"size_bonus_cap"`
}

// ServiceConfig configures batch processing.
type ServiceConfig struct {
	Workers int `yaml:"workers"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Log        LogConfig        `yaml:"log"`
	Chunker    ChunkerConfig    `yaml:"chunker"`
	Embedder   EmbedderConfig   `yaml:"embedder"`
	Cluster    ClusterConfig    `yaml:"cluster"`
	Naming     NamingConfig     `yaml:"naming"`
	Confidence ConfidenceConfig `yaml:"confidence"`
	Service    ServiceConfig    `yaml:"service"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Fields
// absent from data keep their default, explicit zeros are kept.
func Parse(data []byte) (*AppConfig, error) {
	cfg := Default()
	cfg.Embedder.OpenAI = defaultOpenAI()
	cfg.Embedder.Ollama = defaultOllama()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyConfigDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault tries ./topicseg.yaml first, then ~/.config/topicseg/config.yaml.
// If neither exists, defaults are returned without touching the filesystem.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "topicseg.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return Default(), "", nil
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	return Default(), "", nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath returns ~/.config/topicseg/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "topicseg", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	return &AppConfig{
		Log: LogConfig{Level: "info"},
		Chunker: ChunkerConfig{
			TargetWords:        200,
			MinWords:           10,
			SentencesPerWindow: 3,
			CharWindow:         500,
		},
		Embedder: EmbedderConfig{Type: "tfidf"},
		Cluster: ClusterConfig{
			SmallSampleThreshold:  5,
			MinClusterSizeDivisor: 10,
		},
		Naming: NamingConfig{
			TopTerms:      5,
			LabelTerms:    3,
			FallbackWords: 5,
			MaxFeatures:   1000,
			DefaultLabel:  "General Topic",
		},
		Confidence: ConfidenceConfig{
			LengthWeight:       0.4,
			CompletenessWeight: 0.3,
			RichnessWeight:     0.3,
			TargetWords:        50,
			IncompleteScore:    0.7,
			SizeBonusStep:      0.05,
			SizeBonusCap:       0.2,
		},
		Service: ServiceConfig{Workers: 4},
	}
}

func defaultOpenAI() *OpenAIEmbedderConfig {
	return &OpenAIEmbedderConfig{
		BaseURL:     "https://api.openai.com/v1",
		APIKeyEnv:   "OPENAI_API_KEY",
		Model:       "text-embedding-3-small",
		TimeoutSecs: 30,
		BatchSize:   32,
		MaxRetries:  5,
	}
}

func defaultOllama() *OllamaEmbedderConfig {
	return &OllamaEmbedderConfig{
		ServerURL: "http://localhost:11434",
		Model:     "nomic-embed-text",
	}
}

// applyConfigDefaults drops provider sections of unselected embedders and
// restores strings that must not be blank.
func applyConfigDefaults(cfg *AppConfig) {
	def := Default()
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Naming.DefaultLabel == "" {
		cfg.Naming.DefaultLabel = def.Naming.DefaultLabel
	}

	switch cfg.Embedder.Type {
	case "openai":
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = defaultOpenAI()
		}
		o, d := cfg.Embedder.OpenAI, defaultOpenAI()
		if o.BaseURL == "" {
			o.BaseURL = d.BaseURL
		}
		if o.APIKeyEnv == "" {
			o.APIKeyEnv = d.APIKeyEnv
		}
		if o.Model == "" {
			o.Model = d.Model
		}
		cfg.Embedder.Ollama = nil
	case "ollama":
		if cfg.Embedder.Ollama == nil {
			cfg.Embedder.Ollama = defaultOllama()
		}
		o, d := cfg.Embedder.Ollama, defaultOllama()
		if o.ServerURL == "" {
			o.ServerURL = d.ServerURL
		}
		if o.Model == "" {
			o.Model = d.Model
		}
		cfg.Embedder.OpenAI = nil
	default:
		cfg.Embedder.OpenAI = nil
		cfg.Embedder.Ollama = nil
	}
}

// Validate checks ranges and known implementation names.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "tfidf", "openai", "ollama":
	default:
		return fmt.Errorf("%w: unknown embedder %q", domain.ErrInvalidConfig, c.Embedder.Type)
	}
	if c.Embedder.CacheSize < 0 {
		return fmt.Errorf("%w: embedder.cache_size must be >= 0", domain.ErrInvalidConfig)
	}
	if o := c.Embedder.OpenAI; o != nil && (o.BatchSize < 1 || o.MaxRetries < 0 || o.TimeoutSecs < 0) {
		return fmt.Errorf("%w: embedder.openai needs batch_size >= 1 and non-negative max_retries and timeout_secs", domain.ErrInvalidConfig)
	}
	if c.Chunker.TargetWords < c.Chunker.MinWords {
		return fmt.Errorf("%w: chunker.target_words must be >= chunker.min_words", domain.ErrInvalidConfig)
	}
	if c.Chunker.TargetWords < 1 || c.Chunker.MinWords < 0 || c.Chunker.SentencesPerWindow < 1 || c.Chunker.CharWindow < 1 {
		return fmt.Errorf("%w: chunker values must be positive", domain.ErrInvalidConfig)
	}
	if c.Cluster.SmallSampleThreshold < 1 || c.Cluster.MinClusterSizeDivisor < 1 {
		return fmt.Errorf("%w: cluster values must be positive", domain.ErrInvalidConfig)
	}
	if c.Naming.LabelTerms < 1 || c.Naming.TopTerms < c.Naming.LabelTerms {
		return fmt.Errorf("%w: naming.top_terms must be >= naming.label_terms >= 1", domain.ErrInvalidConfig)
	}
	if c.Naming.FallbackWords < 1 || c.Naming.MaxFeatures < 1 {
		return fmt.Errorf("%w: naming values must be positive", domain.ErrInvalidConfig)
	}
	s := c.Confidence
	if s.TargetWords < 1 {
		return fmt.Errorf("%w: confidence.target_words must be >= 1", domain.ErrInvalidConfig)
	}
	for name, w := range map[string]float64{
		"length_weight":       s.LengthWeight,
		"completeness_weight": s.CompletenessWeight,
		"richness_weight":     s.RichnessWeight,
		"incomplete_score":    s.IncompleteScore,
		"size_bonus_step":     s.SizeBonusStep,
		"size_bonus_cap":      s.SizeBonusCap,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: confidence.%s must be within [0,1]", domain.ErrInvalidConfig, name)
		}
	}
	if sum := s.LengthWeight + s.CompletenessWeight + s.RichnessWeight; sum > 1+1e-9 {
		return fmt.Errorf("%w: confidence weights sum to %.2f, must be <= 1", domain.ErrInvalidConfig, sum)
	}
	if c.Service.Workers < 1 {
		return fmt.Errorf("%w: service.workers must be >= 1", domain.ErrInvalidConfig)
	}
	return nil
}
