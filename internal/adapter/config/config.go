package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config はアプリケーション全体の設定
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	CORS      CORSConfig      `yaml:"cors"`
	Router    RouterConfig    `yaml:"router"`
	Generator GeneratorConfig `yaml:"generator"`
	Enhancer  EnhancerConfig  `yaml:"enhancer"`
	Gemini    GeminiConfig    `yaml:"gemini"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Claude    ClaudeConfig    `yaml:"claude"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// CORSConfig はCORS設定
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RouterConfig はルーティング設定
type RouterConfig struct {
	DefaultExpert      string  `yaml:"default_expert"`
	FallbackConfidence float64 `yaml:"fallback_confidence"`
	AmbiguityThreshold float64 `yaml:"ambiguity_threshold"`
	UseLLMClassifier   bool    `yaml:"use_llm_classifier"`
	Provider           string  `yaml:"provider"` // 分類に使うLLMプロバイダー
}

// GeneratorConfig はテキスト生成設定
type GeneratorConfig struct {
	Provider string `yaml:"provider"`
}

// EnhancerConfig はクエリ強化設定
type EnhancerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"`
}

// GeminiConfig はGemini API設定
type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"GEMINI_API_KEY"` // 環境変数から読み込み推奨
	Model  string `yaml:"model"`
}

// OpenAIConfig はOpenAI API設定
type OpenAIConfig struct {
	APIKey string `yaml:"api_key" env:"OPENAI_API_KEY"` // 環境変数から読み込み推奨
	Model  string `yaml:"model"`
}

// ClaudeConfig はClaude API設定
type ClaudeConfig struct {
	APIKey string `yaml:"api_key" env:"ANTHROPIC_API_KEY"` // 環境変数から読み込み推奨
	Model  string `yaml:"model"`
}

// OllamaConfig はOllama設定
type OllamaConfig struct {
	BaseURL string `yaml:"base_url" env:"OLLAMA_BASE_URL"`
	Model   string `yaml:"model"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// 有効なプロバイダー名
var validProviders = map[string]bool{
	"gemini": true,
	"openai": true,
	"claude": true,
	"ollama": true,
}

// LoadConfig は設定ファイルを読み込む
func LoadConfig(path string) (*Config, error) {
	// ファイル読み込み
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// YAMLパース
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	// デフォルト値設定
	cfg.setDefaults()

	// 環境変数から機密情報を読み込み
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// バリデーション
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig は設定ファイルなしで動くデフォルト設定を返す
func DefaultConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{Port: 8000},
	}

	cfg.setDefaults()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// setDefaults はデフォルト値を設定
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		c.CORS.AllowedOrigins = []string{"*"}
	}

	if c.Router.DefaultExpert == "" {
		c.Router.DefaultExpert = "email"
	}

	if c.Router.FallbackConfidence == 0 {
		c.Router.FallbackConfidence = 0.5
	}

	if c.Router.AmbiguityThreshold == 0 {
		c.Router.AmbiguityThreshold = 0.3
	}

	if c.Router.Provider == "" {
		c.Router.Provider = "gemini"
	}

	if c.Generator.Provider == "" {
		c.Generator.Provider = "gemini"
	}

	if c.Enhancer.Provider == "" {
		c.Enhancer.Provider = c.Generator.Provider
	}

	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.0-flash"
	}

	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}

	if c.Claude.Model == "" {
		c.Claude.Model = "claude-sonnet-4-20250514"
	}

	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = "http://localhost:11434"
	}

	if c.Ollama.Model == "" {
		c.Ollama.Model = "llama3.1"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate は設定の妥当性を検証
func (c *Config) Validate() error {
	// サーバー設定検証
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}

	// ルーティング設定検証
	if c.Router.FallbackConfidence < 0 || c.Router.FallbackConfidence > 1 {
		return fmt.Errorf("invalid fallback_confidence: %f (must be 0-1)", c.Router.FallbackConfidence)
	}

	if c.Router.AmbiguityThreshold < 0 || c.Router.AmbiguityThreshold > 1 {
		return fmt.Errorf("invalid ambiguity_threshold: %f (must be 0-1)", c.Router.AmbiguityThreshold)
	}

	// プロバイダー名検証
	if !validProviders[c.Generator.Provider] {
		return fmt.Errorf("invalid generator provider: %s", c.Generator.Provider)
	}

	if c.Router.UseLLMClassifier && !validProviders[c.Router.Provider] {
		return fmt.Errorf("invalid router provider: %s", c.Router.Provider)
	}

	if c.Enhancer.Enabled && !validProviders[c.Enhancer.Provider] {
		return fmt.Errorf("invalid enhancer provider: %s", c.Enhancer.Provider)
	}

	// Ollama設定検証
	if c.Ollama.BaseURL == "" {
		return fmt.Errorf("ollama base_url is required")
	}

	return nil
}
