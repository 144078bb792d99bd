package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Nyukimin/textmoe/internal/adapter/config"
	"github.com/Nyukimin/textmoe/internal/adapter/httpapi"
	"github.com/Nyukimin/textmoe/internal/adapter/ws"
	"github.com/Nyukimin/textmoe/internal/application/orchestrator"
	"github.com/Nyukimin/textmoe/internal/domain/expert"
	"github.com/Nyukimin/textmoe/internal/domain/llm"
	domainrouting "github.com/Nyukimin/textmoe/internal/domain/routing"
	"github.com/Nyukimin/textmoe/internal/infrastructure/enhance"
	"github.com/Nyukimin/textmoe/internal/infrastructure/llm/claude"
	"github.com/Nyukimin/textmoe/internal/infrastructure/llm/gemini"
	"github.com/Nyukimin/textmoe/internal/infrastructure/llm/ollama"
	"github.com/Nyukimin/textmoe/internal/infrastructure/llm/openai"
	"github.com/Nyukimin/textmoe/internal/infrastructure/routing"
	"github.com/Nyukimin/textmoe/pkg/health"
)

func main() {
	// .envがあれば読み込む（なくてもよい）
	_ = godotenv.Load()

	// 設定読み込み
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// ロガー構築
	logger, err := buildLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// 依存関係構築
	deps, err := buildDependencies(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("dependency injection failed", zap.Error(err))
	}
	defer deps.close()

	// HTTPサーバー起動
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting textmoe server",
		zap.String("addr", addr),
		zap.String("generator", cfg.Generator.Provider),
		zap.Bool("llm_classifier", cfg.Router.UseLLMClassifier),
		zap.Bool("enhancer", cfg.Enhancer.Enabled),
	)

	if err := http.ListenAndServe(addr, deps.mux); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// loadConfig は設定ファイルを読み込む。ファイルがなければデフォルト設定で起動。
func loadConfig() (*config.Config, error) {
	path := os.Getenv("TEXTMOE_CONFIG")
	if path == "" {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		log.Printf("Config file %s not found, using defaults", path)
		return config.DefaultConfig()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	log.Printf("Loaded config from: %s", path)
	return cfg, nil
}

// buildLogger はログ設定からzapロガーを構築
func buildLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// Dependencies はアプリケーション依存関係
type Dependencies struct {
	mux      *http.ServeMux
	cleanups []func() error
}

// close は保持しているリソースを解放
func (d *Dependencies) close() {
	for _, cleanup := range d.cleanups {
		_ = cleanup()
	}
}

// buildDependencies は依存関係を構築
func buildDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{}

	// 1. エキスパートレジストリ
	registry, err := expert.NewRegistry(expert.DefaultCatalog())
	if err != nil {
		return nil, fmt.Errorf("failed to build expert registry: %w", err)
	}

	// プロバイダーは名前ごとに1インスタンスを共有
	providers := map[string]llm.LLMProvider{}
	getProvider := func(name string) (llm.LLMProvider, error) {
		if p, ok := providers[name]; ok {
			return p, nil
		}
		p, err := buildProvider(ctx, cfg, name, deps)
		if err != nil {
			return nil, err
		}
		providers[name] = p
		return p, nil
	}

	// 2. 生成用プロバイダー
	generator, err := getProvider(cfg.Generator.Provider)
	if err != nil {
		return nil, err
	}
	logger.Info("generation provider ready", zap.String("provider", generator.Name()))

	// 3. ルーティングコンポーネント
	scorer, err := routing.NewKeywordScorer(registry, routing.ScorerConfig{
		DefaultExpertID:    cfg.Router.DefaultExpert,
		FallbackConfidence: cfg.Router.FallbackConfidence,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build keyword scorer: %w", err)
	}

	prefilter := routing.NewPhrasePrefilter(registry)

	var classifier domainrouting.Classifier
	if cfg.Router.UseLLMClassifier {
		classifierProvider, err := getProvider(cfg.Router.Provider)
		if err != nil {
			return nil, err
		}
		classifier = routing.NewLLMClassifier(classifierProvider, registry)
		logger.Info("LLM classifier enabled", zap.String("provider", classifierProvider.Name()))
	}

	selector := domainrouting.NewSelector(prefilter, scorer, classifier, cfg.Router.AmbiguityThreshold)

	// 4. クエリ強化
	var enhancer orchestrator.Enhancer
	if cfg.Enhancer.Enabled {
		enhancerProvider, err := getProvider(cfg.Enhancer.Provider)
		if err != nil {
			return nil, err
		}
		enhancer = enhance.NewQueryEnhancer(enhancerProvider)
		logger.Info("query enhancer enabled", zap.String("provider", enhancerProvider.Name()))
	}

	// 5. オーケストレータ
	orch := orchestrator.NewGenerationOrchestrator(registry, selector, generator, enhancer, logger)

	// 6. HTTP/WSアダプター
	routerInfo := httpapi.RouterInfo{
		Type:               "keyword",
		DefaultExpert:      cfg.Router.DefaultExpert,
		FallbackConfidence: cfg.Router.FallbackConfidence,
		AmbiguityThreshold: cfg.Router.AmbiguityThreshold,
		LLMClassifier:      cfg.Router.UseLLMClassifier,
	}

	apiHandler := httpapi.NewHandler(orch, registry, routerInfo, cfg.CORS.AllowedOrigins, logger)
	wsHandler := ws.NewHandler(orch, cfg.CORS.AllowedOrigins, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.Handle("/healthz", health.Handler(buildHealthChecks(cfg)))
	mux.Handle("/", apiHandler)
	deps.mux = mux

	logger.Info("dependency injection complete")

	return deps, nil
}

// buildProvider はプロバイダー名からLLMProviderを構築
func buildProvider(ctx context.Context, cfg *config.Config, name string, deps *Dependencies) (llm.LLMProvider, error) {
	switch name {
	case "gemini":
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
		p, err := gemini.NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			return nil, err
		}
		deps.cleanups = append(deps.cleanups, p.Close)
		return p, nil

	case "openai":
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
		return openai.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model), nil

	case "claude":
		if cfg.Claude.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for the claude provider")
		}
		return claude.NewClaudeProvider(cfg.Claude.APIKey, cfg.Claude.Model), nil

	case "ollama":
		return ollama.NewOllamaProvider(cfg.Ollama.BaseURL, cfg.Ollama.Model), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
}

// buildHealthChecks は/healthz用の依存先検査を構築
func buildHealthChecks(cfg *config.Config) map[string]health.CheckFunc {
	checks := map[string]health.CheckFunc{}

	usesProvider := func(name string) bool {
		if cfg.Generator.Provider == name {
			return true
		}
		if cfg.Router.UseLLMClassifier && cfg.Router.Provider == name {
			return true
		}
		return cfg.Enhancer.Enabled && cfg.Enhancer.Provider == name
	}

	if usesProvider("ollama") {
		checks["ollama"] = health.OllamaCheck(cfg.Ollama.BaseURL, 5*time.Second)
		checks["ollama_model"] = health.OllamaModelCheck(cfg.Ollama.BaseURL, 5*time.Second, cfg.Ollama.Model)
	}
	if usesProvider("gemini") {
		checks["gemini_api_key"] = health.APIKeyCheck("gemini", cfg.Gemini.APIKey)
	}
	if usesProvider("openai") {
		checks["openai_api_key"] = health.APIKeyCheck("openai", cfg.OpenAI.APIKey)
	}
	if usesProvider("claude") {
		checks["claude_api_key"] = health.APIKeyCheck("claude", cfg.Claude.APIKey)
	}

	return checks
}
