package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Nyukimin/textmoe/internal/domain/expert"
	"github.com/Nyukimin/textmoe/internal/domain/generation"
	"github.com/Nyukimin/textmoe/internal/domain/llm"
	"github.com/Nyukimin/textmoe/internal/domain/routing"
)

// GenerateRequest はテキスト生成リクエスト
type GenerateRequest struct {
	Prompt      string
	Expert      string // 空または"auto"で自動ルーティング
	MaxTokens   int
	Temperature float64
}

// Router はプロンプトから専門家を決定するインターフェース
type Router interface {
	Route(ctx context.Context, prompt string) routing.Decision
}

// Enhancer はプロンプトから構造化メタデータを抽出するインターフェース
type Enhancer interface {
	Enhance(ctx context.Context, prompt, expertID string) (generation.EnhancedQuery, error)
}

// GenerationOrchestrator はテキスト生成処理を統括
type GenerationOrchestrator struct {
	registry *expert.Registry
	router   Router
	provider llm.LLMProvider
	enhancer Enhancer // nilなら強化をスキップ
	logger   *zap.Logger
}

// NewGenerationOrchestrator は新しいGenerationOrchestratorを作成
func NewGenerationOrchestrator(
	registry *expert.Registry,
	router Router,
	provider llm.LLMProvider,
	enhancer Enhancer,
	logger *zap.Logger,
) *GenerationOrchestrator {
	return &GenerationOrchestrator{
		registry: registry,
		router:   router,
		provider: provider,
		enhancer: enhancer,
		logger:   logger,
	}
}

// Generate はプロンプトを処理してテキストを生成
func (o *GenerationOrchestrator) Generate(ctx context.Context, req GenerateRequest) (generation.Result, error) {
	// 1. 入力検証
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return generation.Result{}, fmt.Errorf("prompt must not be empty: %w", generation.ErrValidation)
	}

	requestID := generation.NewRequestID()

	// 2. 専門家を決定（手動指定または自動ルーティング）
	decision, err := o.decide(ctx, prompt, req.Expert)
	if err != nil {
		return generation.Result{}, err
	}

	def, ok := o.registry.Get(decision.ExpertID)
	if !ok {
		return generation.Result{}, fmt.Errorf("routed to unknown expert %q: %w", decision.ExpertID, generation.ErrUnknownExpert)
	}

	if !def.Available {
		return generation.Result{}, fmt.Errorf("expert %q is not available: %w", def.ID, generation.ErrExpertUnavailable)
	}

	o.logger.Info("expert selected",
		zap.String("request_id", requestID.String()),
		zap.String("expert", def.ID),
		zap.Float64("confidence", decision.Confidence),
		zap.String("method", string(decision.Method)),
	)

	// 3. 生成リクエストを構築（リクエスト単位の上書きを反映）
	llmReq := def.BuildRequest(prompt)
	if req.MaxTokens > 0 {
		llmReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		llmReq.Temperature = req.Temperature
	}

	// 4. LLM呼び出し
	llmResp, err := o.provider.Generate(ctx, llmReq)
	if err != nil {
		return generation.Result{}, fmt.Errorf("generation via %s failed: %v: %w", o.provider.Name(), err, generation.ErrUpstream)
	}

	generated := def.ParseResponse(prompt, llmResp.Content)

	// 5. クエリ強化（失敗しても生成結果は返す）
	enhanced := o.enhance(ctx, prompt, def.ID, requestID)

	return generation.Result{
		RequestID:     requestID,
		Prompt:        prompt,
		GeneratedText: generated,
		ExpertUsed:    def.ID,
		Confidence:    decision.Confidence,
		Method:        decision.Method,
		Reason:        decision.Reason,
		Scores:        decision.Scores,
		EnhancedQuery: enhanced,
	}, nil
}

// decide は専門家を決定。明示指定があればルーティングを迂回する。
func (o *GenerationOrchestrator) decide(ctx context.Context, prompt, forced string) (routing.Decision, error) {
	forced = strings.ToLower(strings.TrimSpace(forced))

	if forced != "" && forced != "auto" {
		if _, ok := o.registry.Get(forced); !ok {
			return routing.Decision{}, fmt.Errorf("unknown expert %q: %w", forced, generation.ErrUnknownExpert)
		}
		return routing.NewDecision(forced, 1.0, routing.MethodManual, "expert explicitly requested"), nil
	}

	return o.router.Route(ctx, prompt), nil
}

// enhance はクエリ強化をベストエフォートで実行
func (o *GenerationOrchestrator) enhance(ctx context.Context, prompt, expertID string, requestID generation.RequestID) generation.EnhancedQuery {
	if o.enhancer == nil {
		return nil
	}

	enhanced, err := o.enhancer.Enhance(ctx, prompt, expertID)
	if err != nil {
		o.logger.Warn("query enhancement failed",
			zap.String("request_id", requestID.String()),
			zap.String("expert", expertID),
			zap.Error(err),
		)
		return nil
	}

	return enhanced
}
