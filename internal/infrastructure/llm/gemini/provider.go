package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/Nyukimin/textmoe/internal/domain/llm"
)

// GeminiProvider はGoogle Gemini APIプロバイダーの実装
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider は新しいGeminiProviderを作成。
// クライアントは接続を保持するため、プロセス終了時にCloseを呼ぶこと。
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

// Close はクライアント接続を閉じる
func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

// Generate はLLM生成を実行
func (p *GeminiProvider) Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResponse, error) {
	model := p.client.GenerativeModel(p.model)

	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemPrompt)},
		}
	}

	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}

	if req.TopP > 0 {
		model.SetTopP(float32(req.TopP))
	}

	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(p.buildPrompt(req)))
	if err != nil {
		return llm.GenerateResponse{}, fmt.Errorf("gemini API error: %w", err)
	}

	content, finishReason, err := extractText(resp)
	if err != nil {
		return llm.GenerateResponse{}, err
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return llm.GenerateResponse{
		Content:      content,
		TokensUsed:   tokensUsed,
		FinishReason: finishReason,
	}, nil
}

// Name はプロバイダー名を返す
func (p *GeminiProvider) Name() string {
	return fmt.Sprintf("gemini-%s", p.model)
}

// buildPrompt はメッセージ履歴を単一のユーザープロンプトへ平坦化
func (p *GeminiProvider) buildPrompt(req llm.GenerateRequest) string {
	parts := make([]string, 0, len(req.Messages))
	for _, msg := range req.Messages {
		parts = append(parts, msg.Content)
	}
	return strings.Join(parts, "\n")
}

// extractText はGemini応答からテキスト部分を取り出す
func extractText(resp *genai.GenerateContentResponse) (string, string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", "", fmt.Errorf("gemini API returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", "", fmt.Errorf("gemini API returned an empty candidate")
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	return b.String(), finishReasonString(candidate.FinishReason), nil
}

// finishReasonString は終了理由をプロバイダー非依存の表現へ変換
func finishReasonString(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonStop:
		return "stop"
	case genai.FinishReasonMaxTokens:
		return "max_tokens"
	default:
		return strings.ToLower(reason.String())
	}
}
