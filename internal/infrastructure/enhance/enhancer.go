package enhance

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Nyukimin/textmoe/internal/domain/generation"
	"github.com/Nyukimin/textmoe/internal/domain/llm"
)

// 抽出はブレを抑えるため低温度・小出力で行う
const (
	enhanceTemperature = 0.2
	enhanceMaxTokens   = 300
)

// QueryEnhancer はプロンプトから構造化メタデータを抽出する補助サービス。
// 失敗しても主生成には影響させない（呼び出し側でエラーを握って劣化運転する）。
type QueryEnhancer struct {
	llmProvider llm.LLMProvider
}

// NewQueryEnhancer は新しいQueryEnhancerを作成
func NewQueryEnhancer(llmProvider llm.LLMProvider) *QueryEnhancer {
	return &QueryEnhancer{
		llmProvider: llmProvider,
	}
}

// Enhance はエキスパート種別に応じた構造化メタデータを抽出
func (e *QueryEnhancer) Enhance(ctx context.Context, prompt, expertID string) (generation.EnhancedQuery, error) {
	req := llm.GenerateRequest{
		SystemPrompt: "You extract structured metadata from text generation requests. Respond with a single JSON object and nothing else.",
		Messages: []llm.Message{
			{Role: "user", Content: e.buildExtractionPrompt(prompt, expertID)},
		},
		MaxTokens:   enhanceMaxTokens,
		Temperature: enhanceTemperature,
	}

	resp, err := e.llmProvider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query enhancement failed: %w", err)
	}

	fields, err := parseJSONObject(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("query enhancement returned malformed JSON: %w", err)
	}

	fields["original_query"] = prompt
	fields["expert_type"] = expertID

	return fields, nil
}

// buildExtractionPrompt はエキスパート種別ごとの抽出プロンプトを構築
func (e *QueryEnhancer) buildExtractionPrompt(prompt, expertID string) string {
	var fields string

	switch expertID {
	case "story":
		fields = `"genre": string, "tone": string, "characters": [string], "setting": string, "key_elements": [string]`
	case "poem":
		fields = `"style": string, "tone": string, "theme": string, "imagery": [string]`
	case "email":
		fields = `"recipient": string, "purpose": string, "tone": string, "key_points": [string]`
	default:
		fields = `"content_type": string, "tone": string, "key_points": [string]`
	}

	return fmt.Sprintf(`Analyze the following request and extract metadata as JSON with these fields:
{%s}

Use "unspecified" for anything the request does not state.

Request: %q`, fields, prompt)
}

// parseJSONObject はモデル出力からJSONオブジェクトを寛容に抽出する。
// コードフェンスや前置きの説明文が混ざっていても、最初の '{' から
// 最後の '}' までを取り出してパースする。
func parseJSONObject(raw string) (map[string]any, error) {
	text := strings.TrimSpace(raw)

	// コードフェンスを剥がす
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	text = text[start : end+1]

	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, err
	}

	return fields, nil
}
