package routing

import (
	"context"
	"fmt"
	"strings"

	"github.com/Nyukimin/textmoe/internal/domain/expert"
	"github.com/Nyukimin/textmoe/internal/domain/llm"
	"github.com/Nyukimin/textmoe/internal/domain/routing"
)

// 分類結果の確信度
const (
	classifierConfidence = 0.9 // 明確なマッチ
)

// LLMClassifier はLLMベースのエキスパート分類器。
// キーワードで判定できない曖昧なプロンプトに対してのみ呼ばれる。
type LLMClassifier struct {
	llmProvider llm.LLMProvider
	registry    *expert.Registry
}

// NewLLMClassifier は新しいLLMClassifierを作成
func NewLLMClassifier(llmProvider llm.LLMProvider, registry *expert.Registry) *LLMClassifier {
	return &LLMClassifier{
		llmProvider: llmProvider,
		registry:    registry,
	}
}

// Classify はプロンプトを分類
func (c *LLMClassifier) Classify(ctx context.Context, prompt string) (routing.Decision, error) {
	req := llm.GenerateRequest{
		SystemPrompt: c.buildSystemPrompt(),
		Messages: []llm.Message{
			{Role: "user", Content: fmt.Sprintf("User request: %s", prompt)},
		},
		MaxTokens:   50,
		Temperature: 0.3, // 低温度で安定した分類
	}

	resp, err := c.llmProvider.Generate(ctx, req)
	if err != nil {
		return routing.Decision{}, fmt.Errorf("LLM classification failed: %w", err)
	}

	expertID, ok := c.parseExpertID(resp.Content)
	if !ok {
		return routing.Decision{}, fmt.Errorf("LLM returned no valid expert id: %q", strings.TrimSpace(resp.Content))
	}

	reason := fmt.Sprintf("LLM classified as %s", expertID)

	return routing.NewDecision(expertID, classifierConfidence, routing.MethodLLM, reason), nil
}

// buildSystemPrompt は分類用のシステムプロンプトを構築
func (c *LLMClassifier) buildSystemPrompt() string {
	var b strings.Builder

	b.WriteString("You are an expert routing system. Analyze the user's request and determine which expert should handle it.\n\n")
	b.WriteString("Available experts:\n")

	for _, def := range c.registry.All() {
		fmt.Fprintf(&b, "- %s: %s\n", strings.ToUpper(def.ID), def.Description)
	}

	b.WriteString("\nRespond with ONLY the expert name in uppercase")

	ids := c.registry.IDs()
	upper := make([]string, len(ids))
	for i, id := range ids {
		upper[i] = strings.ToUpper(id)
	}
	fmt.Fprintf(&b, ": %s", strings.Join(upper, ", "))

	return b.String()
}

// parseExpertID はLLM応答からエキスパートIDを抽出。
// 長いIDから順にチェックし、部分一致の取り違えを防ぐ。
func (c *LLMClassifier) parseExpertID(response string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(response))

	ids := c.registry.IDs()

	ordered := make([]string, len(ids))
	copy(ordered, ids)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if len(ordered[j]) > len(ordered[i]) {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}

	for _, id := range ordered {
		if strings.Contains(upper, strings.ToUpper(id)) {
			return id, true
		}
	}

	return "", false
}
