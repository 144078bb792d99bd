package expert

import (
	"fmt"
	"strings"

	"github.com/Nyukimin/textmoe/internal/domain/generation"
	"github.com/Nyukimin/textmoe/internal/domain/llm"
)

// instructionSeparator は指示文とユーザープロンプトの区切り
const instructionSeparator = "\n\n"

// 重みの許容範囲
const (
	minKeywordWeight = 1
	maxKeywordWeight = 10
)

// GenerationConfig はエキスパート固有の生成パラメータ
type GenerationConfig struct {
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// Definition はエキスパート定義を表す値オブジェクト。
// 起動時に構築され、以後変更されない。エキスパート間の差異はすべてデータであり、
// コードパスは共通（テーブル駆動）。
type Definition struct {
	ID                string
	Description       string
	Capabilities      []string
	Keywords          map[string]int // 小文字キーワード → 重み（1-10）
	Phrases           []string       // 高確度フレーズ（事前フィルタ用）
	SystemInstruction string
	Generation        GenerationConfig
	Available         bool
}

// Validate は定義の整合性を検証。不正時はErrConfigurationをラップして返す
func (d Definition) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("expert id is empty: %w", generation.ErrConfiguration)
	}

	if len(d.Keywords) == 0 {
		return fmt.Errorf("expert %q has no keywords: %w", d.ID, generation.ErrConfiguration)
	}

	for keyword, weight := range d.Keywords {
		if keyword == "" {
			return fmt.Errorf("expert %q has an empty keyword: %w", d.ID, generation.ErrConfiguration)
		}
		if keyword != strings.ToLower(keyword) {
			return fmt.Errorf("expert %q keyword %q must be lowercase: %w", d.ID, keyword, generation.ErrConfiguration)
		}
		if weight < minKeywordWeight || weight > maxKeywordWeight {
			return fmt.Errorf("expert %q keyword %q has weight %d (must be %d-%d): %w",
				d.ID, keyword, weight, minKeywordWeight, maxKeywordWeight, generation.ErrConfiguration)
		}
	}

	// 正規化の分母が0になる定義は受け付けない
	if d.TotalWeight() <= 0 {
		return fmt.Errorf("expert %q has zero total keyword weight: %w", d.ID, generation.ErrConfiguration)
	}

	if d.SystemInstruction == "" {
		return fmt.Errorf("expert %q has no system instruction: %w", d.ID, generation.ErrConfiguration)
	}

	return nil
}

// TotalWeight はキーワードテーブルの重み合計を返す（プロンプト非依存の固定正規化値）
func (d Definition) TotalWeight() int {
	total := 0
	for _, weight := range d.Keywords {
		total += weight
	}
	return total
}

// BuildRequest はユーザープロンプトからLLM生成リクエストを構築。
// テンプレートは固定：指示文、区切り、生プロンプトの順。
func (d Definition) BuildRequest(prompt string) llm.GenerateRequest {
	return llm.GenerateRequest{
		SystemPrompt: d.SystemInstruction,
		Messages: []llm.Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   d.Generation.MaxTokens,
		Temperature: d.Generation.Temperature,
		TopP:        d.Generation.TopP,
	}
}

// ComposedPrompt は指示文とプロンプトを連結した完全な入力テキストを返す。
// システムプロンプトを区別しないバックエンド向け。
func (d Definition) ComposedPrompt(prompt string) string {
	return d.SystemInstruction + instructionSeparator + prompt
}

// ParseResponse はモデル出力から入力エコーの痕跡を除去する。冪等。
func (d Definition) ParseResponse(prompt, raw string) string {
	text := strings.TrimSpace(raw)

	// モデルが指示文をエコーした場合は取り除く
	if instruction := strings.TrimSpace(d.SystemInstruction); instruction != "" && strings.HasPrefix(text, instruction) {
		text = strings.TrimSpace(strings.TrimPrefix(text, instruction))
	}

	// プロンプト自体のエコーは、後続の生成テキストがあるときのみ取り除く
	// （純粋なエコーはそのまま返す）
	if p := strings.TrimSpace(prompt); p != "" && strings.HasPrefix(text, p) {
		if rest := strings.TrimSpace(strings.TrimPrefix(text, p)); rest != "" {
			text = rest
		} else {
			text = p
		}
	}

	return text
}
