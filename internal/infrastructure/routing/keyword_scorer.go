package routing

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Nyukimin/textmoe/internal/domain/expert"
	"github.com/Nyukimin/textmoe/internal/domain/generation"
	"github.com/Nyukimin/textmoe/internal/domain/routing"
)

// ScorerConfig はキーワードスコアラーの設定
type ScorerConfig struct {
	DefaultExpertID    string  // キーワード不一致時のフォールバック先
	FallbackConfidence float64 // フォールバック時に報告する確信度
}

// KeywordScorer はキーワード重みテーブルによるスコアリング実装。
// スコア = 一致キーワードの重み合計 / テーブルの重み合計（プロンプト非依存の固定正規化）。
type KeywordScorer struct {
	registry *expert.Registry
	config   ScorerConfig
}

// NewKeywordScorer は新しいKeywordScorerを作成。
// フォールバック先が未登録の場合はErrConfigurationをラップして返す。
func NewKeywordScorer(registry *expert.Registry, config ScorerConfig) (*KeywordScorer, error) {
	if config.DefaultExpertID == "" {
		// 未指定時は優先順位先頭をフォールバック先とする
		config.DefaultExpertID = registry.IDs()[0]
	}

	if _, ok := registry.Get(config.DefaultExpertID); !ok {
		return nil, fmt.Errorf("fallback expert %q is not registered: %w",
			config.DefaultExpertID, generation.ErrConfiguration)
	}

	if config.FallbackConfidence < 0 || config.FallbackConfidence > 1 {
		return nil, fmt.Errorf("fallback confidence %f out of range [0,1]: %w",
			config.FallbackConfidence, generation.ErrConfiguration)
	}

	return &KeywordScorer{
		registry: registry,
		config:   config,
	}, nil
}

// Score はプロンプトをスコアリングしてルーティング決定を返す。
// 最大スコアが0のときはフォールバック決定を返す。
func (s *KeywordScorer) Score(prompt string) routing.Decision {
	scores := s.Scores(prompt)

	best := ""
	bestScore := 0.0

	// タイブレークは登録順（優先順位順）で先勝ち
	for _, id := range s.registry.IDs() {
		if scores[id] > bestScore {
			best = id
			bestScore = scores[id]
		}
	}

	if best == "" {
		return s.Fallback("no keyword matched any expert table").WithScores(scores)
	}

	matched := s.matchedKeywords(prompt, best)
	reason := fmt.Sprintf("keyword match for %s: %s", best, strings.Join(matched, ", "))

	return routing.Decision{
		ExpertID:   best,
		Confidence: bestScore,
		Method:     routing.MethodKeyword,
		Reason:     reason,
		Scores:     scores,
	}
}

// Scores は全エキスパートの正規化スコアを計算（診断用にも使用）
func (s *KeywordScorer) Scores(prompt string) map[string]float64 {
	lowered := strings.ToLower(prompt)
	scores := make(map[string]float64, s.registry.Len())

	for _, def := range s.registry.All() {
		matchedWeight := 0
		for keyword, weight := range def.Keywords {
			// 各キーワードは出現回数によらず1回だけ加算
			if strings.Contains(lowered, keyword) {
				matchedWeight += weight
			}
		}

		total := def.TotalWeight()
		if total <= 0 {
			// Registryの検証で除外されるため通常は到達しない
			scores[def.ID] = 0
			continue
		}

		scores[def.ID] = float64(matchedWeight) / float64(total)
	}

	return scores
}

// Fallback はフォールバック決定を返す
func (s *KeywordScorer) Fallback(reason string) routing.Decision {
	return routing.Decision{
		ExpertID:   s.config.DefaultExpertID,
		Confidence: s.config.FallbackConfidence,
		Method:     routing.MethodFallback,
		Reason:     reason,
	}
}

// matchedKeywords は一致したキーワードを重み降順で返す（理由文用）
func (s *KeywordScorer) matchedKeywords(prompt, expertID string) []string {
	def, ok := s.registry.Get(expertID)
	if !ok {
		return nil
	}

	lowered := strings.ToLower(prompt)

	matched := make([]string, 0, 4)
	for keyword := range def.Keywords {
		if strings.Contains(lowered, keyword) {
			matched = append(matched, keyword)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if def.Keywords[matched[i]] != def.Keywords[matched[j]] {
			return def.Keywords[matched[i]] > def.Keywords[matched[j]]
		}
		return matched[i] < matched[j]
	})

	// 理由文は上位5件まで
	if len(matched) > 5 {
		matched = matched[:5]
	}

	return matched
}
