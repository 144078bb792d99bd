package routing

import (
	"context"
	"strconv"
	"strings"
)

// PhraseMatcher は高確度フレーズ照合のインターフェース
type PhraseMatcher interface {
	Match(prompt string) (expertID string, phrase string, confidence float64, matched bool) // エキスパートID, 一致フレーズ, 確信度, 一致したか
}

// Scorer はキーワードスコアリングのインターフェース
type Scorer interface {
	Score(prompt string) Decision
	Scores(prompt string) map[string]float64
	Fallback(reason string) Decision
}

// Classifier はLLMベースのエキスパート分類器のインターフェース
type Classifier interface {
	Classify(ctx context.Context, prompt string) (Decision, error)
}

// Selector はプロンプトに対するエキスパート選択を統括するエンティティ
type Selector struct {
	phrases    PhraseMatcher
	scorer     Scorer
	classifier Classifier
	threshold  float64
}

// NewSelector は新しいSelectorを作成。
// phrasesとclassifierはnil可（その段階をスキップする）。
// thresholdはキーワードスコアがこの値未満のときにLLM分類器へ委譲する閾値。
func NewSelector(phrases PhraseMatcher, scorer Scorer, classifier Classifier, threshold float64) *Selector {
	return &Selector{
		phrases:    phrases,
		scorer:     scorer,
		classifier: classifier,
		threshold:  threshold,
	}
}

// Route はプロンプトに対するエキスパートを決定（4段階優先順位）
func (s *Selector) Route(ctx context.Context, prompt string) Decision {
	// 空プロンプトは即フォールバック（確信度0）
	trimmed := strings.TrimSpace(prompt)
	if trimmed == "" {
		d := s.scorer.Fallback("empty prompt")
		d.Confidence = 0
		return d
	}

	// 優先度1: 高確度フレーズ一致
	if s.phrases != nil {
		if expertID, phrase, confidence, matched := s.phrases.Match(trimmed); matched {
			return Decision{
				ExpertID:   expertID,
				Confidence: confidence,
				Method:     MethodPhrase,
				Reason:     "high-confidence phrase match: " + strconv.Quote(phrase),
				Scores:     s.scorer.Scores(trimmed),
			}
		}
	}

	// 優先度2: キーワードスコアリング
	keyword := s.scorer.Score(trimmed)
	if keyword.Confidence >= s.threshold || s.classifier == nil {
		return keyword
	}

	// 優先度3: 分類器（LLM）。失敗時はキーワード決定を採用
	decision, err := s.classifier.Classify(ctx, trimmed)
	if err != nil {
		return keyword
	}
	decision.Scores = keyword.Scores

	return decision
}
