package routing

// Method はエキスパート選択の方式を表す型
type Method string

// 選択方式の定数定義
const (
	MethodManual   Method = "manual"   // 呼び出し側による明示指定
	MethodPhrase   Method = "phrase"   // 高確度フレーズ一致
	MethodKeyword  Method = "keyword"  // キーワードスコアリング
	MethodLLM      Method = "llm"      // LLM分類器
	MethodFallback Method = "fallback" // キーワード不一致時のフォールバック
)

// String はMethodの文字列表現を返す
func (m Method) String() string {
	return string(m)
}

// Decision はルーティング決定の結果を表す
type Decision struct {
	ExpertID   string             // 選択されたエキスパートID
	Confidence float64            // 確信度（0.0 - 1.0）
	Method     Method             // 選択方式
	Reason     string             // 決定理由
	Scores     map[string]float64 // 診断用：エキスパートごとの正規化スコア
}

// NewDecision は新しいDecisionを作成
func NewDecision(expertID string, confidence float64, method Method, reason string) Decision {
	return Decision{
		ExpertID:   expertID,
		Confidence: confidence,
		Method:     method,
		Reason:     reason,
	}
}

// WithScores はスコアマップを設定した新しいDecisionを返す
func (d Decision) WithScores(scores map[string]float64) Decision {
	d.Scores = scores
	return d
}
