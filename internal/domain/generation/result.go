package generation

import "github.com/Nyukimin/textmoe/internal/domain/routing"

// EnhancedQuery は補助的なモデル呼び出しで抽出された構造化メタデータ。
// キー集合はエキスパート種別ごとに異なる（story: genre/tone等、email: recipient/purpose等）。
type EnhancedQuery map[string]any

// Result は1回の生成リクエストの結果
type Result struct {
	RequestID     RequestID
	Prompt        string // トリム済みのユーザー入力
	GeneratedText string
	ExpertUsed    string
	Confidence    float64
	Method        routing.Method
	Reason        string
	Scores        map[string]float64
	EnhancedQuery EnhancedQuery // 補助抽出が無効・失敗のときはnil
}
