package generation

import "errors"

// エラー分類。errors.Is で判定できるよう番兵エラーとして定義する。
var (
	// ErrValidation は呼び出し側の入力不正（空プロンプト等）
	ErrValidation = errors.New("validation error")

	// ErrUnknownExpert は未登録のエキスパートIDが指定された
	ErrUnknownExpert = errors.New("unknown expert")

	// ErrExpertUnavailable はエキスパートが登録済みだが無効化されている
	ErrExpertUnavailable = errors.New("expert unavailable")

	// ErrUpstream は生成モデルサービスの呼び出し失敗
	ErrUpstream = errors.New("upstream model error")

	// ErrConfiguration はエキスパート定義・設定の不正（起動時に致命的）
	ErrConfiguration = errors.New("configuration error")
)
