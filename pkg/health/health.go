package health

import (
	"encoding/json"
	"net/http"
)

// CheckFunc は単一の依存先を検査する関数。okと診断メッセージを返す。
type CheckFunc func() (bool, string)

// checkResult は1検査分の結果
type checkResult struct {
	OK     bool   `json:"ok"`
	Detail string `json:"detail"`
}

// Handler は登録された全検査を実行するHTTPハンドラーを返す。
// すべてokなら200、1つでも失敗があれば503。
func Handler(checks map[string]CheckFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results := make(map[string]checkResult, len(checks))
		healthy := true

		for name, check := range checks {
			ok, detail := check()
			results[name] = checkResult{OK: ok, Detail: detail}
			if !ok {
				healthy = false
			}
		}

		status := "ok"
		code := http.StatusOK
		if !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(map[string]any{
			"status": status,
			"checks": results,
		})
	}
}
