package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// OllamaCheck はOllamaサーバーの到達性を検査するCheckFuncを返す
func OllamaCheck(baseURL string, timeout time.Duration) CheckFunc {
	client := &http.Client{Timeout: timeout}
	return func() (bool, string) {
		resp, err := client.Get(baseURL)
		if err != nil {
			return false, fmt.Sprintf("unreachable: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false, fmt.Sprintf("status %d", resp.StatusCode)
		}
		return true, "ok"
	}
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// OllamaModelCheck は生成に使うモデルがOllamaにインストール済みか検査する。
// モデル名のタグ省略（llama3.1 と llama3.1:latest）は同一視する。
func OllamaModelCheck(baseURL string, timeout time.Duration, model string) CheckFunc {
	client := &http.Client{Timeout: timeout}
	tagsURL := strings.TrimSuffix(baseURL, "/") + "/api/tags"

	return func() (bool, string) {
		resp, err := client.Get(tagsURL)
		if err != nil {
			return false, fmt.Sprintf("unreachable: %v", err)
		}
		defer resp.Body.Close()

		var tags ollamaTagsResponse
		if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
			return false, fmt.Sprintf("decode error: %v", err)
		}

		want := normalizeModelName(model)
		for _, m := range tags.Models {
			if normalizeModelName(m.Name) == want {
				return true, fmt.Sprintf("model %s installed", model)
			}
		}

		return false, fmt.Sprintf("model %s not installed", model)
	}
}

// APIKeyCheck はAPIキーが設定済みか検査する。キーの有効性までは確認しない。
func APIKeyCheck(provider, apiKey string) CheckFunc {
	return func() (bool, string) {
		if strings.TrimSpace(apiKey) == "" {
			return false, fmt.Sprintf("%s API key is not configured", provider)
		}
		return true, "configured"
	}
}

// normalizeModelName はタグ省略時に:latestを補完
func normalizeModelName(name string) string {
	if !strings.Contains(name, ":") {
		return name + ":latest"
	}
	return name
}
