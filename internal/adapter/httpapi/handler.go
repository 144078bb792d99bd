package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Nyukimin/textmoe/internal/application/orchestrator"
	"github.com/Nyukimin/textmoe/internal/domain/expert"
	"github.com/Nyukimin/textmoe/internal/domain/generation"
)

// ServiceName はルートエンドポイントで返すサービス名
const ServiceName = "textmoe"

// Orchestrator はテキスト生成処理のインターフェース
type Orchestrator interface {
	Generate(ctx context.Context, req orchestrator.GenerateRequest) (generation.Result, error)
}

// RouterInfo は/router/infoで公開するルーティング設定
type RouterInfo struct {
	Type               string  `json:"type"`
	DefaultExpert      string  `json:"default_expert"`
	FallbackConfidence float64 `json:"fallback_confidence"`
	AmbiguityThreshold float64 `json:"ambiguity_threshold"`
	LLMClassifier      bool    `json:"llm_classifier"`
}

// Handler はREST APIハンドラー
type Handler struct {
	orchestrator   Orchestrator
	registry       *expert.Registry
	routerInfo     RouterInfo
	allowedOrigins []string
	validate       *validator.Validate
	logger         *zap.Logger
}

// NewHandler は新しいHandlerを作成
func NewHandler(
	orch Orchestrator,
	registry *expert.Registry,
	routerInfo RouterInfo,
	allowedOrigins []string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		orchestrator:   orch,
		registry:       registry,
		routerInfo:     routerInfo,
		allowedOrigins: allowedOrigins,
		validate:       validator.New(),
		logger:         logger,
	}
}

// generateRequest は生成リクエストのペイロード
type generateRequest struct {
	Prompt      string  `json:"prompt" validate:"required,max=10000"`
	Expert      string  `json:"expert"`
	MaxTokens   int     `json:"max_tokens" validate:"omitempty,gte=1,lte=8192"`
	Temperature float64 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
}

// generateResponse は生成レスポンスのペイロード
type generateResponse struct {
	RequestID     string                   `json:"request_id"`
	GeneratedText string                   `json:"generated_text"`
	ExpertUsed    string                   `json:"expert_used"`
	Confidence    float64                  `json:"confidence"`
	RoutingMethod string                   `json:"routing_method"`
	RoutingReason string                   `json:"routing_reason"`
	Prompt        string                   `json:"prompt"`
	AllScores     map[string]float64       `json:"all_scores"`
	EnhancedQuery generation.EnhancedQuery `json:"enhanced_query,omitempty"`
}

// expertSummary は/expertsで返すエキスパート情報
type expertSummary struct {
	ID           string   `json:"id"`
	Description  string   `json:"description"`
	Capabilities []string `json:"capabilities"`
	Available    bool     `json:"available"`
}

// errorResponse はエラーレスポンスのペイロード
type errorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP はHTTPリクエストを処理
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.applyCORS(w, r)

	// プリフライト
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	// ルーティング
	if r.Method == http.MethodGet {
		switch r.URL.Path {
		case "/":
			h.handleRoot(w, r)
			return
		case "/health":
			h.handleHealth(w, r)
			return
		case "/experts":
			h.handleExperts(w, r)
			return
		case "/router/info":
			h.handleRouterInfo(w, r)
			return
		}
	}

	if r.Method == http.MethodPost {
		if r.URL.Path == "/generate" {
			h.handleGenerate(w, r, "")
			return
		}
		if expertID, ok := strings.CutPrefix(r.URL.Path, "/generate/"); ok && expertID != "" && !strings.Contains(expertID, "/") {
			h.handleGenerate(w, r, expertID)
			return
		}
	}

	http.NotFound(w, r)
}

// handleRoot はサービス情報を返す
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"service": ServiceName,
		"message": "Mixture-of-Experts text generation API",
		"endpoints": []string{
			"GET /health",
			"GET /experts",
			"GET /router/info",
			"POST /generate",
			"POST /generate/{expert}",
		},
	})
}

// handleHealth はヘルスチェック
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	available := lo.CountBy(h.registry.All(), func(d expert.Definition) bool {
		return d.Available
	})

	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"experts_total":     h.registry.Len(),
		"experts_available": available,
	})
}

// handleExperts は登録エキスパートの一覧を返す
func (h *Handler) handleExperts(w http.ResponseWriter, r *http.Request) {
	summaries := lo.Map(h.registry.All(), func(d expert.Definition, _ int) expertSummary {
		return expertSummary{
			ID:           d.ID,
			Description:  d.Description,
			Capabilities: d.Capabilities,
			Available:    d.Available,
		}
	})

	h.writeJSON(w, http.StatusOK, map[string]any{
		"experts": summaries,
		"count":   len(summaries),
	})
}

// handleRouterInfo はルーティング設定を返す
func (h *Handler) handleRouterInfo(w http.ResponseWriter, r *http.Request) {
	keywords := make(map[string][]string, h.registry.Len())
	for _, d := range h.registry.All() {
		keywords[d.ID] = lo.Keys(d.Keywords)
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"router":   h.routerInfo,
		"experts":  h.registry.IDs(),
		"keywords": keywords,
	})
}

// handleGenerate はテキスト生成を処理。pathExpertが空なら自動ルーティング。
func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request, pathExpert string) {
	var payload generateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		h.writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	// パス指定はボディ指定より優先
	expertID := payload.Expert
	if pathExpert != "" {
		expertID = pathExpert
	}

	result, err := h.orchestrator.Generate(r.Context(), orchestrator.GenerateRequest{
		Prompt:      payload.Prompt,
		Expert:      expertID,
		MaxTokens:   payload.MaxTokens,
		Temperature: payload.Temperature,
	})
	if err != nil {
		h.logger.Warn("generation request failed",
			zap.String("expert", expertID),
			zap.Error(err),
		)
		h.writeError(w, statusFromError(err), err.Error())
		return
	}

	scores := result.Scores
	if scores == nil {
		scores = map[string]float64{}
	}

	h.writeJSON(w, http.StatusOK, generateResponse{
		RequestID:     result.RequestID.String(),
		GeneratedText: result.GeneratedText,
		ExpertUsed:    result.ExpertUsed,
		Confidence:    result.Confidence,
		RoutingMethod: result.Method.String(),
		RoutingReason: result.Reason,
		Prompt:        result.Prompt,
		AllScores:     scores,
		EnhancedQuery: result.EnhancedQuery,
	})
}

// applyCORS はCORSヘッダーを設定
func (h *Handler) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	allowed := lo.Contains(h.allowedOrigins, "*") || lo.Contains(h.allowedOrigins, origin)
	if !allowed {
		return
	}

	if lo.Contains(h.allowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// statusFromError はドメインエラーをHTTPステータスへ変換
func statusFromError(err error) int {
	switch {
	case errors.Is(err, generation.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, generation.ErrUnknownExpert):
		return http.StatusNotFound
	case errors.Is(err, generation.ErrExpertUnavailable):
		return http.StatusBadRequest
	case errors.Is(err, generation.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// validationMessage はvalidatorのエラーを簡潔な文言へ変換
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request"
	}

	fields := lo.Map(verrs, func(fe validator.FieldError, _ int) string {
		return strings.ToLower(fe.Field())
	})
	return "invalid request fields: " + strings.Join(fields, ", ")
}

// writeJSON はJSONレスポンスを書き込む
func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

// writeError はエラーレスポンスを書き込む
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{Error: message})
}
