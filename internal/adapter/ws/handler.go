package ws

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Nyukimin/textmoe/internal/application/orchestrator"
	"github.com/Nyukimin/textmoe/internal/domain/generation"
)

// Orchestrator はテキスト生成処理のインターフェース
type Orchestrator interface {
	Generate(ctx context.Context, req orchestrator.GenerateRequest) (generation.Result, error)
}

// Handler はWebSocket経由の生成ハンドラー。
// 1接続上で複数の生成リクエストを逐次処理する。
type Handler struct {
	orchestrator Orchestrator
	upgrader     websocket.Upgrader
	logger       *zap.Logger
}

// NewHandler は新しいHandlerを作成
func NewHandler(orch Orchestrator, allowedOrigins []string, logger *zap.Logger) *Handler {
	return &Handler{
		orchestrator: orch,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				return lo.Contains(allowedOrigins, "*") || lo.Contains(allowedOrigins, origin)
			},
		},
		logger: logger,
	}
}

// generateFrame はクライアントから受信するリクエストフレーム
type generateFrame struct {
	Prompt      string  `json:"prompt"`
	Expert      string  `json:"expert"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// resultFrame は生成成功時の応答フレーム
type resultFrame struct {
	Type          string                   `json:"type"`
	RequestID     string                   `json:"request_id"`
	GeneratedText string                   `json:"generated_text"`
	ExpertUsed    string                   `json:"expert_used"`
	Confidence    float64                  `json:"confidence"`
	RoutingMethod string                   `json:"routing_method"`
	RoutingReason string                   `json:"routing_reason"`
	AllScores     map[string]float64       `json:"all_scores"`
	EnhancedQuery generation.EnhancedQuery `json:"enhanced_query,omitempty"`
}

// errorFrame は生成失敗時の応答フレーム
type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// ServeHTTP はWebSocket接続へアップグレードし、リクエストループを開始
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.serve(r.Context(), conn)
}

// serve は接続上のリクエストを処理
func (h *Handler) serve(ctx context.Context, conn *websocket.Conn) {
	for {
		var frame generateFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		result, err := h.orchestrator.Generate(ctx, orchestrator.GenerateRequest{
			Prompt:      frame.Prompt,
			Expert:      frame.Expert,
			MaxTokens:   frame.MaxTokens,
			Temperature: frame.Temperature,
		})
		if err != nil {
			if writeErr := conn.WriteJSON(errorFrame{Type: "error", Error: err.Error()}); writeErr != nil {
				h.logger.Warn("websocket write failed", zap.Error(writeErr))
				return
			}
			// 致命的でないエラーは接続を維持して次のリクエストを待つ
			if !errors.Is(err, generation.ErrValidation) && !errors.Is(err, generation.ErrUnknownExpert) {
				h.logger.Warn("generation over websocket failed", zap.Error(err))
			}
			continue
		}

		scores := result.Scores
		if scores == nil {
			scores = map[string]float64{}
		}

		if err := conn.WriteJSON(resultFrame{
			Type:          "result",
			RequestID:     result.RequestID.String(),
			GeneratedText: result.GeneratedText,
			ExpertUsed:    result.ExpertUsed,
			Confidence:    result.Confidence,
			RoutingMethod: result.Method.String(),
			RoutingReason: result.Reason,
			AllScores:     scores,
			EnhancedQuery: result.EnhancedQuery,
		}); err != nil {
			h.logger.Warn("websocket write failed", zap.Error(err))
			return
		}
	}
}
