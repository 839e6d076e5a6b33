package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// healthCheckTimeout は依存先1つあたりの疎通確認のタイムアウト。
const healthCheckTimeout = 3 * time.Second

// HealthCheck は名前付きの疎通確認。
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	checks []HealthCheck
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Healthz は依存先（データベース等）への疎通を確認する。
// 全て成功した場合は200、1つでも失敗した場合は503を返す。
// GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	statusCode := http.StatusOK

	for _, hc := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := hc.Check(ctx)
		cancel()

		if err != nil {
			slog.Error("health check failed",
				slog.String("dependency", hc.Name),
				slog.String("error", err.Error()),
			)
			body[hc.Name] = "disconnected"
			body["status"] = "error"
			statusCode = http.StatusServiceUnavailable
			continue
		}
		body[hc.Name] = "connected"
	}

	writeJSON(w, statusCode, body)
}

// Welcome はAPIルートのウェルカムメッセージを返す。
// GET /api
func (h *HealthHandler) Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Welcome to the Blog API."})
}

// NotFound は未定義のAPIルートに統一エラーフォーマットの404を返す。
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeAPIErrorResponse(w, http.StatusNotFound, model.NewRouteNotFoundError())
}
