package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// HealthChecker はDB疎通確認のインターフェース。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// healthPingTimeout はヘルスチェック時のDB疎通確認のタイムアウト。
const healthPingTimeout = 2 * time.Second

type healthResponse struct {
	OK bool   `json:"ok"`
	DB string `json:"db"`
}

// NewHealthHandler はDB疎通を確認するヘルスチェックハンドラーを返す。
// DBに到達できない場合は503を返す。
// GET /api/health
func NewHealthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
		defer cancel()

		if err := checker.PingContext(ctx); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{OK: false, DB: "error"})
			return
		}
		writeJSON(w, http.StatusOK, healthResponse{OK: true, DB: "ok"})
	}
}
