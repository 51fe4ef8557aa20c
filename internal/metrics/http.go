package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SessionInfo /debug/session 返回的会话状态
type SessionInfo struct {
	Status        string  `json:"status"`
	PlayerID      string  `json:"playerId,omitempty"`
	LatencyMs     float64 `json:"latencyMs"`
	Reconnects    int     `json:"reconnects"`
	PendingInputs int     `json:"pendingInputs"`
	Players       int     `json:"players"`
	Food          int     `json:"food"`
	Quality       string  `json:"quality"`
	FPS           int     `json:"fps"`
}

// SessionFunc 返回当前会话快照，调用方负责并发安全
type SessionFunc func() SessionInfo

// Handler 调试路由：/metrics 与 /debug/session
func Handler(m *Metrics, session SessionFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(m.Gatherer(), promhttp.HandlerOpts{}))
	r.Get("/debug/session", func(w http.ResponseWriter, r *http.Request) {
		if session == nil {
			http.Error(w, "no session", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(session())
	})
	return r
}
