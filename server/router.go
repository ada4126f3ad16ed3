package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter 组装全部 HTTP 路由
// /ws              WebSocket 接入
// /healthz         存活探针
// /metrics         Prometheus 指标
// /protocol/schema 入站消息的 JSON schema
// /admin/*         管理接口（X-Admin-Key）
// /                静态资源（staticDir 为空时不挂载）
func NewRouter(hub *Hub, admin *AdminAPI, staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", hub.HandleWS)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", hub.Metrics().Handler())
	r.Get("/protocol/schema", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(hub.validator.Schemas())
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(admin.RequireKey)
		r.Get("/state", admin.HandleState)
		r.Get("/config", admin.HandleGetConfig)
		r.Post("/config", admin.HandleSetConfig)
		r.Get("/rounds", admin.HandleRounds)
		r.Get("/wins", admin.HandleWins)
	})

	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}
	return r
}
