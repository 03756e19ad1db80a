package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/denial-knowledge/csrbot/internal/config"
	"github.com/denial-knowledge/csrbot/internal/handlers"
	"github.com/denial-knowledge/csrbot/internal/middleware"
)

// NewRouter assembles the HTTP surface: auth endpoints, per-user chat
// history, the ML query proxy, and operational endpoints. The whole mux is
// wrapped in request-ID and CORS middleware.
func NewRouter(cfg *config.Config, auth *handlers.AuthHandler, chat *handlers.ChatHandler, query *handlers.QueryHandler) http.Handler {
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/register", auth.Register)
	mux.HandleFunc("POST /api/auth/login", auth.Login)
	mux.HandleFunc("POST /api/auth/validate", auth.ValidateToken)
	mux.HandleFunc("GET /api/auth/user", auth.CurrentUser)
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)
	mux.HandleFunc("GET /api/auth/health", auth.HealthCheck)

	// Chat history
	mux.HandleFunc("GET /api/chat/sessions", chat.ListSessions)
	mux.HandleFunc("GET /api/chat/sessions/today", chat.TodaySession)
	mux.HandleFunc("GET /api/chat/sessions/{id}/messages", chat.ListMessages)
	mux.HandleFunc("POST /api/chat/sessions/{id}/messages", chat.AppendMessage)

	// ML query proxy and conversation history
	mux.HandleFunc("POST /api/smart/query", query.ProcessQuery)
	mux.HandleFunc("GET /api/smart/history", query.History)
	mux.HandleFunc("GET /api/smart/history/type/{outputType}", query.HistoryByType)
	mux.HandleFunc("GET /api/smart/history/date-range", query.HistoryByDateRange)
	mux.HandleFunc("GET /api/smart/health", query.MLHealth)
	mux.HandleFunc("GET /api/smart/train-status", query.TrainStatus)
	mux.HandleFunc("GET /api/smart/available-data", query.AvailableData)

	// Operational
	mux.HandleFunc("GET /healthz", auth.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	cors := middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
	})

	return middleware.RequestID(cors(mux))
}
