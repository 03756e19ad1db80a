package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/denial-knowledge/csrbot/internal/httputil"
	"github.com/denial-knowledge/csrbot/internal/logging"
	"github.com/denial-knowledge/csrbot/internal/metrics"
	"github.com/denial-knowledge/csrbot/internal/models"
	"github.com/denial-knowledge/csrbot/internal/repository"
	"github.com/denial-knowledge/csrbot/internal/service"
)

// QueryHandler fronts the ML query proxy and the conversation history it
// accumulates.
type QueryHandler struct {
	auth  *service.AuthService
	query *service.QueryService
	repo  repository.Repository
	log   *logging.Logger
}

func NewQueryHandler(auth *service.AuthService, query *service.QueryService, repo repository.Repository, log *logging.Logger) *QueryHandler {
	if log == nil {
		log = logging.Default()
	}
	return &QueryHandler{auth: auth, query: query, repo: repo, log: log}
}

func (h *QueryHandler) ProcessQuery(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r.Context(), h.auth, r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized access")
		return
	}

	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		httputil.WriteError(w, http.StatusBadRequest, "Query is required")
		return
	}

	resp := h.query.ProcessQuery(r.Context(), req.Query, req.Type)

	if success, _ := resp["success"].(bool); success {
		metrics.SmartQueriesTotal.WithLabelValues("success").Inc()
		h.query.SaveConversation(r.Context(), user, req.Query, resp)
	} else {
		metrics.SmartQueriesTotal.WithLabelValues("failure").Inc()
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r.Context(), h.auth, r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized access")
		return
	}

	convos, err := h.repo.ListConversationsByUser(r.Context(), user.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to fetch conversation history", logging.UserID(user.ID), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch history: "+err.Error())
		return
	}

	if convos == nil {
		convos = []*models.Conversation{}
	}
	httputil.WriteData(w, http.StatusOK, len(convos), convos)
}

func (h *QueryHandler) HistoryByType(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r.Context(), h.auth, r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized access")
		return
	}

	outputType := r.PathValue("outputType")
	convos, err := h.repo.ListConversationsByUserAndType(r.Context(), user.ID, outputType)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to fetch filtered history", logging.UserID(user.ID), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch filtered history: "+err.Error())
		return
	}

	if convos == nil {
		convos = []*models.Conversation{}
	}
	httputil.WriteData(w, http.StatusOK, len(convos), convos)
}

func (h *QueryHandler) HistoryByDateRange(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r.Context(), h.auth, r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized access")
		return
	}

	start, err := time.Parse("2006-01-02", r.URL.Query().Get("start"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid start date, expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse("2006-01-02", r.URL.Query().Get("end"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid end date, expected YYYY-MM-DD")
		return
	}
	// Make the range inclusive of the whole end day.
	end = end.Add(24*time.Hour - time.Nanosecond)

	convos, err := h.repo.ListConversationsByUserAndDateRange(r.Context(), user.ID, start, end)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to fetch date-filtered history", logging.UserID(user.ID), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch date-filtered history: "+err.Error())
		return
	}

	if convos == nil {
		convos = []*models.Conversation{}
	}
	httputil.WriteData(w, http.StatusOK, len(convos), convos)
}

func (h *QueryHandler) MLHealth(w http.ResponseWriter, r *http.Request) {
	healthy := h.query.Health(r.Context())
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "healthy": healthy})
}

func (h *QueryHandler) TrainStatus(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.query.TrainStatus(r.Context()))
}

func (h *QueryHandler) AvailableData(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.query.AvailableData(r.Context()))
}
