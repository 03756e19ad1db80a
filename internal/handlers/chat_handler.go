package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/denial-knowledge/csrbot/internal/httputil"
	"github.com/denial-knowledge/csrbot/internal/logging"
	"github.com/denial-knowledge/csrbot/internal/models"
	"github.com/denial-knowledge/csrbot/internal/repository"
	"github.com/denial-knowledge/csrbot/internal/service"
)

// ChatHandler serves the per-user chat history: daily sessions and the
// messages inside them. Every endpoint requires a valid session token and
// only ever touches the authenticated user's own sessions.
type ChatHandler struct {
	auth *service.AuthService
	repo repository.Repository
	log  *logging.Logger
}

func NewChatHandler(auth *service.AuthService, repo repository.Repository, log *logging.Logger) *ChatHandler {
	if log == nil {
		log = logging.Default()
	}
	return &ChatHandler{auth: auth, repo: repo, log: log}
}

func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r.Context(), h.auth, r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized access")
		return
	}

	sessions, err := h.repo.ListChatSessionsByUser(r.Context(), user.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list chat sessions", logging.UserID(user.ID), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to list sessions: "+err.Error())
		return
	}

	if sessions == nil {
		sessions = []*models.ChatSession{}
	}
	httputil.WriteData(w, http.StatusOK, len(sessions), sessions)
}

// TodaySession returns the user's session for the current date, creating it
// on first use.
func (h *ChatHandler) TodaySession(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r.Context(), h.auth, r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized access")
		return
	}

	today := time.Now().Truncate(24 * time.Hour)
	session, err := h.repo.ChatSessionByUserAndDate(r.Context(), user.ID, today)
	if errors.Is(err, repository.ErrSessionNotFound) {
		session = &models.ChatSession{
			UserID:      user.ID,
			SessionDate: today,
			Title:       "Chat - " + today.Format("2006-01-02"),
		}
		err = h.repo.CreateChatSession(r.Context(), session)
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to get or create today's session", logging.UserID(user.ID), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to get/create session: "+err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true, "data": session})
}

func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r.Context(), h.auth, r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized access")
		return
	}

	session, status, errMsg := h.ownedSession(r, user)
	if errMsg != "" {
		httputil.WriteError(w, status, errMsg)
		return
	}

	msgs, err := h.repo.ListChatMessagesBySession(r.Context(), session.ID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to list chat messages", logging.SessionID(session.ID), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to fetch messages: "+err.Error())
		return
	}

	if msgs == nil {
		msgs = []*models.ChatMessage{}
	}
	httputil.WriteData(w, http.StatusOK, len(msgs), msgs)
}

func (h *ChatHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromRequest(r.Context(), h.auth, r)
	if !ok {
		httputil.WriteError(w, http.StatusUnauthorized, "Unauthorized access")
		return
	}

	session, status, errMsg := h.ownedSession(r, user)
	if errMsg != "" {
		httputil.WriteError(w, status, errMsg)
		return
	}

	var req models.AppendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	role := strings.TrimSpace(req.Role)
	if role == "" || strings.TrimSpace(req.Content) == "" {
		httputil.WriteError(w, http.StatusBadRequest, "role and content are required")
		return
	}

	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = "text"
	}

	var metadata *string
	switch meta := req.Metadata.(type) {
	case nil:
	case string:
		metadata = &meta
	default:
		raw, err := json.Marshal(meta)
		if err != nil {
			httputil.WriteError(w, http.StatusBadRequest, "Invalid metadata")
			return
		}
		s := string(raw)
		metadata = &s
	}

	msg := &models.ChatMessage{
		SessionID:   session.ID,
		Role:        role,
		Content:     req.Content,
		ContentType: contentType,
		Metadata:    metadata,
	}

	if err := h.repo.CreateChatMessage(r.Context(), msg); err != nil {
		h.log.ErrorContext(r.Context(), "failed to append chat message", logging.SessionID(session.ID), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Failed to append message: "+err.Error())
		return
	}

	if err := h.repo.TouchChatSession(r.Context(), session.ID); err != nil {
		h.log.WarnContext(r.Context(), "failed to touch chat session", logging.SessionID(session.ID), logging.Error(err))
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"id": msg.ID, "createdAt": msg.CreatedAt},
	})
}

// ownedSession loads the session addressed by the path and checks it belongs
// to the user. The error message is empty on success.
func (h *ChatHandler) ownedSession(r *http.Request, user *models.User) (*models.ChatSession, int, string) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return nil, http.StatusBadRequest, "Invalid session id"
	}

	session, err := h.repo.ChatSessionByID(r.Context(), id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return nil, http.StatusNotFound, "Session not found"
	}
	if err != nil {
		return nil, http.StatusInternalServerError, "Failed to load session: " + err.Error()
	}
	if session.UserID != user.ID {
		return nil, http.StatusForbidden, "Forbidden"
	}
	return session, http.StatusOK, ""
}
