package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/denial-knowledge/csrbot/internal/models"
)

// InMemoryRepository is a map-backed Repository for development and tests.
// IDs are assigned from a per-table counter, mirroring the serial columns of
// the Postgres schema.
type InMemoryRepository struct {
	mu sync.RWMutex

	users       map[int64]*models.User
	usersByName map[string]*models.User

	sessions map[int64]*models.ChatSession
	messages map[int64]*models.ChatMessage
	convos   map[int64]*models.Conversation

	nextUserID    int64
	nextSessionID int64
	nextMessageID int64
	nextConvoID   int64
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		users:       make(map[int64]*models.User),
		usersByName: make(map[string]*models.User),
		sessions:    make(map[int64]*models.ChatSession),
		messages:    make(map[int64]*models.ChatMessage),
		convos:      make(map[int64]*models.Conversation),
	}
}

func (r *InMemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.usersByName[user.Username]; exists {
		return ErrUserExists
	}
	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrUserExists
		}
	}

	r.nextUserID++
	user.ID = r.nextUserID
	r.users[user.ID] = user
	r.usersByName[user.Username] = user
	return nil
}

func (r *InMemoryRepository) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.usersByName[username]
	if !exists {
		return nil, ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *InMemoryRepository) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *InMemoryRepository) UserByUsernameAndActive(ctx context.Context, username string, active bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.usersByName[username]
	if !exists || user.Active != active {
		return nil, ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *InMemoryRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.usersByName[username]
	return exists, nil
}

func (r *InMemoryRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryRepository) CountUsers(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.users)), nil
}

func (r *InMemoryRepository) SetUserActive(ctx context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return ErrUserNotFound
	}
	user.Active = active
	return nil
}

func (r *InMemoryRepository) CreateChatSession(ctx context.Context, session *models.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextSessionID++
	session.ID = r.nextSessionID
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *InMemoryRepository) ChatSessionByID(ctx context.Context, id int64) (*models.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (r *InMemoryRepository) ChatSessionByUserAndDate(ctx context.Context, userID int64, date time.Time) (*models.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sessions {
		if s.UserID == userID && sameDate(s.SessionDate, date) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, ErrSessionNotFound
}

func (r *InMemoryRepository) ListChatSessionsByUser(ctx context.Context, userID int64) ([]*models.ChatSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var sessions []*models.ChatSession
	for _, s := range r.sessions {
		if s.UserID == userID {
			cp := *s
			sessions = append(sessions, &cp)
		}
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].SessionDate.After(sessions[j].SessionDate)
	})
	return sessions, nil
}

func (r *InMemoryRepository) TouchChatSession(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[id]
	if !exists {
		return ErrSessionNotFound
	}
	session.UpdatedAt = time.Now()
	return nil
}

func (r *InMemoryRepository) CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextMessageID++
	msg.ID = r.nextMessageID
	msg.CreatedAt = time.Now()
	if msg.ContentType == "" {
		msg.ContentType = "text"
	}
	cp := *msg
	r.messages[msg.ID] = &cp
	return nil
}

func (r *InMemoryRepository) ListChatMessagesBySession(ctx context.Context, sessionID int64) ([]*models.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var msgs []*models.ChatMessage
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			cp := *m
			msgs = append(msgs, &cp)
		}
	}
	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID < msgs[j].ID
		}
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

func (r *InMemoryRepository) CreateConversation(ctx context.Context, convo *models.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextConvoID++
	convo.ID = r.nextConvoID
	convo.CreatedAt = time.Now()
	cp := *convo
	r.convos[convo.ID] = &cp
	return nil
}

func (r *InMemoryRepository) ListConversationsByUser(ctx context.Context, userID int64) ([]*models.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filterConversations(func(c *models.Conversation) bool {
		return c.UserID == userID
	}), nil
}

func (r *InMemoryRepository) ListConversationsByUserAndType(ctx context.Context, userID int64, outputType string) ([]*models.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filterConversations(func(c *models.Conversation) bool {
		return c.UserID == userID && c.OutputType == outputType
	}), nil
}

func (r *InMemoryRepository) ListConversationsByUserAndDateRange(ctx context.Context, userID int64, start, end time.Time) ([]*models.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filterConversations(func(c *models.Conversation) bool {
		return c.UserID == userID && !c.CreatedAt.Before(start) && !c.CreatedAt.After(end)
	}), nil
}

func (r *InMemoryRepository) filterConversations(keep func(*models.Conversation) bool) []*models.Conversation {
	var convos []*models.Conversation
	for _, c := range r.convos {
		if keep(c) {
			cp := *c
			convos = append(convos, &cp)
		}
	}
	sort.Slice(convos, func(i, j int) bool {
		if convos[i].CreatedAt.Equal(convos[j].CreatedAt) {
			return convos[i].ID < convos[j].ID
		}
		return convos[i].CreatedAt.Before(convos[j].CreatedAt)
	})
	return convos
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
