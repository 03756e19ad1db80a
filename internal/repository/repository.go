package repository

import (
	"context"
	"errors"
	"time"

	"github.com/denial-knowledge/csrbot/internal/models"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrSessionNotFound = errors.New("chat session not found")
)

// Repository is the persistence boundary consumed by the services. Any
// storage engine can satisfy it; implementations in this package are an
// in-memory map store for development/tests and a pgx-backed Postgres store.
type Repository interface {
	// Users
	CreateUser(ctx context.Context, user *models.User) error
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByUsernameAndActive(ctx context.Context, username string, active bool) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CountUsers(ctx context.Context) (int64, error)
	SetUserActive(ctx context.Context, id int64, active bool) error

	// Chat sessions
	CreateChatSession(ctx context.Context, session *models.ChatSession) error
	ChatSessionByID(ctx context.Context, id int64) (*models.ChatSession, error)
	ChatSessionByUserAndDate(ctx context.Context, userID int64, date time.Time) (*models.ChatSession, error)
	ListChatSessionsByUser(ctx context.Context, userID int64) ([]*models.ChatSession, error)
	TouchChatSession(ctx context.Context, id int64) error

	// Chat messages
	CreateChatMessage(ctx context.Context, msg *models.ChatMessage) error
	ListChatMessagesBySession(ctx context.Context, sessionID int64) ([]*models.ChatMessage, error)

	// Conversations
	CreateConversation(ctx context.Context, convo *models.Conversation) error
	ListConversationsByUser(ctx context.Context, userID int64) ([]*models.Conversation, error)
	ListConversationsByUserAndType(ctx context.Context, userID int64, outputType string) ([]*models.Conversation, error)
	ListConversationsByUserAndDateRange(ctx context.Context, userID int64, start, end time.Time) ([]*models.Conversation, error)
}
