package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/denial-knowledge/csrbot/internal/models"
)

// ============================================================================
// User Store Tests
// ============================================================================

func TestInMemoryUserCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	user := &models.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         models.RoleUser,
		Active:       true,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.ID == 0 {
		t.Error("Expected assigned ID")
	}

	t.Run("duplicate username rejected", func(t *testing.T) {
		err := repo.CreateUser(ctx, &models.User{Username: "alice", Email: "other@example.com"})
		if !errors.Is(err, ErrUserExists) {
			t.Errorf("Expected ErrUserExists, got %v", err)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		err := repo.CreateUser(ctx, &models.User{Username: "bob", Email: "alice@example.com"})
		if !errors.Is(err, ErrUserExists) {
			t.Errorf("Expected ErrUserExists, got %v", err)
		}
	})

	t.Run("lookup by username", func(t *testing.T) {
		got, err := repo.UserByUsername(ctx, "alice")
		if err != nil {
			t.Fatalf("UserByUsername failed: %v", err)
		}
		if got.Email != "alice@example.com" {
			t.Errorf("Unexpected email %s", got.Email)
		}
	})

	t.Run("lookup by email", func(t *testing.T) {
		got, err := repo.UserByEmail(ctx, "alice@example.com")
		if err != nil {
			t.Fatalf("UserByEmail failed: %v", err)
		}
		if got.Username != "alice" {
			t.Errorf("Unexpected username %s", got.Username)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		if _, err := repo.UserByUsername(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("Expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("existence checks", func(t *testing.T) {
		if exists, _ := repo.ExistsByUsername(ctx, "alice"); !exists {
			t.Error("alice should exist")
		}
		if exists, _ := repo.ExistsByEmail(ctx, "nobody@example.com"); exists {
			t.Error("Unknown email reported as existing")
		}
	})

	t.Run("count", func(t *testing.T) {
		count, _ := repo.CountUsers(ctx)
		if count != 1 {
			t.Errorf("Expected 1 user, got %d", count)
		}
	})

	t.Run("returned copies are isolated", func(t *testing.T) {
		got, _ := repo.UserByUsername(ctx, "alice")
		got.Email = "tampered@example.com"

		again, _ := repo.UserByUsername(ctx, "alice")
		if again.Email != "alice@example.com" {
			t.Error("Mutation of returned user leaked into the store")
		}
	})
}

func TestInMemorySetUserActive(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	user := &models.User{Username: "alice", Email: "alice@example.com", Active: true}
	repo.CreateUser(ctx, user)

	if err := repo.SetUserActive(ctx, user.ID, false); err != nil {
		t.Fatalf("SetUserActive failed: %v", err)
	}

	if _, err := repo.UserByUsernameAndActive(ctx, "alice", true); !errors.Is(err, ErrUserNotFound) {
		t.Error("Deactivated user still matches active lookup")
	}
	if _, err := repo.UserByUsernameAndActive(ctx, "alice", false); err != nil {
		t.Errorf("Inactive lookup failed: %v", err)
	}

	if err := repo.SetUserActive(ctx, 9999, true); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound for unknown id, got %v", err)
	}
}

// ============================================================================
// Chat Session Tests
// ============================================================================

func TestInMemoryChatSessions(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	today := time.Now().Truncate(24 * time.Hour)
	yesterday := today.Add(-24 * time.Hour)

	s1 := &models.ChatSession{UserID: 1, SessionDate: yesterday, Title: "old"}
	s2 := &models.ChatSession{UserID: 1, SessionDate: today, Title: "new"}
	s3 := &models.ChatSession{UserID: 2, SessionDate: today, Title: "other user"}
	for _, s := range []*models.ChatSession{s1, s2, s3} {
		if err := repo.CreateChatSession(ctx, s); err != nil {
			t.Fatalf("CreateChatSession failed: %v", err)
		}
	}

	t.Run("lookup by id", func(t *testing.T) {
		got, err := repo.ChatSessionByID(ctx, s1.ID)
		if err != nil {
			t.Fatalf("ChatSessionByID failed: %v", err)
		}
		if got.Title != "old" {
			t.Errorf("Unexpected title %s", got.Title)
		}
	})

	t.Run("lookup by user and date ignores time of day", func(t *testing.T) {
		later := today.Add(15 * time.Hour)
		got, err := repo.ChatSessionByUserAndDate(ctx, 1, later)
		if err != nil {
			t.Fatalf("ChatSessionByUserAndDate failed: %v", err)
		}
		if got.ID != s2.ID {
			t.Errorf("Expected session %d, got %d", s2.ID, got.ID)
		}
	})

	t.Run("missing session", func(t *testing.T) {
		if _, err := repo.ChatSessionByID(ctx, 9999); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
		if _, err := repo.ChatSessionByUserAndDate(ctx, 1, today.Add(48*time.Hour)); !errors.Is(err, ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})

	t.Run("list is per-user and newest first", func(t *testing.T) {
		sessions, err := repo.ListChatSessionsByUser(ctx, 1)
		if err != nil {
			t.Fatalf("ListChatSessionsByUser failed: %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("Expected 2 sessions, got %d", len(sessions))
		}
		if sessions[0].ID != s2.ID || sessions[1].ID != s1.ID {
			t.Error("Sessions not sorted newest first")
		}
	})

	t.Run("touch bumps updated_at", func(t *testing.T) {
		before, _ := repo.ChatSessionByID(ctx, s1.ID)
		time.Sleep(5 * time.Millisecond)

		if err := repo.TouchChatSession(ctx, s1.ID); err != nil {
			t.Fatalf("TouchChatSession failed: %v", err)
		}
		after, _ := repo.ChatSessionByID(ctx, s1.ID)
		if !after.UpdatedAt.After(before.UpdatedAt) {
			t.Error("UpdatedAt not bumped")
		}
	})
}

// ============================================================================
// Chat Message Tests
// ============================================================================

func TestInMemoryChatMessages(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	session := &models.ChatSession{UserID: 1, SessionDate: time.Now()}
	repo.CreateChatSession(ctx, session)

	m1 := &models.ChatMessage{SessionID: session.ID, Role: "user", Content: "hello"}
	m2 := &models.ChatMessage{SessionID: session.ID, Role: "assistant", Content: "hi"}
	m3 := &models.ChatMessage{SessionID: 999, Role: "user", Content: "elsewhere"}
	for _, m := range []*models.ChatMessage{m1, m2, m3} {
		if err := repo.CreateChatMessage(ctx, m); err != nil {
			t.Fatalf("CreateChatMessage failed: %v", err)
		}
	}

	if m1.ContentType != "text" {
		t.Errorf("Expected default content type text, got %s", m1.ContentType)
	}

	msgs, err := repo.ListChatMessagesBySession(ctx, session.ID)
	if err != nil {
		t.Fatalf("ListChatMessagesBySession failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID != m1.ID || msgs[1].ID != m2.ID {
		t.Error("Messages not in insertion order")
	}
}

// ============================================================================
// Conversation Tests
// ============================================================================

func TestInMemoryConversations(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	c1 := &models.Conversation{UserID: 1, UserInput: "q1", AiOutput: "a1", OutputType: "text"}
	c2 := &models.Conversation{UserID: 1, UserInput: "q2", AiOutput: "a2", OutputType: "chart"}
	c3 := &models.Conversation{UserID: 2, UserInput: "q3", AiOutput: "a3", OutputType: "text"}
	for _, c := range []*models.Conversation{c1, c2, c3} {
		if err := repo.CreateConversation(ctx, c); err != nil {
			t.Fatalf("CreateConversation failed: %v", err)
		}
	}

	t.Run("by user", func(t *testing.T) {
		convos, err := repo.ListConversationsByUser(ctx, 1)
		if err != nil {
			t.Fatalf("ListConversationsByUser failed: %v", err)
		}
		if len(convos) != 2 {
			t.Fatalf("Expected 2 conversations, got %d", len(convos))
		}
		if convos[0].ID != c1.ID || convos[1].ID != c2.ID {
			t.Error("Conversations not in chronological order")
		}
	})

	t.Run("by user and type", func(t *testing.T) {
		convos, err := repo.ListConversationsByUserAndType(ctx, 1, "chart")
		if err != nil {
			t.Fatalf("ListConversationsByUserAndType failed: %v", err)
		}
		if len(convos) != 1 || convos[0].ID != c2.ID {
			t.Errorf("Expected only the chart conversation, got %d entries", len(convos))
		}
	})

	t.Run("by user and date range", func(t *testing.T) {
		now := time.Now()
		convos, err := repo.ListConversationsByUserAndDateRange(ctx, 1, now.Add(-time.Hour), now.Add(time.Hour))
		if err != nil {
			t.Fatalf("ListConversationsByUserAndDateRange failed: %v", err)
		}
		if len(convos) != 2 {
			t.Errorf("Expected 2 conversations in range, got %d", len(convos))
		}

		empty, err := repo.ListConversationsByUserAndDateRange(ctx, 1, now.Add(-2*time.Hour), now.Add(-time.Hour))
		if err != nil {
			t.Fatalf("ListConversationsByUserAndDateRange failed: %v", err)
		}
		if len(empty) != 0 {
			t.Errorf("Expected empty range, got %d", len(empty))
		}
	})
}
