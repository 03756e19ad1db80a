package models

import "time"

// ChatSession groups messages into one conversation per user per calendar day.
// SessionDate carries only the date part; (UserID, SessionDate) is unique.
type ChatSession struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	SessionDate time.Time `json:"sessionDate"`
	Title       string    `json:"title"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ChatMessage is a single message inside a ChatSession.
type ChatMessage struct {
	ID          int64     `json:"id"`
	SessionID   int64     `json:"-"`
	Role        string    `json:"role"`        // user | bot
	Content     string    `json:"content"`
	ContentType string    `json:"contentType"` // text | structured_json
	Metadata    *string   `json:"metadata"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Conversation is one logged smart-query round trip: the raw user input and
// the full ML response as JSON, tagged with the response type.
type Conversation struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"-"`
	UserInput  string    `json:"userInput"`
	AiOutput   string    `json:"aiOutput"`
	OutputType string    `json:"outputType"`
	CreatedAt  time.Time `json:"createdAt"`
}
