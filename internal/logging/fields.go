package logging

import "log/slog"

// Common field names for consistent logging across the backend.
const (
	FieldUsername = "username"
	FieldUserID   = "user_id"
	FieldIP       = "ip"
	FieldError    = "error"
	FieldQuery    = "query"
	FieldSession  = "session_id"
)

// Username returns a slog attribute for the username.
func Username(name string) slog.Attr {
	return slog.String(FieldUsername, name)
}

// UserID returns a slog attribute for the user ID.
func UserID(id int64) slog.Attr {
	return slog.Int64(FieldUserID, id)
}

// IP returns a slog attribute for the client IP address.
func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Query returns a slog attribute for a query string.
func Query(query string) slog.Attr {
	return slog.String(FieldQuery, query)
}

// SessionID returns a slog attribute for a chat session ID.
func SessionID(id int64) slog.Attr {
	return slog.Int64(FieldSession, id)
}
