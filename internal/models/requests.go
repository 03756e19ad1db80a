package models

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
	Message  string `json:"message"`
	Success  bool   `json:"success"`
}

type QueryRequest struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
}

type AppendMessageRequest struct {
	Role        string `json:"role"`
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
	Metadata    any    `json:"metadata"`
}
