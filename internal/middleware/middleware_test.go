package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

// ============================================================================
// RequestID Tests
// ============================================================================

func TestRequestIDGenerated(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if captured == "" {
		t.Fatal("Expected generated request ID in context")
	}
	if w.Header().Get("X-Request-ID") != captured {
		t.Error("Response header does not match context request ID")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "incoming-id")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if captured != "incoming-id" {
		t.Errorf("Expected incoming-id, got %q", captured)
	}
	if w.Header().Get("X-Request-ID") != "incoming-id" {
		t.Error("Incoming request ID not echoed")
	}
}

func TestGetRequestIDMissing(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("Expected empty ID for bare context, got %q", id)
	}
}

// ============================================================================
// CORS Tests
// ============================================================================

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		origin      string
		expectAllow string
	}{
		{
			name:        "wildcard allows any origin",
			allowed:     []string{"*"},
			origin:      "https://app.example.com",
			expectAllow: "https://app.example.com",
		},
		{
			name:        "exact match",
			allowed:     []string{"https://app.example.com"},
			origin:      "https://app.example.com",
			expectAllow: "https://app.example.com",
		},
		{
			name:        "suffix wildcard",
			allowed:     []string{"*.example.com"},
			origin:      "https://app.example.com",
			expectAllow: "https://app.example.com",
		},
		{
			name:        "no match",
			allowed:     []string{"https://app.example.com"},
			origin:      "https://evil.example.org",
			expectAllow: "",
		},
		{
			name:        "no origin header",
			allowed:     []string{"*"},
			origin:      "",
			expectAllow: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := CORS(CORSConfig{
				AllowedOrigins: tt.allowed,
				AllowedMethods: []string{"GET", "POST"},
				AllowedHeaders: []string{"Content-Type"},
			})
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest("GET", "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.expectAllow {
				t.Errorf("Expected allow-origin %q, got %q", tt.expectAllow, got)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	mw := CORS(CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest("OPTIONS", "/api/auth/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", w.Code)
	}
	if called {
		t.Error("Preflight must not reach the next handler")
	}
	if w.Header().Get("Access-Control-Max-Age") == "" {
		t.Error("Expected Max-Age on preflight response")
	}
}
