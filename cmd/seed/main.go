// Command seed drives demo traffic against a running backend: it registers
// fake users, logs them in, exercises the chat endpoints and fires smart
// queries. Useful for local demos and for eyeballing the history endpoints
// with realistic data.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	baseURL   = flag.String("base-url", "http://localhost:8080", "backend base URL")
	userCount = flag.Int("users", 5, "number of users to register")
	queries   = flag.Int("queries", 3, "smart queries per user")
	messages  = flag.Int("messages", 4, "chat messages per user")
	interval  = flag.Duration("interval", 200*time.Millisecond, "pause between requests")
	password  = flag.String("password", "", "password for all seeded users (random if empty)")
)

var sampleQueries = []string{
	"Why was claim %s denied?",
	"Show denial reasons for CPT code %d",
	"What is the appeal deadline for payer %s?",
	"Summarize denials from last month for %s",
	"Which documentation is missing for claim %s?",
}

func main() {
	flag.Parse()
	gofakeit.Seed(time.Now().UnixNano())

	log.Printf("Seeding %s: %d users, %d queries and %d messages each",
		*baseURL, *userCount, *queries, *messages)

	client := &http.Client{Timeout: 15 * time.Second}

	registered := 0
	for i := 0; i < *userCount; i++ {
		username := strings.ToLower(gofakeit.LetterN(1) + gofakeit.Username())
		email := gofakeit.Email()
		pass := *password
		if pass == "" {
			pass = gofakeit.Password(true, true, true, false, false, 12)
		}

		if err := register(client, username, email, pass); err != nil {
			log.Printf("register %s: %v", username, err)
			continue
		}

		token, err := login(client, username, pass)
		if err != nil {
			log.Printf("login %s: %v", username, err)
			continue
		}
		registered++
		log.Printf("user %s ready", username)

		seedChat(client, token, *messages)
		seedQueries(client, token, *queries)
	}

	log.Printf("Seeding complete: %d/%d users", registered, *userCount)
}

func register(client *http.Client, username, email, password string) error {
	body := map[string]string{"username": username, "email": email, "password": password}
	resp, err := postJSON(client, *baseURL+"/api/auth/register", "", body)
	if err != nil {
		return err
	}
	if ok, _ := resp["success"].(bool); !ok {
		return fmt.Errorf("rejected: %v", resp["message"])
	}
	pause()
	return nil
}

func login(client *http.Client, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	resp, err := postJSON(client, *baseURL+"/api/auth/login", "", body)
	if err != nil {
		return "", err
	}
	token, _ := resp["token"].(string)
	if token == "" {
		return "", fmt.Errorf("no token: %v", resp["message"])
	}
	pause()
	return token, nil
}

func seedChat(client *http.Client, token string, count int) {
	resp, err := getJSON(client, *baseURL+"/api/chat/sessions/today", token)
	if err != nil {
		log.Printf("today session: %v", err)
		return
	}
	data, _ := resp["data"].(map[string]any)
	id, _ := data["id"].(float64)
	if id == 0 {
		log.Printf("today session: no id in response")
		return
	}

	url := fmt.Sprintf("%s/api/chat/sessions/%d/messages", *baseURL, int64(id))
	for i := 0; i < count; i++ {
		role := "user"
		content := gofakeit.Question()
		if i%2 == 1 {
			role = "assistant"
			content = gofakeit.Sentence(12)
		}
		if _, err := postJSON(client, url, token, map[string]any{
			"role":    role,
			"content": content,
		}); err != nil {
			log.Printf("append message: %v", err)
		}
		pause()
	}
}

func seedQueries(client *http.Client, token string, count int) {
	for i := 0; i < count; i++ {
		tmpl := sampleQueries[rand.Intn(len(sampleQueries))]
		var query string
		switch {
		case strings.Contains(tmpl, "%d"):
			query = fmt.Sprintf(tmpl, gofakeit.Number(10000, 99999))
		default:
			query = fmt.Sprintf(tmpl, gofakeit.UUID()[:8])
		}

		if _, err := postJSON(client, *baseURL+"/api/smart/query", token, map[string]string{
			"query": query,
		}); err != nil {
			log.Printf("smart query: %v", err)
		}
		pause()
	}
}

func postJSON(client *http.Client, url, token string, body any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return do(client, req)
}

func getJSON(client *http.Client, url, token string) (map[string]any, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return do(client, req)
}

func do(client *http.Client, req *http.Request) (map[string]any, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}

func pause() {
	if *interval > 0 {
		time.Sleep(*interval)
	}
}
