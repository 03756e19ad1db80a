package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/denial-knowledge/csrbot/internal/logging"
	"github.com/denial-knowledge/csrbot/internal/models"
	"github.com/denial-knowledge/csrbot/internal/repository"
)

// QueryService is a thin proxy to the external ML query service, plus
// best-effort conversation logging. The ML response body is passed through
// untouched; this layer adds no interpretation beyond the success flag and
// the response type used for tagging.
type QueryService struct {
	baseURL string
	client  *http.Client
	repo    repository.Repository
	log     *logging.Logger
}

func NewQueryService(baseURL string, timeout time.Duration, repo repository.Repository, log *logging.Logger) *QueryService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = logging.Default()
	}
	return &QueryService{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		repo:    repo,
		log:     log,
	}
}

// ProcessQuery POSTs the query to the ML service and returns its decoded
// response. Transport and decode failures come back as the standard
// {"success":false,"error":...} map so callers have one shape to deal with.
func (s *QueryService) ProcessQuery(ctx context.Context, query, queryType string) map[string]any {
	body := map[string]any{"query": query}
	if queryType != "" {
		body["type"] = queryType
	}

	resp, err := s.postJSON(ctx, s.baseURL+"/query", body)
	if err != nil {
		s.log.ErrorContext(ctx, "ML query failed", logging.Query(query), logging.Error(err))
		return errorResponse("Failed to connect to ML API: " + err.Error())
	}

	s.log.InfoContext(ctx, "ML API responded", logging.Query(query))
	return resp
}

// SaveConversation persists one query/response round trip for the user.
// Failures are logged and swallowed; conversation logging never breaks the
// query path.
func (s *QueryService) SaveConversation(ctx context.Context, user *models.User, userInput string, response map[string]any) {
	outputType := "unknown"
	if inner, ok := response["response"].(map[string]any); ok {
		if t, ok := inner["type"].(string); ok && t != "" {
			outputType = t
		}
	}

	raw, err := json.Marshal(response)
	if err != nil {
		s.log.ErrorContext(ctx, "failed to encode conversation", logging.Error(err))
		return
	}

	convo := &models.Conversation{
		UserID:     user.ID,
		UserInput:  userInput,
		AiOutput:   string(raw),
		OutputType: outputType,
	}

	if err := s.repo.CreateConversation(ctx, convo); err != nil {
		s.log.ErrorContext(ctx, "failed to save conversation", logging.Username(user.Username), logging.Error(err))
		return
	}
	s.log.InfoContext(ctx, "conversation saved", logging.Username(user.Username))
}

// Health reports whether the ML service answers its health endpoint.
func (s *QueryService) Health(ctx context.Context) bool {
	_, err := s.getJSON(ctx, s.baseURL+"/health")
	if err != nil {
		s.log.WarnContext(ctx, "ML health check failed", logging.Error(err))
		return false
	}
	return true
}

// TrainStatus passes through the ML service's training status.
func (s *QueryService) TrainStatus(ctx context.Context) map[string]any {
	resp, err := s.getJSON(ctx, s.baseURL+"/train-status")
	if err != nil {
		s.log.ErrorContext(ctx, "failed to fetch training status", logging.Error(err))
		return errorResponse("Failed to connect to ML API: " + err.Error())
	}
	return resp
}

// AvailableData passes through the ML service's available training data.
func (s *QueryService) AvailableData(ctx context.Context) map[string]any {
	resp, err := s.getJSON(ctx, s.baseURL+"/available-data")
	if err != nil {
		s.log.ErrorContext(ctx, "failed to fetch available data", logging.Error(err))
		return errorResponse("Failed to connect to ML API: " + err.Error())
	}
	return resp
}

func (s *QueryService) postJSON(ctx context.Context, url string, body map[string]any) (map[string]any, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return s.do(req)
}

func (s *QueryService) getJSON(ctx context.Context, url string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return s.do(req)
}

func (s *QueryService) do(req *http.Request) (map[string]any, error) {
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("ML API returned status %d", resp.StatusCode)
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return decoded, nil
}

func errorResponse(message string) map[string]any {
	return map[string]any{"success": false, "error": message}
}
