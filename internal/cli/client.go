package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mcoot/connectaword/internal/api/apierr"
	"github.com/mcoot/connectaword/internal/transport/wire"
)

// Client talks to the connectaword REST API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL, authenticating with token if set
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken replaces the bearer token used for later requests
func (c *Client) SetToken(token string) {
	c.token = token
}

// RequestError is a failed API call. Code is empty when the server did not
// answer with the standard error body.
type RequestError struct {
	Status  int
	Code    string
	Message string
}

func (e *RequestError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// CreateRoomRequest is the body of a room creation
type CreateRoomRequest struct {
	Name       string `json:"name"`
	Language   string `json:"language"`
	WordSource string `json:"word_source,omitempty"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Health(ctx context.Context) (HealthResult, error) {
	var result HealthResult
	err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &result)
	return result, err
}

// Register creates an account and switches the client to its token
func (c *Client) Register(ctx context.Context, username, email, password string) (AuthResult, error) {
	var result AuthResult
	req := registerRequest{Username: username, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/register", req, &result); err != nil {
		return AuthResult{}, err
	}
	c.SetToken(result.Token)
	return result, nil
}

// Login exchanges credentials for a token and switches the client to it
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var result AuthResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", loginRequest{Email: email, Password: password}, &result); err != nil {
		return AuthResult{}, err
	}
	c.SetToken(result.Token)
	return result, nil
}

func (c *Client) Me(ctx context.Context) (User, error) {
	var result User
	err := c.do(ctx, http.MethodGet, "/api/v1/users/me", nil, &result)
	return result, err
}

func (c *Client) ListRooms(ctx context.Context) (RoomList, error) {
	var result RoomList
	err := c.do(ctx, http.MethodGet, "/api/v1/rooms", nil, &result)
	return result, err
}

func (c *Client) CreateRoom(ctx context.Context, req CreateRoomRequest) (Room, error) {
	var result Room
	err := c.do(ctx, http.MethodPost, "/api/v1/rooms", req, &result)
	return result, err
}

func (c *Client) GetRoom(ctx context.Context, id string) (Room, error) {
	var result Room
	err := c.do(ctx, http.MethodGet, roomPath(id), nil, &result)
	return result, err
}

// GetSession returns the public view of a room's live game
func (c *Client) GetSession(ctx context.Context, id string) (wire.GameState, error) {
	var result wire.GameState
	err := c.do(ctx, http.MethodGet, roomPath(id)+"/session", nil, &result)
	return result, err
}

func (c *Client) DeleteRoom(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, roomPath(id), nil, nil)
}

func roomPath(id string) string {
	return "/api/v1/rooms/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

func decodeError(status int, body []byte) *RequestError {
	var errResp apierr.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Code != "" {
		return &RequestError{Status: status, Code: errResp.Error.Code, Message: errResp.Error.Message}
	}
	return &RequestError{Status: status, Message: strings.TrimSpace(string(body))}
}
