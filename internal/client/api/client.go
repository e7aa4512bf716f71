// Package api is the HTTP client for the account endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atinyakov/GophAuth/internal/models"
)

// FallbackMessage is shown when a failure carries no readable message.
const FallbackMessage = "Something went wrong!"

// Error is a non-2xx response from the server.
type Error struct {
	Status   int
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("server error: status %d", e.Status)
	}
	return fmt.Sprintf("server error: status %d: %s", e.Status, strings.Join(e.Messages, "; "))
}

// ErrorMessage returns the first server-supplied message carried by err, or
// FallbackMessage when there is none.
func ErrorMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		for _, m := range apiErr.Messages {
			if strings.TrimSpace(m) != "" {
				return m
			}
		}
	}
	return FallbackMessage
}

// Client talks to the account API at BaseURL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL. A nil httpClient gets a client with a
// 10 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// CreateUser registers a new account.
func (c *Client) CreateUser(ctx context.Context, form models.SignUpForm) (models.UserView, error) {
	var view models.UserView
	payload := struct {
		User models.SignUpForm `json:"user"`
	}{User: form}
	err := c.do(ctx, http.MethodPost, "/api/users", payload, nil, &view)
	return view, err
}

// Login exchanges credentials for a session.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.AuthSession, error) {
	var session models.AuthSession
	err := c.do(ctx, http.MethodPost, "/api/login", req, nil, &session)
	return session, err
}

// Me returns the user that session belongs to.
func (c *Client) Me(ctx context.Context, session models.AuthSession) (models.UserView, error) {
	var view models.UserView
	headers := map[string]string{
		"access-token": session.AuthToken,
		"client":       session.Client,
		"uid":          session.Email,
	}
	err := c.do(ctx, http.MethodGet, "/api/me", nil, headers, &view)
	return view, err
}

func (c *Client) do(ctx context.Context, method, path string, in any, headers map[string]string, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(resp.Body)
		return &Error{Status: resp.StatusCode, Messages: decodeMessages(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeMessages extracts messages from an error body of the form
// {"error": [...]}, {"error": "..."} or {"errors": [...]}.
func decodeMessages(data []byte) []string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil
	}
	for _, key := range []string{"error", "errors"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			return list
		}
		var single string
		if err := json.Unmarshal(raw, &single); err == nil && single != "" {
			return []string{single}
		}
	}
	return nil
}
