// Package client is a typed HTTP client for the user API.
package client

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

	"github.com/roster/roster/internal/model"
)

// FallbackMessage is reported when an error response carries no usable message.
const FallbackMessage = "Failed to add user"

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 4 << 20

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// Client calls the user API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type addUserRequest struct {
	Name string `json:"name"`
}

// AddUser posts name and returns the server's full list after the insert.
func (c *Client) AddUser(ctx context.Context, name string) ([]model.User, error) {
	payload, err := json.Marshal(addUserRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/add-user", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.doList(req)
}

// ListUsers fetches the full list.
func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/users", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return c.doList(req)
}

func (c *Client) doList(req *http.Request) ([]model.User, error) {
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	var users []model.User
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("decode user list: %w", err)
	}
	if users == nil {
		return nil, errors.New("decode user list: response is not an array")
	}
	return users, nil
}

// parseAPIError reads the error envelope, falling back to FallbackMessage.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status, Message: FallbackMessage}

	var envelope struct {
		Error any    `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apiErr
	}
	if msg, ok := envelope.Error.(string); ok && msg != "" {
		apiErr.Message = msg
	}
	apiErr.Code = envelope.Code
	return apiErr
}
