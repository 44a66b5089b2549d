// Package board provides a client for the msgboard HTTP API.
package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultURL is used when no base URL is given.
const DefaultURL = "http://localhost:8080"

// Client is a msgboard API client.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new msgboard client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is returned for any response with status >= 400.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("msgboard error %d: %s", e.StatusCode, e.Message)
}

// doRequest performs an HTTP request and returns the body and headers.
func (c *Client) doRequest(method, path string, body []byte) ([]byte, http.Header, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
	}

	return respBody, resp.Header, nil
}

// Message is a message board entry.
type Message struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// List returns every message on the board.
func (c *Client) List() ([]Message, error) {
	respBody, _, err := c.doRequest(http.MethodGet, "/", nil)
	if err != nil {
		return nil, err
	}

	var messages []Message
	if err := json.Unmarshal(respBody, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// CreateRequest is the request body for creating a message.
type CreateRequest struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// Create posts a message and returns its id. An empty id lets the
// server generate one.
func (c *Client) Create(id, text string) (string, error) {
	reqBody, _ := json.Marshal(CreateRequest{ID: id, Text: text})

	_, header, err := c.doRequest(http.MethodPost, "/", reqBody)
	if err != nil {
		return "", err
	}

	location := strings.TrimPrefix(header.Get("Location"), "/")
	created, err := url.PathUnescape(location)
	if err != nil {
		return location, nil
	}
	return created, nil
}

// Get returns the messages stored under id.
func (c *Client) Get(id string) ([]Message, error) {
	respBody, _, err := c.doRequest(http.MethodGet, "/messages/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var messages []Message
	if err := json.Unmarshal(respBody, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]interface{} `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health() (*HealthResponse, error) {
	respBody, _, err := c.doRequest(http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
