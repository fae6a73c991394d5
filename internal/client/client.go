// Package client is a Go client for the marketplace gateway.
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

	"github.com/gorilla/websocket"

	"github.com/xiaot623/gogo/marketplace/internal/domain"
)

// ErrPollTimeout is returned when an interaction is still pending after the
// last poll attempt. The interaction keeps running on the server.
var ErrPollTimeout = errors.New("interaction still pending")

// APIError is a non-2xx gateway response.
type APIError struct {
	StatusCode int
	Detail     string
	Code       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("gateway error [%d] %s: %s", e.StatusCode, e.Code, e.Detail)
	}
	return fmt.Sprintf("gateway error [%d]: %s", e.StatusCode, e.Detail)
}

// Client talks to the gateway over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new gateway client.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ListAgents returns the agent catalog.
func (c *Client) ListAgents(ctx context.Context) ([]domain.Agent, error) {
	var resp struct {
		Agents []domain.Agent `json:"agents"`
	}
	if err := c.do(ctx, http.MethodGet, "/agents", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Agents, nil
}

// GetAgent returns the agent, or nil, nil when it does not exist.
func (c *Client) GetAgent(ctx context.Context, id uint32) (*domain.Agent, error) {
	var agent domain.Agent
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/agents/%d", id), nil, &agent); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &agent, nil
}

// Submit sends a paid query and returns the accepted interaction id.
func (c *Client) Submit(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	var resp domain.QueryResponse
	if err := c.do(ctx, http.MethodPost, "/query", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetInteraction returns the interaction, or nil, nil when it does not exist.
func (c *Client) GetInteraction(ctx context.Context, id uint64) (*domain.Interaction, error) {
	var in domain.Interaction
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/interactions/%d", id), nil, &in); err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &in, nil
}

// Poll fetches the interaction every interval until it is terminal. After
// maxAttempts fetches it returns the last state with ErrPollTimeout.
func (c *Client) Poll(ctx context.Context, id uint64, interval time.Duration, maxAttempts int) (*domain.Interaction, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *domain.Interaction
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-ticker.C:
			}
		}

		in, err := c.GetInteraction(ctx, id)
		if err != nil {
			return last, err
		}
		if in == nil {
			return nil, fmt.Errorf("interaction %d: %w", id, domain.ErrInteractionNotFound)
		}
		last = in
		if in.Status.Terminal() {
			return in, nil
		}
	}
	return last, ErrPollTimeout
}

// Watch streams interaction events over a websocket until the server
// closes the connection after a terminal status. fn is called for every
// event received.
func (c *Client) Watch(ctx context.Context, id uint64, fn func(domain.InteractionEvent)) (*domain.Interaction, error) {
	url := "ws" + strings.TrimPrefix(c.baseURL, "http") + fmt.Sprintf("/ws/interactions/%d", id)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("interaction %d: %w", id, domain.ErrInteractionNotFound)
		}
		return nil, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var last *domain.Interaction
	for {
		var ev domain.InteractionEvent
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) && last != nil && last.Status.Terminal() {
				return last, nil
			}
			if ctx.Err() != nil {
				return last, ctx.Err()
			}
			return last, fmt.Errorf("read: %w", err)
		}
		if fn != nil {
			fn(ev)
		}
		if ev.Type == domain.EventTypeError {
			return last, errors.New(ev.Error)
		}
		if ev.Interaction != nil {
			last = ev.Interaction
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Detail: string(respBody)}
		var errResp domain.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Detail != "" {
			apiErr.Detail = errResp.Detail
			apiErr.Code = errResp.Code
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
