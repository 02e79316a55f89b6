package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fentz26/radar/internal/models"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 10 * time.Second

// Client wraps HTTP calls to the radar API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client. token may be empty when the daemon
// runs without auth.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: DefaultClientTimeout,
		},
	}
}

// Snapshot fetches the full record set and the stored manual order.
func (c *Client) Snapshot(ctx context.Context) ([]models.Item, []string, error) {
	var snap struct {
		Items []models.Item `json:"items"`
		Order []string      `json:"order"`
	}
	if err := c.do(ctx, http.MethodGet, "/snapshot", nil, &snap); err != nil {
		return nil, nil, err
	}
	return snap.Items, snap.Order, nil
}

// SaveOrder replaces the stored manual order.
func (c *Client) SaveOrder(ctx context.Context, ids []string) error {
	return c.do(ctx, http.MethodPut, "/order", map[string][]string{"order": ids}, nil)
}

// ResetOrder removes the stored manual order.
func (c *Client) ResetOrder(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/order", nil, nil)
}

// DeleteItem removes an item.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/items/"+id, nil, nil)
}

// ResetStatuses marks every item missing and returns how many changed.
func (c *Client) ResetStatuses(ctx context.Context) (int, error) {
	var res struct {
		Reset int `json:"reset"`
	}
	if err := c.do(ctx, http.MethodPost, "/scan/reset", nil, &res); err != nil {
		return 0, err
	}
	return res.Reset, nil
}

// FilterPresets lists built-in and saved filter presets.
func (c *Client) FilterPresets(ctx context.Context) ([]models.FilterPreset, error) {
	var presets []models.FilterPreset
	if err := c.do(ctx, http.MethodGet, "/filters", nil, &presets); err != nil {
		return nil, err
	}
	return presets, nil
}

// CheckHealth checks if the daemon is healthy.
func (c *Client) CheckHealth(ctx context.Context) (bool, error) {
	var health struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return false, err
	}
	return health.OK, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
