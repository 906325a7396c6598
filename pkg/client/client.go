// Package client talks to a running shell core over its Unix control
// socket. CLI commands prefer the socket when the core is up, falling back
// to direct storage access when it is not, so the two never write the
// session documents concurrently.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/neteasedesktop/shell/internal/docstore"
	"github.com/neteasedesktop/shell/internal/server"
)

// baseURL is the dummy host used for Unix socket HTTP requests. The actual
// connection goes through the socket, not this URL.
const baseURL = "http://unix"

// Client is an HTTP client bound to the control socket.
type Client struct {
	httpClient *http.Client
	socketPath string
}

// New creates a client for the given control socket path.
func New(socketPath string) *Client {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socketPath)
		},
		MaxIdleConns:    4,
		IdleConnTimeout: 90 * time.Second,
	}
	return &Client{
		httpClient: &http.Client{Transport: transport, Timeout: 10 * time.Second},
		socketPath: socketPath,
	}
}

// IsRunning reports whether a core is listening and healthy.
func (c *Client) IsRunning() bool {
	_, err := c.Health(context.Background())
	return err == nil
}

// Health returns the core's health payload.
func (c *Client) Health(ctx context.Context) (*server.Status, error) {
	var status server.Status
	if err := c.get(ctx, "/health", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SessionInfo returns the login-data snapshot from the running core.
func (c *Client) SessionInfo(ctx context.Context) (*server.SessionInfo, error) {
	var info server.SessionInfo
	if err := c.get(ctx, "/api/session", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// AudioConfig returns the stored restart schedule.
func (c *Client) AudioConfig(ctx context.Context) (*docstore.AudioRestartConfig, error) {
	var cfg docstore.AudioRestartConfig
	if err := c.get(ctx, "/api/audio/config", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetAudioConfig stores a restart schedule and returns the clamped form the
// core persisted.
func (c *Client) SetAudioConfig(ctx context.Context, cfg docstore.AudioRestartConfig) (*docstore.AudioRestartConfig, error) {
	var stored docstore.AudioRestartConfig
	if err := c.send(ctx, http.MethodPut, "/api/audio/config", cfg, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// RequestRestart asks the core to restart the audio service.
func (c *Client) RequestRestart(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/api/audio/restart", nil, nil)
}

// SetCloseBehavior stores the close-button choice.
func (c *Client) SetCloseBehavior(ctx context.Context, action string, remember bool) error {
	body := map[string]interface{}{"action": action, "remember": remember}
	return c.send(ctx, http.MethodPut, "/api/preferences/close", body, nil)
}

// PlayerEvent reports a playback state change to the coordinator.
func (c *Client) PlayerEvent(ctx context.Context, event string) error {
	return c.send(ctx, http.MethodPost, "/api/player/event", map[string]string{"event": event}, nil)
}

// Events subscribes to the core's event stream. The returned channel closes
// when the connection drops or the context is cancelled.
func (c *Client) Events(ctx context.Context) (<-chan server.Event, error) {
	dialer := websocket.Dialer{
		NetDialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", c.socketPath)
		},
	}
	conn, _, err := dialer.DialContext(ctx, "ws://unix/api/events", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}

	events := make(chan server.Event, 16)
	go func() {
		defer close(events)
		defer conn.Close()
		for {
			var ev server.Event
			if err := conn.ReadJSON(&ev); err != nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.send(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("control socket request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil {
			if apiErr.Message != "" {
				return fmt.Errorf("core returned %d: %s", resp.StatusCode, apiErr.Message)
			}
			if apiErr.Error != "" {
				return fmt.Errorf("core returned %d: %s", resp.StatusCode, apiErr.Error)
			}
		}
		return fmt.Errorf("core returned status %d", resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
