// Package ctl is the client side of the daemon control API.
package ctl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/matheus3301/drift/internal/message"
)

// Client talks to a session daemon over its Unix domain socket.
type Client struct {
	http *http.Client
}

// New returns a client bound to the daemon socket at socketPath. The daemon is
// not contacted until the first call.
func New(socketPath string) *Client {
	return &Client{
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
					var d net.Dialer
					return d.DialContext(ctx, "unix", socketPath)
				},
			},
		},
	}
}

// Status mirrors the daemon's status report.
type Status struct {
	Session  string `json:"session"`
	Room     string `json:"room"`
	State    string `json:"state"`
	Online   bool   `json:"online"`
	UptimeMS int64  `json:"uptime_ms"`
	Messages int    `json:"messages"`
}

func (c *Client) Status(ctx context.Context) (*Status, error) {
	var st Status
	if err := c.do(ctx, http.MethodGet, "/v1/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) Messages(ctx context.Context) ([]message.Message, error) {
	var resp struct {
		Messages []message.Message `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/messages", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (c *Client) Send(ctx context.Context, text string) error {
	return c.do(ctx, http.MethodPost, "/v1/messages", map[string]string{"text": text}, nil)
}

// Upload asks the daemon to upload a local file and send the resulting
// attachment message. Returns the durable download URL.
func (c *Client) Upload(ctx context.Context, path, folder string) (string, error) {
	req := map[string]string{"path": path}
	if folder != "" {
		req["folder"] = folder
	}
	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/attachments", req, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// Locate asks the daemon to capture the device position and send it as a
// location message.
func (c *Client) Locate(ctx context.Context) (*message.Location, error) {
	var resp struct {
		Location message.Location `json:"location"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/location", struct{}{}, &resp); err != nil {
		return nil, err
	}
	return &resp.Location, nil
}

// do issues one request against the daemon socket. Error bodies are unwrapped
// into plain errors so callers see the daemon's message, not an HTTP status.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://drift"+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dial daemon: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusMultipleChoices {
		var e struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&e); decodeErr == nil && e.Error != "" {
			return errors.New(e.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
