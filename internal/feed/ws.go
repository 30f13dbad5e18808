package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matheus3301/drift/internal/identity"
	"go.uber.org/zap"
)

// WSProvider implements Provider against the backend's websocket feed
// endpoint and its REST message-append endpoint.
type WSProvider struct {
	feedURL string
	baseURL string
	tokens  identity.TokenSource
	dialer  *websocket.Dialer
	client  *http.Client
	logger  *zap.Logger
}

// NewWSProvider creates a provider. feedURL is the ws(s) endpoint, baseURL
// the http(s) endpoint for appends. tokens may be nil for unauthenticated use.
func NewWSProvider(feedURL, baseURL string, tokens identity.TokenSource, logger *zap.Logger) *WSProvider {
	return &WSProvider{
		feedURL: feedURL,
		baseURL: baseURL,
		tokens:  tokens,
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// Subscribe dials the feed endpoint for the room and streams snapshot frames.
// Each frame is a JSON array holding the room's full current document set.
func (p *WSProvider) Subscribe(ctx context.Context, room string) (<-chan Snapshot, error) {
	header := http.Header{}
	if err := p.authorize(ctx, header); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s?room=%s", p.feedURL, url.QueryEscape(room))
	conn, resp, err := p.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("dial feed (%d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("dial feed: %w", err)
	}

	ch := make(chan Snapshot, 8)

	// Close the connection when the subscription is cancelled so the read
	// loop unblocks.
	go func() {
		<-ctx.Done()
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	go func() {
		defer close(ch)
		for {
			var docs []map[string]any
			if err := conn.ReadJSON(&docs); err != nil {
				if ctx.Err() == nil && p.logger != nil {
					p.logger.Warn("feed connection lost", zap.String("room", room), zap.Error(err))
				}
				return
			}
			select {
			case ch <- Snapshot{Docs: docs}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}

// Append creates a document in the room's collection via the REST endpoint.
func (p *WSProvider) Append(ctx context.Context, room string, doc map[string]any) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/rooms/%s/messages", p.baseURL, url.PathEscape(room))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := p.authorize(ctx, req.Header); err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("append message: server returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

func (p *WSProvider) authorize(ctx context.Context, header http.Header) error {
	if p.tokens == nil {
		return nil
	}
	token, err := p.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("resolve token: %w", err)
	}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return nil
}
