// Package market is the HTTP client of the marketplace chat API.
package market

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Endpoint paths of the marketplace chat API.
const (
	PathContacts = "/api/chat/list"
	PathHistory  = "/api/chat/get"
	PathSend     = "/api/chat/send"
)

// maxErrorBody caps how much of an error response is kept in APIError.
const maxErrorBody = 512

// Config defines client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the marketplace chat endpoints.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
}

// New validates cfg and returns a client.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("market: base URL required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("market: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("market: unsupported scheme %q", base.Scheme)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:   base,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}, nil
}

// ListContacts returns the users the given user has exchanged messages with.
func (c *Client) ListContacts(ctx context.Context, username string) ([]ContactDTO, error) {
	var out []ContactDTO
	q := url.Values{"userId": {username}}
	if err := c.do(ctx, http.MethodGet, PathContacts, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetHistory returns the messages between sender and receiver, oldest first.
func (c *Client) GetHistory(ctx context.Context, sender, receiver string) ([]ChatMessage, error) {
	var out []ChatMessage
	q := url.Values{"senderId": {sender}, "receiverId": {receiver}}
	if err := c.do(ctx, http.MethodGet, PathHistory, q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PostMessage submits a message and returns it as stored by the server.
func (c *Client) PostMessage(ctx context.Context, m ChatMessage) (ChatMessage, error) {
	var out ChatMessage
	if err := c.do(ctx, http.MethodPost, PathSend, nil, m, &out); err != nil {
		return ChatMessage{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.base.JoinPath(path)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("marketplace request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
