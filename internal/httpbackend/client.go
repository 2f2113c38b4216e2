package httpbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/roach88/provtrack/internal/schema"
	"github.com/roach88/provtrack/internal/syncer"
)

// Client is a syncer.Backend talking to a NewHandler server.
type Client struct {
	endpoint string
	http     *http.Client
	secret   []byte
	subject  string
	now      func() time.Time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithToken signs every request with secret on behalf of subject.
func WithToken(secret []byte, subject string) ClientOption {
	return func(c *Client) {
		c.secret = secret
		c.subject = subject
	}
}

// NewClient creates a client for the server at endpoint, e.g.
// "http://tracker:8080".
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     http.DefaultClient,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sync implements syncer.Backend.
//
// A 409 answer wraps schema.ErrKeyConflict and other 4xx answers wrap
// syncer.ErrRejected, so the syncer does not retry them. 5xx answers and
// transport errors are returned plain and retried.
func (c *Client) Sync(ctx context.Context, records []schema.Record) ([]schema.Receipt, error) {
	payload, err := json.Marshal(SyncRequest{Records: records})
	if err != nil {
		return nil, fmt.Errorf("encode sync request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/v1/sync", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.secret != nil {
		token, err := signToken(c.secret, c.subject, c.now())
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post sync: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, responseError(resp)
	}

	var body SyncResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode sync response: %w", err)
	}
	return body.Receipts, nil
}

func responseError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var er ErrorResponse
	if err := json.Unmarshal(data, &er); err != nil || er.Code == "" {
		er = ErrorResponse{Code: CodeBackendError, Message: strings.TrimSpace(string(data))}
	}

	switch {
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%s: %w", er.Message, schema.ErrKeyConflict)
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: %s %s: %s", syncer.ErrRejected, resp.Status, er.Code, er.Message)
	default:
		return fmt.Errorf("server error %s: %s: %s", resp.Status, er.Code, er.Message)
	}
}
