// Package postgrest is a small typed client for a PostgREST endpoint (as
// exposed by Supabase) and the store adapter built on top of it.
package postgrest

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
)

const (
	restPrefix    = "/rest/v1/"
	defaultSchema = "vye"
	maxErrorBody  = 64 << 10
)

// Config holds connection settings.
type Config struct {
	URL    string // project URL, e.g. https://xyz.supabase.co
	Key    string // anon or service key
	Schema string // exposed schema, sent as Accept-Profile / Content-Profile

	// Timeout bounds each call. Zero means the caller's context alone decides.
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	base    *url.URL
	key     string
	schema  string
	timeout time.Duration
	http    *http.Client
}

// New validates cfg and returns a client. It does not contact the server.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if raw == "" {
		return nil, errors.New("missing store URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse store URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("store URL must be http or https, got %q", u.Scheme)
	}
	if strings.TrimSpace(cfg.Key) == "" {
		return nil, errors.New("missing store access key")
	}
	schema := cfg.Schema
	if schema == "" {
		schema = defaultSchema
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{base: u, key: cfg.Key, schema: schema, timeout: cfg.Timeout, http: hc}, nil
}

// From starts a query against a table.
func (c *Client) From(table string) *Query {
	return &Query{client: c, table: table, params: url.Values{}}
}

// RPC calls a stored procedure with named arguments and decodes the result into out.
func (c *Client) RPC(ctx context.Context, fn string, args any, out any) error {
	return c.do(ctx, http.MethodPost, "rpc/"+fn, nil, args, out, "")
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any, prefer string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + restPrefix + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if method == http.MethodGet || method == http.MethodHead {
		req.Header.Set("Accept-Profile", c.schema)
	} else {
		req.Header.Set("Content-Profile", c.schema)
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
