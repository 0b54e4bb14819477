// Package postgrest implements storage.Storage against a Supabase PostgREST
// endpoint using postgrest-go. Atomic operations run server-side as SQL
// functions (see schema.sql) invoked through /rpc.
package postgrest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/getstreetcred/backend/storage"
	pgrest "github.com/supabase-community/postgrest-go"
)

const defaultTimeout = 30 * time.Second

// Client opens postgrest-go sessions for one Supabase project
type Client struct {
	restURL   string
	apiKey    string
	transport http.RoundTripper
	timeout   time.Duration
}

// NewClient creates a client for projectURL (https://<ref>.supabase.co).
// Only the Transport and Timeout of httpClient are used.
func NewClient(projectURL, apiKey string, httpClient *http.Client) (*Client, error) {
	if projectURL == "" || apiKey == "" {
		return nil, fmt.Errorf("%w: SUPABASE_URL and SUPABASE_ANON_KEY are required", storage.ErrNotConfigured)
	}
	restURL := strings.TrimRight(projectURL, "/") + "/rest/v1"
	if _, err := url.Parse(restURL); err != nil {
		return nil, fmt.Errorf("%w: SUPABASE_URL: %w", storage.ErrNotConfigured, err)
	}

	c := &Client{
		restURL:   restURL,
		apiKey:    apiKey,
		transport: http.DefaultTransport,
		timeout:   defaultTimeout,
	}
	if httpClient != nil {
		if httpClient.Transport != nil {
			c.transport = httpClient.Transport
		}
		if httpClient.Timeout > 0 {
			c.timeout = httpClient.Timeout
		}
	}
	return c, nil
}

// contextTransport binds every request to ctx
type contextTransport struct {
	ctx    context.Context
	parent http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.parent.RoundTrip(req.WithContext(t.ctx))
}

// session returns a postgrest-go client whose requests carry ctx. A
// pgrest.Client keeps the first error it sees, so sessions are never shared.
func (c *Client) session(ctx context.Context) (*pgrest.Client, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	client := pgrest.NewClient(c.restURL, "public", nil).
		SetApiKey(c.apiKey).
		SetAuthToken(c.apiKey)
	client.Transport.Parent = contextTransport{ctx: ctx, parent: c.transport}
	return client, cancel
}

// query runs the builder returned by build and decodes the rows into out
func (c *Client) query(ctx context.Context, op string, out interface{}, build func(*pgrest.Client) *pgrest.FilterBuilder) error {
	client, cancel := c.session(ctx)
	defer cancel()

	if _, err := build(client).ExecuteTo(out); err != nil {
		return mapError(op, err)
	}
	return nil
}

// rpc calls a SQL function and decodes its result into out. postgrest-go
// hands back the body whatever the status, so error bodies are detected by
// their code and message fields.
func (c *Client) rpc(ctx context.Context, name string, body, out interface{}) error {
	op := "rpc " + name
	client, cancel := c.session(ctx)
	defer cancel()

	raw := client.Rpc(name, "", body)
	if client.ClientError != nil {
		return fmt.Errorf("postgrest %s: %w: %w", op, storage.ErrBackend, client.ClientError)
	}

	var apiErr pgrest.ExecuteError
	if err := json.Unmarshal([]byte(raw), &apiErr); err == nil && (apiErr.Code != "" || apiErr.Message != "") {
		return codeError(op, apiErr.Code, apiErr.Message)
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("postgrest %s: %w: decode response: %w", op, storage.ErrBackend, err)
	}
	return nil
}

// executeErrorPattern matches the "(code) message" errors of postgrest-go
var executeErrorPattern = regexp.MustCompile(`(?s)^\(([^)]*)\) (.*)$`)

// mapError maps a postgrest-go error onto the storage taxonomy
func mapError(op string, err error) error {
	m := executeErrorPattern.FindStringSubmatch(err.Error())
	if m == nil {
		return fmt.Errorf("postgrest %s: %w: %w", op, storage.ErrBackend, err)
	}
	return codeError(op, m[1], m[2])
}

// codeError classifies a PostgREST or Postgres error code
func codeError(op, code, message string) error {
	kind := storage.ErrBackend
	switch code {
	case "23505":
		kind = storage.ErrConflict
	case "23503", "PGRST116", "22P02":
		// FK miss, zero rows for a single object, malformed uuid
		kind = storage.ErrNotFound
	case "23502", "23514":
		kind = storage.ErrValidation
	case "42501", "42P01", "PGRST202", "PGRST205", "PGRST301", "PGRST302":
		// missing grants, tables or functions; rejected key
		kind = storage.ErrNotConfigured
	}
	return fmt.Errorf("postgrest %s %s: %s: %w", op, code, message, kind)
}

// closeIdle releases pooled connections of the underlying transport
func (c *Client) closeIdle() {
	if t, ok := c.transport.(interface{ CloseIdleConnections() }); ok {
		t.CloseIdleConnections()
	}
}
