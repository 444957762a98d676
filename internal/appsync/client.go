package appsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/five82/tick/internal/todo"
)

// TodoAPI is the set of backend operations the sync layer consumes.
// It is implemented by *Client and can be faked in tests.
type TodoAPI interface {
	ListTodos(ctx context.Context) ([]todo.Item, error)
	CreateTodo(ctx context.Context, item todo.Item) (todo.Item, error)
	UpdateTodo(ctx context.Context, item todo.Item) (todo.Item, error)
	DeleteTodo(ctx context.Context, id string) (todo.Item, error)
	SubscribeCreated(ctx context.Context) (Stream, error)
}

// Ensure Client implements TodoAPI at compile time.
var _ TodoAPI = (*Client)(nil)

// Options configure a Client.
type Options struct {
	Endpoint         string // GraphQL HTTP endpoint
	RealtimeEndpoint string // optional; derived from Endpoint when empty
	APIKey           string
	Token            string // Authorization header value (ID token)
	UserAgent        string
	Timeout          time.Duration
	Logger           *log.Logger // receives skipped realtime events; discarded when nil
}

// Client talks to an AppSync-style GraphQL API.
type Client struct {
	endpoint  *url.URL
	realtime  *url.URL
	http      *http.Client
	dialer    *websocket.Dialer
	apiKey    string
	token     string
	userAgent string
	logger    *log.Logger
}

const (
	defaultUserAgent = "tick/0.1"
	requestTimeout   = 10 * time.Second
)

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	endpoint, err := parseEndpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}
	var realtime *url.URL
	if strings.TrimSpace(opts.RealtimeEndpoint) != "" {
		realtime, err = url.Parse(strings.TrimSpace(opts.RealtimeEndpoint))
		if err != nil {
			return nil, fmt.Errorf("parse realtime endpoint %q: %w", opts.RealtimeEndpoint, err)
		}
	} else {
		realtime = RealtimeURL(endpoint)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Client{
		endpoint: endpoint,
		realtime: realtime,
		http:     &http.Client{Timeout: timeout},
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
			Subprotocols:     []string{"graphql-ws"},
		},
		apiKey:    strings.TrimSpace(opts.APIKey),
		token:     strings.TrimSpace(opts.Token),
		userAgent: userAgent,
		logger:    logger,
	}, nil
}

// ListTodos reads every todo.
func (c *Client) ListTodos(ctx context.Context) ([]todo.Item, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var conn TodoConnection
	if err := c.do(ctx, opListTodos, nil, &conn); err != nil {
		return nil, err
	}
	return conn.Items, nil
}

// CreateTodo creates item and returns the stored record.
func (c *Client) CreateTodo(ctx context.Context, item todo.Item) (todo.Item, error) {
	if c == nil {
		return todo.Item{}, fmt.Errorf("client is nil")
	}
	var out todo.Item
	vars := map[string]any{"input": createInput(item)}
	if err := c.do(ctx, opCreateTodo, vars, &out); err != nil {
		return todo.Item{}, err
	}
	return out, nil
}

// UpdateTodo sends the full record and returns the stored one.
func (c *Client) UpdateTodo(ctx context.Context, item todo.Item) (todo.Item, error) {
	if c == nil {
		return todo.Item{}, fmt.Errorf("client is nil")
	}
	if item.ID == "" {
		return todo.Item{}, fmt.Errorf("update requires an id")
	}
	var out todo.Item
	vars := map[string]any{"input": updateInput(item)}
	if err := c.do(ctx, opUpdateTodo, vars, &out); err != nil {
		return todo.Item{}, err
	}
	return out, nil
}

// DeleteTodo removes the todo with id and returns the deleted record.
func (c *Client) DeleteTodo(ctx context.Context, id string) (todo.Item, error) {
	if c == nil {
		return todo.Item{}, fmt.Errorf("client is nil")
	}
	if id == "" {
		return todo.Item{}, fmt.Errorf("delete requires an id")
	}
	var out todo.Item
	vars := map[string]any{"input": DeleteTodoInput{ID: id}}
	if err := c.do(ctx, opDeleteTodo, vars, &out); err != nil {
		return todo.Item{}, err
	}
	return out, nil
}

// do posts op and decodes the operation's field of the data object into dest.
func (c *Client) do(ctx context.Context, op operation, vars map[string]any, dest any) error {
	body, err := json.Marshal(Request{Query: op.document, OperationName: op.name, Variables: vars})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	for k, v := range c.authHeaders() {
		if k == "host" {
			continue
		}
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("api %s returned status %d", op.name, resp.StatusCode)
	}

	var envelope Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return &ResponseError{Operation: op.name, Errors: envelope.Errors}
	}
	return decodeField(envelope.Data, op.field, dest)
}

func decodeField(data json.RawMessage, field string, dest any) error {
	if dest == nil {
		return nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	raw, ok := fields[field]
	if !ok || string(raw) == "null" {
		return fmt.Errorf("response has no %s", field)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", field, err)
	}
	return nil
}

// authHeaders returns the headers identifying this client, including host,
// which the realtime handshake needs.
func (c *Client) authHeaders() map[string]string {
	h := map[string]string{"host": c.endpoint.Host}
	if c.apiKey != "" {
		h["x-api-key"] = c.apiKey
	}
	if c.token != "" {
		h["Authorization"] = c.token
	}
	return h
}

func parseEndpoint(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("graphql endpoint is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("endpoint %q has no host", raw)
	}
	if u.Path == "" {
		u.Path = "/graphql"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// RealtimeURL derives the websocket endpoint from the HTTP one. Managed
// AppSync hosts swap appsync-api for appsync-realtime-api; any other host
// serves realtime under <path>/realtime.
func RealtimeURL(endpoint *url.URL) *url.URL {
	u := *endpoint
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	if strings.Contains(u.Host, ".appsync-api.") {
		u.Host = strings.Replace(u.Host, ".appsync-api.", ".appsync-realtime-api.", 1)
	} else {
		u.Path = strings.TrimSuffix(u.Path, "/") + "/realtime"
	}
	u.RawQuery = ""
	return &u
}
