// Package gateway is the console's remote persistence layer: a JSON-over-HTTP client for the
// records API. Every call is a single attempt; failures come back as *Error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/backoffice/internal/record"
	"github.com/MrJamesThe3rd/backoffice/internal/schema"
)

// Error is a failed gateway call: the transport failed or the server answered with a non-2xx
// status. It matches record.ErrNetwork, and also record.ErrNotFound or record.ErrValidation when
// the status says so.
type Error struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}

	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.StatusCode)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case record.ErrNetwork:
		return true
	case record.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case record.ErrValidation:
		return e.StatusCode == http.StatusUnprocessableEntity
	}

	return false
}

type Client struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New returns a client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.token
}

// SetToken replaces the bearer token sent with every request. An empty token sends none.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}

	var resp struct {
		Token string `json:"token"`
	}

	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body, &resp); err != nil {
		return "", err
	}

	c.SetToken(resp.Token)

	return resp.Token, nil
}

// Modules lists the module definitions the server serves.
func (c *Client) Modules(ctx context.Context) ([]*schema.Module, error) {
	var out []*schema.Module
	if err := c.do(ctx, http.MethodGet, "/api/v1/modules", nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

// Records returns the backend for one module's records.
func (c *Client) Records(module string) *Records {
	return &Records{client: c, module: module}
}

// Records implements record.Backend and record.ItemBackend against
// {base}/api/v1/modules/{module}/records.
type Records struct {
	client *Client
	module string
}

var (
	_ record.Backend     = (*Records)(nil)
	_ record.ItemBackend = (*Records)(nil)
)

func (r *Records) path(parts ...int64) string {
	p := "/api/v1/modules/" + url.PathEscape(r.module) + "/records"
	for _, id := range parts {
		p += "/" + strconv.FormatInt(id, 10)
	}

	return p
}

func (r *Records) Fetch(ctx context.Context) ([]record.Record, error) {
	var out []record.Record
	if err := r.client.do(ctx, http.MethodGet, r.path(), nil, &out); err != nil {
		return nil, err
	}

	for i := range out {
		out[i].Module = r.module
	}

	return out, nil
}

func (r *Records) Create(ctx context.Context, rec record.Record) (record.Record, error) {
	rec.ID = 0

	var out record.Record
	if err := r.client.do(ctx, http.MethodPost, r.path(), rec, &out); err != nil {
		return record.Record{}, err
	}

	out.Module = r.module

	return out, nil
}

func (r *Records) Update(ctx context.Context, id int64, rec record.Record) (record.Record, error) {
	var out record.Record
	if err := r.client.do(ctx, http.MethodPut, r.path(id), rec, &out); err != nil {
		return record.Record{}, err
	}

	out.Module = r.module

	return out, nil
}

func (r *Records) Delete(ctx context.Context, id int64) error {
	return r.client.do(ctx, http.MethodDelete, r.path(id), nil, nil)
}

func (r *Records) CreateItem(ctx context.Context, parentID int64, item record.LineItem) (record.LineItem, error) {
	var out record.LineItem
	if err := r.client.do(ctx, http.MethodPost, r.path(parentID)+"/items", item, &out); err != nil {
		return record.LineItem{}, err
	}

	return out, nil
}

func (r *Records) DeleteItem(ctx context.Context, parentID, itemID int64) error {
	return r.client.do(ctx, http.MethodDelete, r.path(parentID)+"/items/"+strconv.FormatInt(itemID, 10), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	target := c.baseURL + path
	fail := func(status int, msg string, err error) error {
		return &Error{Method: method, URL: target, StatusCode: status, Message: msg, Err: err}
	}

	var body io.Reader

	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}

		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fail(0, "", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(resp.StatusCode, errorMessage(resp.Body), nil)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fail(resp.StatusCode, "", fmt.Errorf("decoding response: %w", err))
	}

	return nil
}

func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}

	var body struct {
		Error string `json:"error"`
	}

	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return body.Error
	}

	return strings.TrimSpace(string(data))
}

// IsUnauthorized reports whether err is a gateway error carrying 401.
func IsUnauthorized(err error) bool {
	var gerr *Error
	return errors.As(err, &gerr) && gerr.StatusCode == http.StatusUnauthorized
}
