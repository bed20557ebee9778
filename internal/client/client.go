// Package client is the HTTP bridge between the table state machine and the
// employee directory service. Each call maps 1:1 onto one store operation;
// there is no retry, batching or caching at this layer.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okramsen/staffdir/internal/employee"
)

// Client performs the remote record operations against a directory server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, e.g. to change the
// per-request timeout.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a client for the directory server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Create adds a new employee and returns it with its server-assigned id.
func (c *Client) Create(ctx context.Context, f employee.Fields) (employee.Employee, error) {
	var created employee.Employee
	if err := c.do(ctx, "create", http.MethodPost, "/employees", f, &created, nil); err != nil {
		return employee.Employee{}, err
	}
	return created, nil
}

// List fetches the full record set.
func (c *Client) List(ctx context.Context) ([]employee.Employee, error) {
	var list []employee.Employee
	if err := c.do(ctx, "list", http.MethodGet, "/employees", nil, &list, nil); err != nil {
		return nil, err
	}
	return list, nil
}

// Update merges a partial update onto the employee with the given id.
// A vanished id surfaces as ErrNotFound.
func (c *Client) Update(ctx context.Context, id string, p employee.Patch) (employee.Employee, error) {
	var updated employee.Employee
	err := c.do(ctx, "update", http.MethodPatch, "/employees/"+url.PathEscape(id), p, &updated, ErrNotFound)
	if err != nil {
		return employee.Employee{}, err
	}
	return updated, nil
}

// DeleteAll clears the directory. An already-empty directory surfaces as
// ErrNothingToDelete, distinct from a transport failure.
func (c *Client) DeleteAll(ctx context.Context) error {
	return c.do(ctx, "delete-all", http.MethodDelete, "/employees/all", nil, nil, ErrNothingToDelete)
}

// CheckEmail reports whether the server already has a record with this email.
func (c *Client) CheckEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	path := "/employees/check-email?email=" + url.QueryEscape(email)
	if err := c.do(ctx, "check-email", http.MethodGet, path, nil, &exists, nil); err != nil {
		return false, err
	}
	return exists, nil
}

// do performs one remote call. A 404 maps onto notFound when the caller
// supplied one; every other failure wraps into a *TransportError.
func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}, notFound error) error {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: op, Err: err}
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound && notFound != nil {
		return notFound
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := readErrorMessage(resp.Body)
		return &TransportError{Op: op, Err: fmt.Errorf("server returned %s: %s", resp.Status, msg)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	return nil
}

// readErrorMessage extracts the error field from a JSON error body, falling
// back to the raw body.
func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return "no response body"
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(raw))
}
