package backend

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
)

// DefaultBaseURL is used when no base URL is configured
const DefaultBaseURL = "http://localhost:8000"

// TokenSource supplies the bearer token attached to each request. An empty
// token means the Authorization header is omitted.
type TokenSource interface {
	Get(ctx context.Context) (string, error)
}

// Observer is notified once per completed call; status is 0 when the request
// never got a response.
type Observer interface {
	ObserveBackendCall(method, route string, status int, elapsed time.Duration)
}

// Client is the gateway for every call the console makes to the automation
// backend
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	observer   Observer
}

// ClientOption is a function that configures the Client
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTokenSource sets where bearer tokens are read from
func WithTokenSource(tokens TokenSource) ClientOption {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithObserver sets a call observer, typically metrics
func WithObserver(o Observer) ClientOption {
	return func(c *Client) {
		c.observer = o
	}
}

// New creates a new backend API client
func New(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BaseURL returns the backend address requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// call describes one backend request. route is the path template used for
// metrics and error reports, path the concrete path.
type call struct {
	method string
	route  string
	path   string
	query  url.Values
	body   interface{}
}

func (cl call) endpoint() string {
	return cl.method + " " + cl.route
}

// validatable is implemented by response payloads that can check themselves
type validatable interface {
	Validate() error
}

// errorBody is the error envelope the backend returns on failures
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// do executes a call and decodes a 2xx body into out
func (c *Client) do(ctx context.Context, cl call, out interface{}) error {
	status := 0
	start := time.Now()
	defer func() {
		if c.observer != nil {
			c.observer.ObserveBackendCall(cl.method, cl.route, status, time.Since(start))
		}
	}()

	req, err := c.newRequest(ctx, cl)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Message: fmt.Sprintf("request to %s failed: %v", cl.route, err)}
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Status: resp.StatusCode, Message: fmt.Sprintf("reading response body: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, body)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Endpoint: cl.endpoint(), Err: err}
	}
	if v, ok := out.(validatable); ok {
		if err := v.Validate(); err != nil {
			return &DecodeError{Endpoint: cl.endpoint(), Err: err}
		}
	}

	return nil
}

// newRequest builds the HTTP request, attaching the bearer token if one is set
func (c *Client) newRequest(ctx context.Context, cl call) (*http.Request, error) {
	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return nil, &RequestError{Message: fmt.Sprintf("encoding request body: %v", err)}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, body)
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("creating request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Get(ctx)
		if err != nil {
			return nil, &RequestError{Message: fmt.Sprintf("reading auth token: %v", err)}
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

// errorMessage extracts the backend's detail text, falling back to a message
// carrying the status code when the body is absent or not the expected JSON.
func errorMessage(status int, body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		var detail string
		if err := json.Unmarshal(eb.Detail, &detail); err == nil && detail != "" {
			return detail
		}
	}
	return fmt.Sprintf("HTTP error! status: %d", status)
}

// validateEach checks every element of a list response
func validateEach[T validatable](endpoint string, items []T) error {
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return &DecodeError{Endpoint: endpoint, Err: fmt.Errorf("item %d: %w", i, err)}
		}
	}
	return nil
}

func idPath(format string, id int64) string {
	return fmt.Sprintf(format, id)
}

func accountQuery(accountID int64) url.Values {
	q := url.Values{}
	q.Set("account_id", fmt.Sprintf("%d", accountID))
	return q
}
