package massive

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
)

const DefaultBaseURL = "https://api.massive.com/v1"

const maxBody = 8 << 20

var (
	// ErrMissingKey is returned before any request is sent when no API key is configured.
	ErrMissingKey = errors.New("massive: MASSIVE_API_KEY is required when using the massive provider")
	// ErrDecode wraps a body that is not valid JSON.
	ErrDecode = errors.New("massive: decoding response")
	// ErrNoData is returned when a decodable payload carries no usable records.
	ErrNoData = errors.New("massive: response did not include any data")
)

// StatusError is a non-2xx answer from the API.
type StatusError struct {
	Code   int
	Status string
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("massive: unexpected status %d %s", e.Code, e.Status)
}

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=massive_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a client for the Massive market data API.
type Client struct {
	// baseURL is the base URL for the API, without a trailing slash.
	baseURL string
	// key is the bearer token sent with every request.
	key string
	// httpClient performs the requests.
	httpClient HTTPClient
	// header contains additional headers to be sent with each request.
	header http.Header
}

// ClientOption is a configuration option for the Massive API client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(httpClient HTTPClient) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) ClientOption {
	return func(c *Client) {
		for key, values := range header {
			for _, value := range values {
				c.header.Add(key, value)
			}
		}
	}
}

// NewClient creates a new Massive API client. An empty key is accepted
// here; every call then fails with ErrMissingKey.
func NewClient(key string, options ...ClientOption) (*Client, error) {
	c := &Client{
		baseURL:    DefaultBaseURL,
		key:        strings.TrimSpace(key),
		httpClient: http.DefaultClient,
		header:     http.Header{},
	}
	for _, option := range options {
		option(c)
	}
	if _, err := url.Parse(c.baseURL); err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	return c, nil
}

// results performs a GET and returns the record array of the envelope:
// a bare array, or an object carrying "results" or "data".
func (c *Client) results(ctx context.Context, path string, query url.Values) ([]any, error) {
	if c.key == "" {
		return nil, ErrMissingKey
	}

	q := url.Values{}
	for k, vs := range query {
		for _, v := range vs {
			if v != "" {
				q.Add(k, v)
			}
		}
	}
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header = c.header.Clone()
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("performing request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &StatusError{Code: res.StatusCode, Status: http.StatusText(res.StatusCode), Body: body}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return resultArray(payload), nil
}

func resultArray(payload any) []any {
	switch v := payload.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range []string{"results", "data"} {
			if arr, ok := v[key].([]any); ok {
				return arr
			}
		}
	}
	return nil
}
