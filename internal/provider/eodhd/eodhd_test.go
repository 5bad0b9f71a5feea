package eodhd_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"optionsgateway/internal/provider"
	"optionsgateway/internal/provider/eodhd"
)

func newServer(t *testing.T, h http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func asProviderError(t *testing.T, err error, want provider.ErrorType) *provider.Error {
	t.Helper()
	var pe *provider.Error
	require.True(t, errors.As(err, &pe), "want *provider.Error, got %T: %v", err, err)
	require.Equal(t, provider.IDEODHD, pe.Provider)
	require.Equal(t, want, pe.Type)
	return pe
}

func TestGetUnderlyingQuote(t *testing.T) {
	t.Parallel()

	// Arrange
	var gotQuery string
	srv, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if r.URL.Path != "/api/us-quote-delayed" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"meta":{"count":1},"data":{"AAPL.US":{"symbol":"AAPL.US",
			"lastTradePrice":180.5,"bidPrice":180.4,"askPrice":180.6,"change":-1.2,"changePercent":-0.66}}}`))
	})
	p := eodhd.New(eodhd.Config{BaseURL: srv.URL + "/api/", APIKey: " secret "}, nil, nil)

	// Act
	q, err := p.GetUnderlyingQuote(t.Context(), "aapl")

	// Assert
	require.NoError(t, err)
	require.Equal(t, "api_token=secret&fmt=json&s=AAPL.US", gotQuery)
	require.Equal(t, provider.UnderlyingQuote{
		Symbol: "aapl", Last: 180.5, Bid: 180.4, Ask: 180.6, Change: -1.2, ChangePercent: -0.66,
	}, q)
}

func TestOptionEndpointsAreValidationErrors(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, func(w http.ResponseWriter, _ *http.Request) {})
	p := eodhd.New(eodhd.Config{BaseURL: srv.URL, APIKey: "k"}, nil, nil)

	_, err := p.GetExpirations(t.Context(), "SPY")
	pe := asProviderError(t, err, provider.ErrValidation)
	require.Equal(t, provider.EndpointExpirations, pe.Endpoint)

	_, err = p.GetOptionChain(t.Context(), "SPY", "2030-01-18")
	pe = asProviderError(t, err, provider.ErrValidation)
	require.Equal(t, provider.EndpointOptionChain, pe.Endpoint)
	require.Equal(t, "2030-01-18", pe.Expiration)

	require.Zero(t, calls.Load())
}

func TestMissingKeyIsAuthWithoutRequest(t *testing.T) {
	t.Parallel()

	srv, calls := newServer(t, func(w http.ResponseWriter, _ *http.Request) {})
	p := eodhd.New(eodhd.Config{BaseURL: srv.URL, APIKey: "   "}, nil, nil)

	_, err := p.GetUnderlyingQuote(t.Context(), "SPY")

	asProviderError(t, err, provider.ErrAuth)
	require.Zero(t, calls.Load())
}

func TestFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		want   provider.ErrorType
	}{
		{name: "forbidden", status: http.StatusForbidden, body: "bad token", want: provider.ErrAuth},
		{name: "throttled", status: http.StatusTooManyRequests, want: provider.ErrRateLimit},
		{name: "server", status: http.StatusServiceUnavailable, body: strings.Repeat("x", 500), want: provider.ErrHTTP},
		{name: "bad json", status: http.StatusOK, body: "{", want: provider.ErrParse},
		{name: "missing record", status: http.StatusOK, body: `{"data":{"MSFT.US":{}}}`, want: provider.ErrParse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv, _ := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			p := eodhd.New(eodhd.Config{BaseURL: srv.URL, APIKey: "k"}, nil, nil)

			_, err := p.GetUnderlyingQuote(t.Context(), "SPY")

			pe := asProviderError(t, err, tc.want)
			if tc.status >= 300 {
				require.Equal(t, tc.status, pe.Metadata["status"])
				if tc.body != "" {
					require.Len(t, pe.Metadata["body_snippet"], min(200, len(tc.body)))
				}
			}
		})
	}
}

func TestNetworkErrorHidesToken(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"topsecret", "abc+def/ghi="} {
		t.Run(token, func(t *testing.T) {
			t.Parallel()

			// Arrange: nothing listens on the base URL.
			srv := httptest.NewServer(http.NotFoundHandler())
			base := srv.URL
			srv.Close()
			p := eodhd.New(eodhd.Config{BaseURL: base, APIKey: token}, nil, nil)

			// Act
			_, err := p.GetUnderlyingQuote(t.Context(), "SPY")

			// Assert: neither the raw nor the query-escaped token survives.
			pe := asProviderError(t, err, provider.ErrNetwork)
			for _, leaked := range []string{token, url.QueryEscape(token)} {
				require.NotContains(t, pe.Cause.Error(), leaked)
				require.NotContains(t, fmt.Sprintf("%v", err), leaked)
				for cause := errors.Unwrap(pe.Cause); cause != nil; cause = errors.Unwrap(cause) {
					require.NotContains(t, cause.Error(), leaked)
				}
			}
			require.Contains(t, pe.Cause.Error(), "REDACTED")
		})
	}
}
