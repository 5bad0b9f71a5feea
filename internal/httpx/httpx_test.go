package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"optionsgateway/internal/httpx"
)

func TestClient_DefaultHeaders(t *testing.T) {
	t.Parallel()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	c := httpx.New(time.Second)
	c.Headers = map[string]string{"X-Team": "desk", "Accept": "text/plain"}

	resp, err := c.Get(t.Context(), srv.URL, map[string]string{"Accept": "application/json"})
	require.NoError(t, err)
	_ = resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "optionsgateway/1.0", got.Get("User-Agent"))
	require.Equal(t, "desk", got.Get("X-Team"))
	require.Equal(t, "application/json", got.Get("Accept"), "request headers win over defaults")
}
