package app

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"optionsgateway/internal/config"
	"optionsgateway/internal/httpx"
	"optionsgateway/internal/marketdata"
	"optionsgateway/internal/mode"
	"optionsgateway/internal/provider"
	"optionsgateway/internal/provider/ratelimit"
	"optionsgateway/internal/provider/strategy"
	"optionsgateway/internal/provider/theta"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNew_MockMode(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.MarketData.Mode = "mock"

	a, err := New(cfg, discard())
	require.NoError(t, err)

	exps, err := a.Service.GetExpirations(t.Context(), "SPY")
	require.NoError(t, err)
	require.Equal(t, mode.Mock, a.Service.Mode())
	require.NotEmpty(t, exps)
	require.Equal(t, strategy.Selection{Options: provider.IDMassive, Quotes: provider.IDEODHD}, a.Factory.Selection())
}

func TestNew_RejectsInvalidSelectors(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.MarketData.Mode = "sometimes"
	_, err := New(cfg, discard())
	require.ErrorIs(t, err, mode.ErrInvalidMode)

	cfg = config.Default()
	cfg.MarketData.OptionsProvider = "eodhd"
	_, err = New(cfg, discard())
	require.ErrorIs(t, err, strategy.ErrInvalidSelection)
}

func TestBuilder(t *testing.T) {
	t.Parallel()

	a, err := New(config.Default(), discard())
	require.NoError(t, err)
	b := &builder{cfg: a.Config, http: httpx.New(time.Second), logger: discard()}

	p, err := b.build(provider.IDTheta)
	require.NoError(t, err)
	require.IsType(t, &theta.Provider{}, p, "theta is not throttled by default")

	for _, id := range []provider.ID{provider.IDMassive, provider.IDEODHD} {
		p, err := b.build(id)
		require.NoError(t, err)
		require.IsType(t, &ratelimit.Limited{}, p)
		require.Equal(t, id, p.ID())
	}

	_, err = b.build(provider.IDComposed)
	require.ErrorIs(t, err, strategy.ErrInvalidSelection)
}

func TestLive_ThetaEndToEnd(t *testing.T) {
	t.Parallel()

	// Arrange: a fake terminal answering both roles.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/option/list/expirations":
			_, _ = io.WriteString(w, "expiration\n20990116\n2099-02-20\n")
		case "/stock/snapshot/quote":
			_, _ = io.WriteString(w, "last,bid,ask,change,change_percent\n450.5,450.4,450.6,1.2,0.27\n")
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.MarketData = config.MarketData{Mode: "live", OptionsProvider: "theta", QuotesProvider: "theta"}
	cfg.Theta.BaseURL = srv.URL
	a, err := New(cfg, discard())
	require.NoError(t, err)

	// Act
	exps, err := a.Service.GetExpirations(t.Context(), "SPY")
	require.NoError(t, err)
	_, err = a.Service.GetExpirations(t.Context(), "SPY")
	require.NoError(t, err)
	q, err := a.Service.GetUnderlyingQuote(t.Context(), "SPY")
	require.NoError(t, err)
	_, chainErr := a.Service.GetOptionChain(t.Context(), "SPY", "2099-01-16")

	// Assert
	require.Equal(t, []string{"2099-01-16", "2099-02-20"}, exps)
	require.Equal(t, 450.5, q.Last)
	require.EqualValues(t, 3, calls.Load(), "second expirations call is served from cache")
	require.Equal(t, http.StatusBadGateway, marketdata.HTTPStatus(chainErr))
	require.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.UpstreamRequests.WithLabelValues("theta", "expirations", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.UpstreamRequests.WithLabelValues("theta", "option-chain", "error")))
}

func TestLive_MassiveWithoutKeyIsAuth(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.MarketData.Mode = "live"
	a, err := New(cfg, discard())
	require.NoError(t, err)

	_, err = a.Service.GetExpirations(t.Context(), "SPY")

	var se *marketdata.ServiceError
	require.True(t, errors.As(err, &se))
	require.Equal(t, provider.ErrAuth, se.Type)
	require.Equal(t, provider.IDMassive, se.Provider)
	require.Equal(t, http.StatusUnauthorized, marketdata.HTTPStatus(err))
}
