package strategy_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"optionsgateway/internal/provider"
	"optionsgateway/internal/provider/providermock"
	"optionsgateway/internal/provider/strategy"
)

func TestParseSelection(t *testing.T) {
	t.Parallel()

	cases := []struct {
		options, quotes string
		want            strategy.Selection
	}{
		{"", "", strategy.Selection{Options: provider.IDMassive, Quotes: provider.IDEODHD}},
		{" Theta ", "", strategy.Selection{Options: provider.IDTheta, Quotes: provider.IDEODHD}},
		{"theta", "THETA", strategy.Selection{Options: provider.IDTheta, Quotes: provider.IDTheta}},
		{"", "massive", strategy.Selection{Options: provider.IDMassive, Quotes: provider.IDMassive}},
	}
	for _, tc := range cases {
		got, err := strategy.ParseSelection(tc.options, tc.quotes)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}
}

func TestParseSelection_Invalid(t *testing.T) {
	t.Parallel()

	_, err := strategy.ParseSelection("eodhd", "")
	require.ErrorIs(t, err, strategy.ErrInvalidSelection)
	require.ErrorContains(t, err, "MARKET_DATA_PROVIDER")

	_, err = strategy.ParseSelection("theta", "yahoo")
	require.ErrorIs(t, err, strategy.ErrInvalidSelection)
	require.ErrorContains(t, err, "QUOTE_DATA_PROVIDER")
	require.ErrorContains(t, err, "valid options: eodhd, massive, theta")
}

func TestCompose_Routes(t *testing.T) {
	t.Parallel()

	// Arrange
	ctrl := gomock.NewController(t)
	options := providermock.NewMockProvider(ctrl)
	quotes := providermock.NewMockProvider(ctrl)
	chain := provider.OptionChain{Calls: []provider.OptionQuote{{Strike: 1, Right: provider.Call}}}
	failure := &provider.Error{Provider: provider.IDEODHD, Type: provider.ErrAuth}

	options.EXPECT().GetExpirations(gomock.Any(), "SPY").Return([]string{"2030-01-18"}, nil)
	options.EXPECT().GetOptionChain(gomock.Any(), "SPY", "2030-01-18").Return(chain, nil)
	quotes.EXPECT().GetUnderlyingQuote(gomock.Any(), "SPY").Return(provider.UnderlyingQuote{}, failure)

	c := strategy.Compose(options, quotes)

	// Act
	exps, err := c.GetExpirations(t.Context(), "SPY")
	require.NoError(t, err)
	gotChain, err := c.GetOptionChain(t.Context(), "SPY", "2030-01-18")
	require.NoError(t, err)
	_, quoteErr := c.GetUnderlyingQuote(t.Context(), "SPY")

	// Assert: results and errors pass through untouched.
	require.Equal(t, provider.IDComposed, c.ID())
	require.Equal(t, []string{"2030-01-18"}, exps)
	require.Equal(t, chain, gotChain)
	require.Same(t, failure, quoteErr)
}

func TestFactory_BuildsOnceAndSharesAdapter(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	var mu sync.Mutex
	built := map[provider.ID]int{}
	build := func(id provider.ID) (provider.Provider, error) {
		mu.Lock()
		defer mu.Unlock()
		built[id]++
		return providermock.NewMockProvider(ctrl), nil
	}
	f := strategy.NewFactory(strategy.Selection{Options: provider.IDTheta, Quotes: provider.IDTheta}, build)

	var wg sync.WaitGroup
	results := make([]provider.Provider, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := f.Active()
			if err == nil {
				results[i] = p
			}
		}()
	}
	wg.Wait()

	require.Equal(t, map[provider.ID]int{provider.IDTheta: 1}, built)
	for _, p := range results {
		require.Same(t, results[0], p)
	}
	composed, ok := results[0].(*strategy.Composed)
	require.True(t, ok)
	require.Same(t, composed.Options, composed.Quotes)
}

func TestFactory_DistinctAdapters(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	var order []provider.ID
	f := strategy.NewFactory(strategy.Selection{Options: provider.IDMassive, Quotes: provider.IDEODHD},
		func(id provider.ID) (provider.Provider, error) {
			order = append(order, id)
			return providermock.NewMockProvider(ctrl), nil
		})

	p, err := f.Active()

	require.NoError(t, err)
	require.Equal(t, []provider.ID{provider.IDMassive, provider.IDEODHD}, order)
	composed := p.(*strategy.Composed)
	require.NotSame(t, composed.Options, composed.Quotes)
}

func TestFactory_BuildErrorNotMemoized(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	calls := 0
	f := strategy.NewFactory(strategy.Selection{Options: provider.IDMassive, Quotes: provider.IDEODHD},
		func(id provider.ID) (provider.Provider, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("boom")
			}
			return providermock.NewMockProvider(ctrl), nil
		})

	_, err := f.Active()
	require.ErrorContains(t, err, "building massive provider")

	_, err = f.Active()
	require.NoError(t, err)
}

func TestFactory_OverrideAndReset(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	override := providermock.NewMockProvider(ctrl)
	builds := 0
	f := strategy.NewFactory(strategy.Selection{Options: provider.IDMassive, Quotes: provider.IDEODHD},
		func(provider.ID) (provider.Provider, error) {
			builds++
			return providermock.NewMockProvider(ctrl), nil
		},
		strategy.WithOverride(override))

	p, err := f.Active()
	require.NoError(t, err)
	require.Same(t, override, p)
	require.Zero(t, builds)

	replacement := providermock.NewMockProvider(ctrl)
	f.ResetForTesting(replacement)
	p, err = f.Active()
	require.NoError(t, err)
	require.Same(t, replacement, p)

	f.ResetForTesting(nil)
	p, err = f.Active()
	require.NoError(t, err)
	require.IsType(t, &strategy.Composed{}, p)
	require.Equal(t, 2, builds)
}
