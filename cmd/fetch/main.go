// fetch queries the market data service once and prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"optionsgateway/internal/app"
	"optionsgateway/internal/chain"
	"optionsgateway/internal/config"
	"optionsgateway/internal/logging"
)

type options struct {
	configPath string
	mode       string
	timeout    time.Duration
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "fetch",
		Short:         "Query option expirations, chains and quotes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("CONFIG_FILE"), "path to a config file (optional)")
	root.PersistentFlags().StringVar(&opts.mode, "mode", "", "data mode override: auto, live or mock")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "overall timeout")

	root.AddCommand(
		&cobra.Command{
			Use:   "expirations SYMBOL",
			Short: "List upcoming expirations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, opts, func(ctx context.Context, a *app.App) (any, error) {
					return a.Service.GetExpirations(ctx, normalize(args[0]))
				})
			},
		},
		&cobra.Command{
			Use:   "chain SYMBOL EXPIRATION",
			Short: "Print the option chain for one expiration, sorted by strike",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if _, err := time.Parse(time.DateOnly, args[1]); err != nil {
					return fmt.Errorf("expiration must be YYYY-MM-DD: %q", args[1])
				}
				return run(cmd, opts, func(ctx context.Context, a *app.App) (any, error) {
					c, err := a.Service.GetOptionChain(ctx, normalize(args[0]), args[1])
					if err != nil {
						return nil, err
					}
					return chain.SortByStrike(c), nil
				})
			},
		},
		&cobra.Command{
			Use:   "quote SYMBOL",
			Short: "Print the underlying quote",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, opts, func(ctx context.Context, a *app.App) (any, error) {
					return a.Service.GetUnderlyingQuote(ctx, normalize(args[0]))
				})
			},
		},
		&cobra.Command{
			Use:   "stats",
			Short: "Print the resolved mode, provider selection and cache counters",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, opts, func(_ context.Context, a *app.App) (any, error) {
					sel := a.Factory.Selection()
					return map[string]any{
						"mode":             a.Service.Mode(),
						"options_provider": sel.Options,
						"quotes_provider":  sel.Quotes,
						"cache":            a.Service.CacheStats(),
					}, nil
				})
			},
		},
	)
	return root
}

// run builds the app from config and flags, calls fn and prints its result.
// Logs go to stderr so stdout stays machine readable.
func run(cmd *cobra.Command, opts *options, fn func(context.Context, *app.App) (any, error)) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if opts.mode != "" {
		cfg.MarketData.Mode = opts.mode
	}
	logger := logging.NewWithWriter(app.LoggingConfig(cfg.Log), cmd.ErrOrStderr())

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()
	v, err := fn(ctx, a)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func normalize(symbol string) string { return strings.ToUpper(strings.TrimSpace(symbol)) }
