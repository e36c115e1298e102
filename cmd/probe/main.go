// Command probe queries a running starter server from the terminal.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/okian/starter/internal/apiclient"
	"github.com/okian/starter/internal/loadtest"
	"github.com/okian/starter/pkg/logger"
)

const (
	defaultURL           = "http://localhost:3001"
	envURL               = "STARTER_PROBE_URL"
	defaultRequests      = 1000
	defaultWorkersPerCPU = 2
)

var errUnhealthy = errors.New("service unhealthy")

type options struct {
	url     string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "probe",
		Short: "Query a starter API server",
		Long: `probe calls the starter HTTP API and prints the JSON responses.

The server URL defaults to $STARTER_PROBE_URL, then ` + defaultURL + `.`,
		SilenceUsage: true,
	}

	url := os.Getenv(envURL)
	if url == "" {
		url = defaultURL
	}
	root.PersistentFlags().StringVar(&opts.url, "url", url, "base URL of the server")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", apiclient.DefaultTimeout, "per-request timeout")

	root.AddCommand(
		&cobra.Command{
			Use:   "hello",
			Short: "Fetch the greeting from /api/hello",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withClient(cmd, opts, func(ctx context.Context, c *apiclient.Client) (any, error) {
					return c.Hello(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "health",
			Short: "Fetch service health from /api/health",
			Long:  "Fetch service health from /api/health. Exits non-zero when the service reports an error.",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withClient(cmd, opts, func(ctx context.Context, c *apiclient.Client) (any, error) {
					h, err := c.Health(ctx)
					if err != nil {
						return nil, err
					}
					if !h.Healthy() {
						return h, fmt.Errorf("%w: status %q", errUnhealthy, h.Status)
					}
					return h, nil
				})
			},
		},
		&cobra.Command{
			Use:   "info",
			Short: "Fetch service metadata from /api/info",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withClient(cmd, opts, func(ctx context.Context, c *apiclient.Client) (any, error) {
					return c.Info(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "example [id]",
			Short: "Fetch the example index, or one example by id",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(cmd, opts, func(ctx context.Context, c *apiclient.Client) (any, error) {
					if len(args) == 0 {
						return c.Examples(ctx)
					}
					return c.Example(ctx, args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "all",
			Short: "Fetch hello, health and info concurrently",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withClient(cmd, opts, fetchAll)
			},
		},
		newLoadCmd(opts),
	)

	return root
}

func newLoadCmd(opts *options) *cobra.Command {
	cfg := loadtest.Config{}
	var verbose bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Send concurrent requests and report latency percentiles",
		Long: `Send --requests requests to one endpoint over --workers workers after a
health check, then print success counts and p50/p95/p99 latency as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			if !verbose {
				logger.SetLevel(slog.LevelWarn)
			}

			cfg.BaseURL = opts.url
			cfg.Timeout = opts.timeout
			stats, err := loadtest.Run(cmd.Context(), cfg, logger.Named("load"))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stats)
		},
	}

	cmd.Flags().IntVarP(&cfg.Requests, "requests", "n", defaultRequests, "total requests to send")
	cmd.Flags().IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU()*defaultWorkersPerCPU, "concurrent workers")
	cmd.Flags().StringVar(&cfg.Target, "target", loadtest.TargetHello, "endpoint to hit: hello, health or example")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")
	return cmd
}

// fetchAll runs the read-only calls in parallel and fails on the first error.
func fetchAll(ctx context.Context, c *apiclient.Client) (any, error) {
	var out struct {
		Hello  any `json:"hello"`
		Health any `json:"health"`
		Info   any `json:"info"`
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := c.Hello(gctx)
		out.Hello = v
		return err
	})
	g.Go(func() error {
		v, err := c.Health(gctx)
		out.Health = v
		return err
	})
	g.Go(func() error {
		v, err := c.Info(gctx)
		out.Info = v
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func withClient(cmd *cobra.Command, opts *options, call func(context.Context, *apiclient.Client) (any, error)) error {
	c, err := apiclient.New(opts.url, apiclient.WithTimeout(opts.timeout))
	if err != nil {
		return err
	}

	v, err := call(cmd.Context(), c)
	if err == nil || errors.Is(err, errUnhealthy) {
		if perr := printJSON(cmd.OutOrStdout(), v); perr != nil {
			return perr
		}
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
