package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/frk/httpmock"
	"github.com/frk/httpmock/internal/config"
	"github.com/frk/httpmock/internal/logging"
	"github.com/frk/httpmock/mockdoc"
	"github.com/frk/httpmock/mockfile"
	"github.com/frk/httpmock/pizzamock"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the storefront's API from mocks",
		Long: `Serve the storefront's API from mocks.

Without --fixtures the built-in stateful backend is served. Requests that no
route fulfills are forwarded to --upstream, if set, and fail otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(config.LoadOptions{
				ConfigPath: configPath,
				FlagOverrides: flagOverrides(cmd, map[string]string{
					"log-level":  "log_level",
					"offline":    "offline",
					"addr":       "serve.addr",
					"fixtures":   "serve.fixtures",
					"upstream":   "serve.upstream",
					"transcript": "serve.transcript",
					"record":     "serve.record",
				}),
			})
			if err != nil {
				return err
			}

			opts := logging.DefaultOptions()
			opts.Level = cfg.LogLevel
			opts.Output = cmd.ErrOrStderr()
			logger := logging.New(opts)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, func(addr string) {
				fmt.Fprintf(cmd.OutOrStdout(), "serving on http://%s\n", addr)
			})
		},
	}
	cmd.Flags().String("addr", "", "address to listen on (default localhost:3000)")
	cmd.Flags().String("fixtures", "", "mock file with the routes to serve")
	cmd.Flags().String("upstream", "", "URL of the backend to forward unmatched requests to")
	cmd.Flags().String("transcript", "", "write an html transcript of the exchanges to this file on shutdown")
	cmd.Flags().String("record", "", "write a mock file replaying the exchanges to this file on shutdown")
	cmd.Flags().Bool("offline", false, "fail requests that no route fulfills")
	return cmd
}

// newRouter returns the Router serving the configured routes.
func newRouter(cfg config.Config, logger *log.Logger) (*httpmock.Router, error) {
	opts := []httpmock.Option{httpmock.WithLogger(logger)}
	if cfg.Offline {
		opts = append(opts, httpmock.Offline())
	}
	if cfg.Serve.Upstream != "" {
		u, err := url.Parse(cfg.Serve.Upstream)
		if err != nil {
			return nil, err
		}
		opts = append(opts, httpmock.WithUpstream(u))
	}

	if cfg.Serve.Fixtures == "" {
		r := httpmock.NewRouter(opts...)
		pizzamock.NewBackend().Install(r)
		return r, nil
	}

	f, err := mockfile.Load(cfg.Serve.Fixtures)
	if err != nil {
		return nil, err
	}
	r := httpmock.NewRouter(append(opts, f.Options()...)...)
	f.Install(r)
	logger.Info("routes loaded", "file", cfg.Serve.Fixtures, "routes", len(f.Routes))
	return r, nil
}

// serve serves the configured routes until ctx is done. The ready func
// is invoked with the address of the listener once it accepts connections.
func serve(ctx context.Context, cfg config.Config, logger *log.Logger, ready func(addr string)) error {
	r, err := newRouter(cfg, logger)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", cfg.Serve.Addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: allowCORS(r), ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	logger.Info("listening", "addr", ln.Addr().String())
	if ready != nil {
		ready(ln.Addr().String())
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		logger.Warn("shutdown", "err", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return writeReports(cfg, r, logger)
}

func writeReports(cfg config.Config, r *httpmock.Router, logger *log.Logger) error {
	if name := cfg.Serve.Transcript; name != "" {
		if err := mockdoc.WriteFile(name, mockdoc.FromRouter("pizzamock", r)); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
		logger.Info("transcript written", "file", name)
	}
	if name := cfg.Serve.Record; name != "" {
		f, err := os.Create(name)
		if err != nil {
			return fmt.Errorf("write recording: %w", err)
		}
		if err := mockfile.Record(r.Exchanges()).Encode(f); err != nil {
			f.Close()
			return fmt.Errorf("write recording: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		logger.Info("recording written", "file", name)
	}
	if n := len(r.Failures()); n > 0 {
		logger.Warn("served with failures", "count", n)
	}
	return nil
}
