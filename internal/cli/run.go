package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/ntrode"
	"github.com/aretw0/ntrode/internal/config"
	httpAdapter "github.com/aretw0/ntrode/pkg/adapters/http"
	"github.com/aretw0/ntrode/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	ConfigPath string
	LogLevel   string
	LogFile    string
	HTTPAddr   string // Status API and /metrics; empty disables the server
	FailFast   bool
	Quiet      bool // No banner or system messages
	Output     io.Writer

	// Listening, when set, receives the bound address of the HTTP server.
	Listening func(addr net.Addr)
}

// Execute handles the 'run' command: it loads the configuration, builds one
// container per entry and supervises them until they finish or ctx is done.
func Execute(ctx context.Context, opts RunOptions) error {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.LogLevel == "" {
		opts.LogLevel = "info"
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	logger, closer, err := createLogger(opts.LogLevel, opts.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	reg, client := newRegistry(cfg, filepath.Dir(opts.ConfigPath))
	if client != nil {
		defer client.Close()
	}
	if err := checkHandlers(cfg, reg); err != nil {
		return err
	}

	tracker := observability.NewTracker()
	metrics := observability.NewMetrics("")
	server := httpAdapter.NewServer(tracker, logger)
	hooks := tracker.Hooks().
		Merge(metrics.Hooks()).
		Merge(server.Hooks()).
		Merge(observability.Logging(logger))

	containers, err := createContainers(cfg, reg, logger, hooks)
	if err != nil {
		return err
	}
	for _, n := range containers {
		tracker.Track(n.Name())
	}

	if !opts.Quiet {
		PrintBanner(opts.Output, ntrode.Version)
		printSystemMessage(opts.Output, "running %d ntrode(s) from %s", len(containers), opts.ConfigPath)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Timeout))
		defer cancel()
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stopServer := context.WithCancel(gctx)
	defer stopServer()

	if opts.HTTPAddr != "" {
		promReg := prometheus.NewRegistry()
		promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if err := metrics.Register(promReg); err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		router := server.Handler()
		router.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))

		ln, err := net.Listen("tcp", opts.HTTPAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", opts.HTTPAddr, err)
		}
		if opts.Listening != nil {
			opts.Listening(ln.Addr())
		}
		logger.Info("status server listening", "addr", ln.Addr().String())
		g.Go(func() error {
			return serve(runCtx, &http.Server{Handler: router}, ln, logger)
		})
	}

	g.Go(func() error {
		defer stopServer()
		return Supervise(gctx, containers, opts.FailFast, logger)
	})

	err = g.Wait()
	if !opts.Quiet {
		printSystemMessage(opts.Output, "%s", summary(tracker, err))
	}
	return err
}

// serve runs srv on ln until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *slog.Logger) error {
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("status server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown did not complete", "err", err)
		srv.Close()
	}
	if err := <-serverErrors; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("status server: %w", err)
	}
	return nil
}

func summary(tracker *observability.Tracker, err error) string {
	var cycles uint64
	statuses := tracker.List()
	for _, s := range statuses {
		cycles += s.Cycles
	}
	if err != nil {
		return fmt.Sprintf("stopped with errors after %d cycles across %d ntrode(s)", cycles, len(statuses))
	}
	return fmt.Sprintf("done: %d cycles across %d ntrode(s)", cycles, len(statuses))
}
