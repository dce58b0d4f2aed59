// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     cmd
// Description: Live recording and transcription command
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/msto63/livescribe/internal/audio"
	"github.com/msto63/livescribe/internal/events"
	"github.com/msto63/livescribe/internal/metrics"
	"github.com/msto63/livescribe/internal/service"
	"github.com/msto63/livescribe/pkg/core/health"
	"github.com/msto63/livescribe/pkg/core/logging"
	"github.com/msto63/livescribe/pkg/core/version"
)

var (
	recordDuration time.Duration
	recordListen   string
	recordPersist  bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record from the microphone and transcribe live",
	Long: `Captures audio from the configured input device and prints the
transcription of every captured chunk. Stops on Ctrl-C, after --duration,
or when the session reaches its maximum duration.

With a listen address, events are streamed as JSON on /ws and Prometheus
metrics are served on /metrics.`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().DurationVarP(&recordDuration, "duration", "d", 0, "stop after this duration (0 = until Ctrl-C)")
	recordCmd.Flags().StringVar(&recordListen, "listen", "", "HTTP address for /ws and /metrics (overrides config)")
	recordCmd.Flags().BoolVar(&recordPersist, "persist", false, "write the captured audio to a WAV file")
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		printError("could not load config", err)
		return err
	}
	if recordListen != "" {
		cfg.Server.Listen = recordListen
	}
	if recordPersist {
		cfg.Recording.Persist = true
	}
	logger := logging.New("record")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	listeners := events.Multi{events.NewConsole(cmd.OutOrStdout(), cmd.ErrOrStderr())}
	var hub *events.Hub
	if cfg.Server.Listen != "" {
		hub = events.NewHub()
		listeners = append(listeners, hub)
	}

	svc, err := service.FromConfig(cfg, service.Options{Listener: listeners, Metrics: m})
	if err != nil {
		printError("could not create service", err)
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := svc.Close(closeCtx); err != nil {
			logger.Warn("Shutdown incomplete", "error", err)
		}
		if hub != nil {
			hub.Close()
		}
	}()

	svc.OnStateChange(func(from, to audio.State) {
		logger.Debug("Recorder state changed", "from", from.String(), "to", to.String())
	})

	if err := svc.LoadModel(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if hub != nil {
		checks := health.NewRegistry("livescribe", version.Version)
		svc.RegisterHealthChecks(checks)
		srv := newHTTPServer(cfg.Server.Listen, hub, reg, checks)
		g.Go(func() error {
			logger.Info("HTTP server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer stop()
		return record(gctx, svc, logger)
	})

	return g.Wait()
}

// record runs one session until ctx ends, the duration elapses or the
// session ends on its own
func record(ctx context.Context, svc *service.Service, logger *logging.Logger) error {
	session, err := svc.Start(ctx)
	if err != nil {
		printError("could not start recording", err)
		return err
	}
	logger.Info("Recording", "session", session.ID, "file", session.SinkPath)

	var timeout <-chan time.Time
	if recordDuration > 0 {
		timer := time.NewTimer(recordDuration)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case <-ctx.Done():
	case <-timeout:
	case <-session.Done():
	}

	if err := svc.Stop(); err != nil {
		return err
	}
	logger.Info("Session finished",
		"session", session.ID,
		"reason", session.Reason().String(),
		"chunks", session.Chunks(),
		"duration", session.Duration().String())

	if err := session.Err(); err != nil {
		return err
	}
	return nil
}

func newHTTPServer(addr string, hub *events.Hub, reg *prometheus.Registry, checks *health.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.Handle("/health", checks.Handler(2*time.Second))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
