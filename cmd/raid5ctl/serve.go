package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mdraid5/raid5vol/internal/blockfile"
	"github.com/mdraid5/raid5vol/internal/devicewatch"
	"github.com/mdraid5/raid5vol/internal/raid"
	"github.com/mdraid5/raid5vol/internal/statusstream"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd() *cobra.Command {
	var metricsAddr, streamAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the array with its background services: metrics, status stream, device watcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := devicePaths()
			if err != nil {
				return err
			}

			v, set, status, err := openExisting(paths, sectorsFlag)
			if err != nil {
				return err
			}
			defer set.Close()
			if status == raid.Failed {
				return fmt.Errorf("array failed to assemble, refusing to serve")
			}

			return serve(cmd.Context(), v, set, paths, metricsAddr, streamAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", envOrDefault("RAID5_METRICS_ADDR", ":9115"), "Prometheus /metrics listen address")
	cmd.Flags().StringVar(&streamAddr, "stream-addr", envOrDefault("RAID5_STREAM_ADDR", ":9116"), "status stream websocket listen address")
	return cmd
}

// serve runs the volume's ambient services — metrics, status stream, and
// a device-file watcher that triggers resync on an offline replacement —
// concurrently under one errgroup, the same shape as
// cmd/pulse-host-agent's run(): signal-derived context, g.Go per service,
// g.Wait() to join, a final clean Stop() to persist the array's
// generation counter once every service has wound down.
func serve(ctx context.Context, v *raid.Volume, set *blockfile.Set, paths []string, metricsAddr, streamAddr string) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	metricsSrv := newMetricsServer(metricsAddr, v)
	g.Go(func() error {
		return runHTTPServer(ctx, metricsSrv, "metrics")
	})

	streamSrv := statusstream.NewServer(&log)
	source := statusstream.VolumeSource{Volume: v}
	streamMux := http.NewServeMux()
	streamMux.HandleFunc("/stream", func(w http.ResponseWriter, r *http.Request) {
		streamSrv.ServeHTTP(w, r, source)
	})
	streamHTTPSrv := &http.Server{Addr: streamAddr, Handler: streamMux}
	g.Go(func() error {
		return runHTTPServer(ctx, streamHTTPSrv, "status_stream")
	})

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	dir := "."
	if len(paths) > 0 {
		dir = filepath.Dir(paths[0])
	}
	watcher := devicewatch.New(dir, names, &log)
	g.Go(func() error {
		return watcher.Run(ctx)
	})

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case name := <-watcher.Replacements():
				log.Info().Str("device", name).Msg("resync candidate detected, attempting resync")
				result := v.Resync()
				log.Info().Str("device", name).Str("status", result.String()).Msg("resync attempt finished")
			}
		}
	})

	log.Info().Str("metrics_addr", metricsAddr).Str("stream_addr", streamAddr).Msg("raid5ctl serve started")

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Warn().Err(err).Msg("serve: a background service returned an error")
	}

	log.Info().Str("status", v.Stop().String()).Msg("serve stopped, generation persisted")
	return nil
}

func runHTTPServer(ctx context.Context, srv *http.Server, component string) error {
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Str("component", component).Msg("server shutdown failed")
		}
	}()

	log.Info().Str("component", component).Str("addr", srv.Addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%s server: %w", component, err)
	}
	return nil
}
