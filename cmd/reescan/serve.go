package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arcticwatch/reescan/internal/cache"
	"github.com/arcticwatch/reescan/internal/deposit"
	"github.com/arcticwatch/reescan/internal/ingest"
	httpapi "github.com/arcticwatch/reescan/internal/interfaces/http"
	"github.com/arcticwatch/reescan/internal/score"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the ranking over a read-only HTTP API",
		Long:  "Runs an initial ingestion pass, then serves /api/v1/ranking, /api/v1/summary, /health, /metrics and a websocket ranking stream. With --refresh the sources are re-ingested periodically and updates pushed to websocket clients.",
		RunE:  runServe,
	}
	addSourceFlags(cmd.Flags())
	cmd.Flags().String("host", "", "Bind host (default: 127.0.0.1)")
	cmd.Flags().Int("port", 0, "Bind port (default: 8080 or HTTP_PORT)")
	cmd.Flags().Duration("refresh", 0, "Re-ingest interval (0 = never)")
	cmd.Flags().String("redis", "", "Redis address for snapshot cache (empty: skip cache)")
	cmd.Flags().Duration("cache-ttl", 24*time.Hour, "Snapshot cache TTL")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolvePipeline(cmd.Flags())
	if err != nil {
		return err
	}

	serverCfg := httpapi.DefaultServerConfig()
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		serverCfg.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		serverCfg.Port = port
	}

	state := httpapi.NewState()
	metrics := httpapi.NewMetricsRegistry()
	server := httpapi.NewServer(serverCfg, state, metrics)

	var snapCache *cache.SnapshotCache
	if addr, _ := cmd.Flags().GetString("redis"); addr != "" {
		ttl, _ := cmd.Flags().GetDuration("cache-ttl")
		snapCache = cache.New(addr, "", 0, ttl)
		defer snapCache.Close()
		server.AddHealthCheck("cache", snapCache.Healthy)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	normalizer := ingest.NewNormalizer(cfg.ingest.Bounds)
	engine := score.NewEngine(cfg.weights,
		score.WithChineseStakeThreshold(cfg.ingest.ChineseStakeThreshold))

	refresh := func() {
		start := time.Now()
		pass := normalizer.Ingest(ctx, cfg.sources...)

		// Serve deep copies only: the next pass mutates the live records
		// while handlers and the websocket hub are still encoding these.
		records := normalizer.SnapshotRecords()
		list := make([]*deposit.Record, 0, len(records))
		for _, rec := range records {
			list = append(list, rec)
		}

		snap := engine.BuildSnapshot(pass.BatchID, list)
		snap.Diagnostics = append(pass.Diagnostics, snap.Diagnostics...)
		metrics.ObservePass(pass.IngestedBySource, pass.Rejected)
		metrics.ObserveSnapshot(len(snap.Ranking), time.Since(start).Seconds())

		state.Update(snap, records)

		if snapCache != nil {
			if err := snapCache.StoreLatest(ctx, snap); err != nil {
				log.Warn().Err(err).Msg("failed to cache snapshot")
			}
		}
	}
	refresh()

	if interval, _ := cmd.Flags().GetDuration("refresh"); interval > 0 {
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					refresh()
				}
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info().Msg("shutting down")
	return server.Shutdown(shutdownCtx)
}
