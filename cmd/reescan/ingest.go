package main

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/arcticwatch/reescan/internal/cache"
	"github.com/arcticwatch/reescan/internal/persistence/postgres"
)

func newIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Run an ingestion pass and persist the results",
		Long:  "Normalizes the configured sources, scores the records and writes deposits and the ranking snapshot to Postgres and/or Redis.",
		RunE:  runIngest,
	}
	addSourceFlags(cmd.Flags())
	cmd.Flags().String("dsn", "", "Postgres DSN (empty: skip persistence)")
	cmd.Flags().String("redis", "", "Redis address for snapshot cache (empty: skip cache)")
	cmd.Flags().Duration("cache-ttl", 24*time.Hour, "Snapshot cache TTL")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := resolvePipeline(cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	snap, normalizer := runPipeline(ctx, cfg)
	logPass(snap)

	if dsn, _ := cmd.Flags().GetString("dsn"); dsn != "" {
		db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		defer db.Close()

		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}

		depositRepo := postgres.NewDepositRepo(db, 10*time.Second)
		active := make([]string, 0, len(normalizer.Records()))
		for name, rec := range normalizer.Records() {
			if err := depositRepo.Upsert(ctx, rec); err != nil {
				return err
			}
			if !rec.Stale {
				active = append(active, name)
			}
		}
		if err := depositRepo.MarkStaleExcept(ctx, active); err != nil {
			return err
		}

		snapshotRepo := postgres.NewSnapshotRepo(db, 10*time.Second)
		if err := snapshotRepo.Save(ctx, snap); err != nil {
			return err
		}
		log.Info().Int("deposits", len(active)).Msg("persisted to postgres")
	}

	if addr, _ := cmd.Flags().GetString("redis"); addr != "" {
		ttl, _ := cmd.Flags().GetDuration("cache-ttl")
		snapCache := cache.New(addr, "", 0, ttl)
		defer snapCache.Close()

		if err := snapCache.StoreLatest(ctx, snap); err != nil {
			return err
		}
		log.Info().Str("addr", addr).Msg("snapshot cached")
	}

	printDiagnostics(snap.Diagnostics)
	return nil
}
