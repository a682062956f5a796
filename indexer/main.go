package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/docsite/search-indexer/internal/config"
	"github.com/docsite/search-indexer/internal/elasticsearch"
	"github.com/docsite/search-indexer/internal/logger"
	"github.com/docsite/search-indexer/internal/pages"
	"github.com/docsite/search-indexer/internal/records"
)

func main() {
	log := logger.New("indexer")
	cfg, err := config.LoadIndexer()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.IndexName(), log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	err = esClient.Ping(pingCtx)
	cancel()
	if err != nil {
		log.Error("elasticsearch unreachable", slog.Any("err", err))
		os.Exit(1)
	}

	if err := run(ctx, log, esClient, cfg); err != nil {
		log.Error("index build failed", slog.Any("err", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, esClient *elasticsearch.Client, cfg *config.Indexer) error {
	scanner := pages.NewScanner(cfg.ContentDir, log)
	nodes, err := scanner.Scan()
	if err != nil {
		return err
	}

	spec := records.NewIndexSpec(cfg.IndexName(), nodes)
	runID := uuid.NewString()

	log.Info("index build starting",
		slog.String("index", spec.Name),
		slog.String("run_id", runID),
		slog.Int("pages", len(nodes)),
		slog.Int("records", len(spec.Records)),
	)

	if err := esClient.EnsureIndex(ctx, spec.Settings); err != nil {
		return err
	}

	for _, rec := range spec.Records {
		rec.RunID = runID
		if err := esClient.IndexRecord(ctx, rec); err != nil {
			return err
		}
		log.Debug("indexed record", slog.String("objectID", rec.ObjectID), slog.String("url", rec.URL))
	}

	// Wholesale replace: everything not written by this run is stale.
	deleted, err := esClient.DeleteStale(ctx, runID, cfg.DeleteBatch)
	if err != nil {
		return err
	}

	log.Info("index build completed",
		slog.String("index", spec.Name),
		slog.Int("records", len(spec.Records)),
		slog.Int64("stale_deleted", deleted),
	)
	return nil
}
