package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/docsite/search-indexer/internal/config"
	"github.com/docsite/search-indexer/internal/dedupe"
	"github.com/docsite/search-indexer/internal/elasticsearch"
	"github.com/docsite/search-indexer/internal/logger"
	"github.com/docsite/search-indexer/internal/models"
	"github.com/docsite/search-indexer/internal/pages"
	"github.com/docsite/search-indexer/internal/records"
)

// pageEvent is what the site generator publishes when a page changes.
// A structurally malformed event (context that is not a mapping, invalid
// JSON) is a hard failure and ends up on the DLQ.
type pageEvent struct {
	ID      string              `json:"id"`
	Path    string              `json:"path"`
	Context *models.PageContext `json:"context"`
	Deleted bool                `json:"deleted"`
}

type recordIndexer interface {
	IndexRecord(ctx context.Context, rec models.SearchRecord) error
	DeleteRecord(ctx context.Context, id string) error
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.IndexName(), log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	cache := dedupe.NewCache(cfg.CacheCapacity, cfg.CacheTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		Topic:          cfg.KafkaTopic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  cfg.QueueCapacity,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0, // Disable auto-commit; manual commit only
	})
	defer reader.Close()

	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaTopic + "_dlq",
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("index", cfg.IndexName()),
		slog.String("topic", cfg.KafkaTopic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", cfg.KafkaTopic+"_dlq"),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processEvent(ctx, log, esClient, cache, msg); err != nil {
			log.Warn("process event failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			dlqMsg := kafka.Message{
				Value: msg.Value,
				Headers: append(msg.Headers,
					kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
					kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
					kafka.Header{Key: "error", Value: []byte(err.Error())},
					kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
				),
			}

			// Retry DLQ write with exponential backoff; only commit the
			// source offset once the event is parked safely.
			dlqSuccess := false
			for attempt := 0; attempt < 5; attempt++ {
				if dlqErr := dlqWriter.WriteMessages(ctx, dlqMsg); dlqErr == nil {
					dlqSuccess = true
					log.Info("event sent to DLQ",
						slog.Int("partition", msg.Partition),
						slog.Int64("offset", msg.Offset),
						slog.Int("attempt", attempt+1),
					)
					break
				} else {
					backoff := time.Duration(1<<uint(attempt)) * time.Second
					log.Warn("DLQ write failed, retrying",
						slog.Any("err", dlqErr),
						slog.Int("attempt", attempt+1),
						slog.Duration("backoff", backoff),
					)
					select {
					case <-time.After(backoff):
					case <-ctx.Done():
						log.Info("context canceled during DLQ retry")
						return
					}
				}
			}

			if dlqSuccess {
				if err := reader.CommitMessages(ctx, msg); err != nil {
					log.Error("commit failed event to dlq", slog.Any("err", err))
				}
			} else {
				log.Error("DLQ write exhausted retries, event may be lost if later events commit",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
			}
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

func processEvent(ctx context.Context, log *slog.Logger, idx recordIndexer, cache *dedupe.Cache, msg kafka.Message) error {
	var event pageEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("decode page event: %w", err)
	}

	id := strings.TrimSpace(event.ID)
	if id == "" {
		if strings.TrimSpace(event.Path) == "" {
			return errors.New("event carries neither id nor path")
		}
		id = pages.PageID(event.Path)
	}

	node := models.PageNode{
		ID:      id,
		Path:    event.Path,
		Context: event.Context,
	}

	// Deleted pages, and pages that fell out of eligibility (turned draft,
	// lost their title, got flagged noindex), leave the index.
	if event.Deleted || !records.Eligible(node) {
		if err := idx.DeleteRecord(ctx, id); err != nil {
			return err
		}
		cache.Forget(id)
		log.Info("removed record", slog.String("id", id), slog.String("path", event.Path))
		return nil
	}

	rec := records.FromPage(node)
	hash := records.Fingerprint(rec)

	if cache.Unchanged(rec.ObjectID, hash) {
		log.Debug("record unchanged", slog.String("id", rec.ObjectID))
		return nil
	}

	if err := idx.IndexRecord(ctx, rec); err != nil {
		return err
	}

	cache.Remember(rec.ObjectID, hash)
	log.Info("indexed record", slog.String("id", rec.ObjectID), slog.String("title", rec.Title))
	return nil
}
