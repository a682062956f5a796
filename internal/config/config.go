package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// indexSuffix is appended to the environment prefix to form the index name.
const indexSuffix = "docs"

// Common contains the search-service parameters shared by every service.
// IndexPrefix has no default on purpose: without an explicit prefix a build
// could write into another environment's index.
type Common struct {
	ElasticsearchAddr string
	IndexPrefix       string
}

// IndexName returns the fully-qualified index name, prefix plus suffix.
func (c Common) IndexName() string {
	return c.IndexPrefix + indexSuffix
}

// Indexer configures the full-build service.
type Indexer struct {
	Common
	ContentDir     string
	DeleteBatch    int
	RequestTimeout time.Duration
}

// Worker holds configuration for the Kafka -> Elasticsearch reindex worker.
type Worker struct {
	Common
	KafkaBrokers   []string
	KafkaTopic     string
	KafkaConsumer  string
	CacheCapacity  int
	CacheTTL       time.Duration
	QueueCapacity  int
	CommitInterval time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	BindAddr    string
	DefaultPage int
	MaxPage     int
}

func loadCommon() (Common, error) {
	c := Common{
		ElasticsearchAddr: getEnv("ELASTICSEARCH_ADDR", "http://elasticsearch:9200"),
		IndexPrefix:       strings.TrimSpace(os.Getenv("SEARCH_INDEX_PREFIX")),
	}

	if c.IndexPrefix == "" {
		return Common{}, fmt.Errorf("SEARCH_INDEX_PREFIX must be set (e.g. \"docs_\"): refusing to write to an unnamespaced index")
	}

	return c, nil
}

// LoadIndexer builds an Indexer config from environment variables.
func LoadIndexer() (*Indexer, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &Indexer{
		Common:         common,
		ContentDir:     getEnv("CONTENT_DIR", "content"),
		DeleteBatch:    getInt("INDEXER_DELETE_BATCH", 500),
		RequestTimeout: getDuration("INDEXER_REQUEST_TIMEOUT", "30s"),
	}

	if c.DeleteBatch <= 0 {
		return nil, fmt.Errorf("INDEXER_DELETE_BATCH must be positive")
	}
	if c.RequestTimeout <= 0 {
		return nil, fmt.Errorf("INDEXER_REQUEST_TIMEOUT must be positive")
	}

	return c, nil
}

// LoadWorker builds a Worker config from environment variables.
func LoadWorker() (*Worker, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &Worker{
		Common:         common,
		KafkaBrokers:   splitAndTrim(getEnv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "page_events"),
		KafkaConsumer:  getEnv("KAFKA_CONSUMER_GROUP", "docs-reindex-worker"),
		CacheCapacity:  getInt("WORKER_CACHE_CAPACITY", 20000),
		CacheTTL:       getDuration("WORKER_CACHE_TTL", "24h"),
		QueueCapacity:  getInt("WORKER_QUEUE_CAPACITY", 10),
		CommitInterval: getDuration("WORKER_COMMIT_INTERVAL", "2s"),
	}

	if len(c.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("KAFKA_BROKERS must contain at least one broker")
	}
	if c.CacheCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_CACHE_CAPACITY must be positive")
	}
	if c.QueueCapacity <= 0 {
		return nil, fmt.Errorf("WORKER_QUEUE_CAPACITY must be positive")
	}

	return c, nil
}

// LoadAPI builds an API config from environment variables.
func LoadAPI() (*API, error) {
	common, err := loadCommon()
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:      common,
		BindAddr:    getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultPage: getInt("API_PAGE_SIZE", 20),
		MaxPage:     getInt("API_MAX_PAGE_SIZE", 100),
	}

	if c.DefaultPage <= 0 {
		return nil, fmt.Errorf("API_PAGE_SIZE must be positive")
	}
	if c.MaxPage <= 0 {
		return nil, fmt.Errorf("API_MAX_PAGE_SIZE must be positive")
	}
	if c.DefaultPage > c.MaxPage {
		return nil, fmt.Errorf("API_PAGE_SIZE cannot exceed API_MAX_PAGE_SIZE")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := getEnv(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
