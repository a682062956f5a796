package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/docsite/search-indexer/internal/dedupe"
	"github.com/docsite/search-indexer/internal/models"
	"github.com/docsite/search-indexer/internal/pages"
)

type stubIndexer struct {
	indexed []models.SearchRecord
	deleted []string
}

func (s *stubIndexer) IndexRecord(_ context.Context, rec models.SearchRecord) error {
	s.indexed = append(s.indexed, rec)
	return nil
}

func (s *stubIndexer) DeleteRecord(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func eventMessage(t *testing.T, event pageEvent) kafka.Message {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: data}
}

func TestProcessEventIndexesRecord(t *testing.T) {
	log := testLogger()
	cache := dedupe.NewCache(100, time.Hour)
	idx := &stubIndexer{}

	msg := eventMessage(t, pageEvent{
		ID:   "42",
		Path: "/platforms/node/configuration/",
		Context: &models.PageContext{
			Title:    "Configuration",
			Excerpt:  "Configure the SDK",
			Keywords: []string{"config"},
		},
	})

	require.NoError(t, processEvent(context.Background(), log, idx, cache, msg))
	require.Len(t, idx.indexed, 1)

	rec := idx.indexed[0]
	require.Equal(t, "42", rec.ObjectID)
	require.Equal(t, "Configuration", rec.Title)
	require.Equal(t, "Configuration", rec.Section)
	require.Equal(t, []string{"/platforms/", "/node/", "/configuration/"}, rec.PathSegments)

	// Same event again: fingerprint unchanged, nothing reindexed.
	require.NoError(t, processEvent(context.Background(), log, idx, cache, msg))
	require.Len(t, idx.indexed, 1)
}

func TestProcessEventDerivesIDFromPath(t *testing.T) {
	log := testLogger()
	cache := dedupe.NewCache(100, time.Hour)
	idx := &stubIndexer{}

	msg := eventMessage(t, pageEvent{
		Path:    "/guides/setup/",
		Context: &models.PageContext{Title: "Setup"},
	})

	require.NoError(t, processEvent(context.Background(), log, idx, cache, msg))
	require.Len(t, idx.indexed, 1)
	require.Equal(t, pages.PageID("/guides/setup/"), idx.indexed[0].ObjectID)
}

func TestProcessEventDeletesRemovedPage(t *testing.T) {
	log := testLogger()
	cache := dedupe.NewCache(100, time.Hour)
	idx := &stubIndexer{}

	msg := eventMessage(t, pageEvent{
		ID:      "42",
		Path:    "/platforms/node/",
		Deleted: true,
	})

	require.NoError(t, processEvent(context.Background(), log, idx, cache, msg))
	require.Empty(t, idx.indexed)
	require.Equal(t, []string{"42"}, idx.deleted)
}

func TestProcessEventDeletesIneligiblePage(t *testing.T) {
	log := testLogger()
	cache := dedupe.NewCache(100, time.Hour)
	idx := &stubIndexer{}

	// Page turned draft: it must leave the index.
	msg := eventMessage(t, pageEvent{
		ID:      "7",
		Path:    "/internal/",
		Context: &models.PageContext{Title: "Internal", Draft: true},
	})

	require.NoError(t, processEvent(context.Background(), log, idx, cache, msg))
	require.Empty(t, idx.indexed)
	require.Equal(t, []string{"7"}, idx.deleted)
}

func TestProcessEventReindexesAfterDelete(t *testing.T) {
	log := testLogger()
	cache := dedupe.NewCache(100, time.Hour)
	idx := &stubIndexer{}

	create := eventMessage(t, pageEvent{ID: "9", Path: "/faq/", Context: &models.PageContext{Title: "FAQ"}})
	remove := eventMessage(t, pageEvent{ID: "9", Path: "/faq/", Deleted: true})

	require.NoError(t, processEvent(context.Background(), log, idx, cache, create))
	require.NoError(t, processEvent(context.Background(), log, idx, cache, remove))
	require.NoError(t, processEvent(context.Background(), log, idx, cache, create))

	require.Len(t, idx.indexed, 2)
	require.Equal(t, []string{"9"}, idx.deleted)
}

func TestProcessEventRejectsMalformedPayload(t *testing.T) {
	log := testLogger()
	cache := dedupe.NewCache(100, time.Hour)
	idx := &stubIndexer{}

	// context must be a mapping; anything else is a structural failure.
	msg := kafka.Message{Value: []byte(`{"id":"1","path":"/a/","context":"not a mapping"}`)}
	require.Error(t, processEvent(context.Background(), log, idx, cache, msg))

	msg = kafka.Message{Value: []byte(`not json`)}
	require.Error(t, processEvent(context.Background(), log, idx, cache, msg))

	require.Empty(t, idx.indexed)
	require.Empty(t, idx.deleted)
}

func TestProcessEventRequiresIDOrPath(t *testing.T) {
	log := testLogger()
	cache := dedupe.NewCache(100, time.Hour)
	idx := &stubIndexer{}

	msg := eventMessage(t, pageEvent{Context: &models.PageContext{Title: "Orphan"}})
	require.Error(t, processEvent(context.Background(), log, idx, cache, msg))
}
