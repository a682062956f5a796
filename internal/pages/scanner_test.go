package pages_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docsite/search-indexer/internal/pages"
)

func writePage(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScanParsesFrontmatter(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "platforms/node/configuration.mdx", `---
title: Configuration
description: Configure the SDK
keywords:
  - config
---

Some body text.
`)

	scanner := pages.NewScanner(dir, discardLogger())
	nodes, err := scanner.Scan()
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	node := nodes[0]
	require.Equal(t, "/platforms/node/configuration/", node.Path)
	require.Equal(t, pages.PageID("/platforms/node/configuration/"), node.ID)
	require.NotNil(t, node.Context)
	require.Equal(t, "Configuration", node.Context.Title)
	require.Equal(t, "Configure the SDK", node.Context.Excerpt)
	require.Equal(t, []string{"config"}, node.Context.Keywords)
	require.False(t, node.Context.Draft)
	require.False(t, node.Context.Legacy)
}

func TestScanIndexFilesCollapseOntoDirectory(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "platforms/index.mdx", "---\ntitle: Platforms\n---\n")
	writePage(t, dir, "index.md", "---\ntitle: Home\n---\n")

	scanner := pages.NewScanner(dir, discardLogger())
	nodes, err := scanner.Scan()
	require.NoError(t, err)
	require.Len(t, nodes, 2)

	paths := []string{nodes[0].Path, nodes[1].Path}
	require.Contains(t, paths, "/")
	require.Contains(t, paths, "/platforms/")
}

func TestScanExcerptFallsBackToFirstParagraph(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "guide.md", `---
title: Guide
---

# Heading

The opening paragraph of the guide.
`)

	scanner := pages.NewScanner(dir, discardLogger())
	nodes, err := scanner.Scan()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "The opening paragraph of the guide.", nodes[0].Context.Excerpt)
}

func TestScanSkipsMalformedFrontmatter(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "ok.md", "---\ntitle: OK\n---\n")
	writePage(t, dir, "broken.md", "---\ntitle: [unclosed\n---\n")

	scanner := pages.NewScanner(dir, discardLogger())
	nodes, err := scanner.Scan()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, "OK", nodes[0].Context.Title)
}

func TestScanIgnoresNonMarkdown(t *testing.T) {
	dir := t.TempDir()
	writePage(t, dir, "image.png", "not markdown")
	writePage(t, dir, "page.mdx", "---\ntitle: Page\n---\n")

	scanner := pages.NewScanner(dir, discardLogger())
	nodes, err := scanner.Scan()
	require.NoError(t, err)
	require.Len(t, nodes, 1)
}

func TestPageIDStable(t *testing.T) {
	require.Equal(t, pages.PageID("/a/b/"), pages.PageID("/a/b/"))
	require.NotEqual(t, pages.PageID("/a/b/"), pages.PageID("/a/c/"))
}

func TestPagePath(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{name: "nested page", file: "platforms/node/configuration.mdx", want: "/platforms/node/configuration/"},
		{name: "nested index", file: "platforms/index.mdx", want: "/platforms/"},
		{name: "root index", file: "index.md", want: "/"},
		{name: "top-level page", file: "faq.md", want: "/faq/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pages.PagePath("content", filepath.Join("content", tt.file))
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
