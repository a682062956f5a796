package pages

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/docsite/search-indexer/internal/models"
)

// frontMatter mirrors the YAML block the docs authors put at the top of each
// MDX page.
type frontMatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Draft       bool     `yaml:"draft"`
	NoIndex     bool     `yaml:"noindex"`
	Keywords    []string `yaml:"keywords"`
	Legacy      bool     `yaml:"legacy"`
}

// Scanner walks a content directory and turns markdown/MDX files into page
// nodes. Files with unparsable frontmatter are logged and skipped; shape
// problems in a single page must not sink a whole build.
type Scanner struct {
	dir string
	log *slog.Logger
}

// NewScanner creates a scanner rooted at dir.
func NewScanner(dir string, log *slog.Logger) *Scanner {
	return &Scanner{dir: dir, log: log}
}

// Scan walks the content tree in lexical order and returns one page node per
// markdown file. Node order is deterministic for identical trees.
func (s *Scanner) Scan() ([]models.PageNode, error) {
	var nodes []models.PageNode

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".md" && ext != ".mdx" {
			return nil
		}

		node, err := s.loadPage(path)
		if err != nil {
			s.log.Warn("skipping page", slog.String("file", path), slog.Any("err", err))
			return nil
		}

		nodes = append(nodes, node)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content dir %s: %w", s.dir, err)
	}

	return nodes, nil
}

func (s *Scanner) loadPage(file string) (models.PageNode, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return models.PageNode{}, fmt.Errorf("read page: %w", err)
	}

	var fm frontMatter
	body, err := frontmatter.Parse(strings.NewReader(string(raw)), &fm)
	if err != nil {
		return models.PageNode{}, fmt.Errorf("parse frontmatter: %w", err)
	}

	urlPath, err := PagePath(s.dir, file)
	if err != nil {
		return models.PageNode{}, err
	}

	excerpt := strings.TrimSpace(fm.Description)
	if excerpt == "" {
		excerpt = firstParagraph(string(body))
	}

	return models.PageNode{
		ID:   PageID(urlPath),
		Path: urlPath,
		Context: &models.PageContext{
			Draft:    fm.Draft,
			Title:    strings.TrimSpace(fm.Title),
			Excerpt:  excerpt,
			NoIndex:  fm.NoIndex,
			Keywords: fm.Keywords,
			Legacy:   fm.Legacy,
		},
	}, nil
}

// PagePath maps a content file onto its directory-style URL path.
// content/platforms/node/configuration.mdx -> /platforms/node/configuration/
// and index files collapse onto their directory: content/platforms/index.mdx
// -> /platforms/.
func PagePath(root, file string) (string, error) {
	rel, err := filepath.Rel(root, file)
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", file, err)
	}

	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	rel = filepath.ToSlash(rel)

	if rel == "index" {
		return "/", nil
	}
	rel = strings.TrimSuffix(rel, "/index")

	return "/" + rel + "/", nil
}

// PageID derives a stable identifier from the URL path, so repeated builds
// address the same document in the index.
func PageID(urlPath string) string {
	sum := sha1.Sum([]byte(urlPath))
	return hex.EncodeToString(sum[:])
}

// firstParagraph pulls the first non-heading prose line from a page body as a
// fallback excerpt, capped so the record stays small.
func firstParagraph(body string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "<") || strings.HasPrefix(line, "import ") {
			continue
		}
		if len(line) > 200 {
			line = strings.TrimSpace(line[:200])
		}
		return line
	}
	return ""
}
