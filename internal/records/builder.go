package records

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/docsite/search-indexer/internal/models"
)

// Eligible reports whether a page should appear in the search index.
// A page qualifies only when it has a context, is neither a draft nor
// marked noindex, and carries a non-empty title.
func Eligible(node models.PageNode) bool {
	ctx := node.Context
	if ctx == nil {
		return false
	}
	if ctx.Draft || ctx.NoIndex {
		return false
	}
	return strings.TrimSpace(ctx.Title) != ""
}

// PathSegments splits a URL path on "/", drops empty tokens, and wraps each
// remaining token as "/token/". Leading, trailing, and repeated slashes
// therefore never produce empty segments.
func PathSegments(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		segments = append(segments, "/"+part+"/")
	}
	return segments
}

// FromPage builds the search record for a single eligible page. Missing
// optional fields default to empty values; keywords and legacy never come
// out as nil or unset.
func FromPage(node models.PageNode) models.SearchRecord {
	ctx := node.Context

	keywords := ctx.Keywords
	if keywords == nil {
		keywords = []string{}
	}

	return models.SearchRecord{
		ObjectID:     node.ID,
		Title:        ctx.Title,
		Section:      ctx.Title,
		URL:          node.Path,
		Text:         ctx.Excerpt,
		PathSegments: PathSegments(node.Path),
		Keywords:     keywords,
		Legacy:       ctx.Legacy,
	}
}

// Build filters the page collection down to eligible pages and reshapes each
// into its search record. Output order matches input order; ineligible pages
// are dropped silently.
func Build(nodes []models.PageNode) []models.SearchRecord {
	out := make([]models.SearchRecord, 0, len(nodes))
	for _, node := range nodes {
		if !Eligible(node) {
			continue
		}
		out = append(out, FromPage(node))
	}
	return out
}

// Fingerprint hashes the indexed fields of a record so unchanged pages can be
// recognized without another round-trip to the search service.
func Fingerprint(rec models.SearchRecord) string {
	var b strings.Builder
	b.WriteString(rec.ObjectID)
	b.WriteString("|")
	b.WriteString(rec.Title)
	b.WriteString("|")
	b.WriteString(rec.URL)
	b.WriteString("|")
	b.WriteString(rec.Text)
	b.WriteString("|")
	b.WriteString(strings.Join(rec.Keywords, ","))
	if rec.Legacy {
		b.WriteString("|legacy")
	}
	s := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(s[:])
}
