package records

import (
	_ "embed"
	"encoding/json"

	"github.com/docsite/search-indexer/internal/models"
)

//go:embed settings.json
var rawSettings []byte

// IndexSettings is the static settings-and-mappings body applied to the index
// as-is. The builder never interprets or validates its contents; the search
// service owns their meaning.
var IndexSettings = json.RawMessage(rawSettings)

// IndexSpec bundles everything an upload pipeline needs to (re)build the
// search index: the fully-qualified index name, the settings to apply
// verbatim, and the record collection.
type IndexSpec struct {
	Name     string                `json:"name"`
	Settings json.RawMessage       `json:"settings"`
	Records  []models.SearchRecord `json:"records"`
}

// NewIndexSpec runs the builder over the page collection and pairs the result
// with the index name and the static settings object.
func NewIndexSpec(name string, nodes []models.PageNode) IndexSpec {
	return IndexSpec{
		Name:     name,
		Settings: IndexSettings,
		Records:  Build(nodes),
	}
}
