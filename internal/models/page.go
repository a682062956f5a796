package models

// PageContext carries the metadata the site generator attaches to a page.
// Every field is optional; absent fields keep their zero value.
type PageContext struct {
	Draft    bool     `json:"draft,omitempty"`
	Title    string   `json:"title,omitempty"`
	Excerpt  string   `json:"excerpt,omitempty"`
	NoIndex  bool     `json:"noindex,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Legacy   bool     `json:"legacy,omitempty"`
}

// PageNode is one unit of documentation content with its routing path and
// metadata, as produced by the site generator. A node without a context is
// never indexed.
type PageNode struct {
	ID      string       `json:"id"`
	Path    string       `json:"path"`
	Context *PageContext `json:"context,omitempty"`
}

// SearchRecord is the denormalized document stored in the search index for a
// single eligible page.
type SearchRecord struct {
	ObjectID     string   `json:"objectID"`
	Title        string   `json:"title"`
	Section      string   `json:"section"`
	URL          string   `json:"url"`
	Text         string   `json:"text"`
	PathSegments []string `json:"pathSegments"`
	Keywords     []string `json:"keywords"`
	Legacy       bool     `json:"legacy"`
	RunID        string   `json:"runId,omitempty"`
}
