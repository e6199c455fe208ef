// Package content loads a documentation collection from disk, parses and
// validates frontmatter, and produces the immutable Document records the
// rest of the pipeline consumes.
package content

import "strings"

// Document is one content file after frontmatter extraction. Documents are
// immutable within a build; the next full rebuild replaces them wholesale.
type Document struct {
	// ID is the stable, path-derived key: the source path relative to the
	// content root with its extension stripped. An `index` basename
	// collapses onto its directory, so `git/index.md` becomes `git`.
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Path        []string       `json:"path"`
	Body        string         `json:"body"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	RelatedIDs  []string       `json:"related_ids,omitempty"`

	// Order is the explicit sibling ordering from frontmatter, nil when the
	// document did not declare one.
	Order *int `json:"order,omitempty"`

	// SourcePath is the file the document came from, kept for error
	// reporting only.
	SourcePath string `json:"source_path"`
}

// ParentID returns the id of the document's hierarchical parent, or "" for
// top-level documents.
func (d *Document) ParentID() string {
	if len(d.Path) <= 1 {
		return ""
	}
	return strings.Join(d.Path[:len(d.Path)-1], "/")
}

// Depth is the number of path segments, used to build parents before
// children.
func (d *Document) Depth() int {
	return len(d.Path)
}
