// Package graph derives the hierarchical document tree from flat document
// paths. Nodes live in a flat arena and reference each other by integer
// index, so the structure serialises cleanly and has no pointer cycles.
package graph

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/contentgraph/docsearch/internal/content"
	apperrors "github.com/contentgraph/docsearch/pkg/errors"
)

// NoParent marks a node without a parent (only the root).
const NoParent = -1

// Node is one entry in the arena. Synthetic nodes are structural
// placeholders for path prefixes that have no document of their own.
type Node struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Synthetic bool   `json:"synthetic,omitempty"`
	Parent    int    `json:"parent"`
	Children  []int  `json:"children,omitempty"`

	order *int
}

// Graph is the navigable forest over one build's document set. Nodes[0] is
// always the synthetic root placeholder.
type Graph struct {
	Nodes []Node `json:"nodes"`

	byID map[string]int
	docs map[string]*content.Document
}

// Build constructs the graph from a document set. Documents are processed
// shallow-first so parents exist (or are synthesized) before their children
// attach. Rebuilding from an unchanged set yields an identical structure.
func Build(docs []*content.Document) (*Graph, error) {
	g := &Graph{
		Nodes: []Node{{ID: "", Title: "", Synthetic: true, Parent: NoParent}},
		byID:  map[string]int{"": 0},
		docs:  make(map[string]*content.Document, len(docs)),
	}

	ordered := append([]*content.Document(nil), docs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Depth() != ordered[j].Depth() {
			return ordered[i].Depth() < ordered[j].Depth()
		}
		return ordered[i].ID < ordered[j].ID
	})

	for _, doc := range ordered {
		g.docs[doc.ID] = doc
		idx := g.ensure(doc.ID)
		node := &g.Nodes[idx]
		node.Title = doc.Title
		node.Synthetic = false
		node.order = doc.Order
	}

	g.sortChildren()

	if err := g.checkRelatedCycles(docs); err != nil {
		return nil, err
	}

	slog.Default().With("component", "graph-builder").Info("graph built",
		"documents", len(docs),
		"nodes", len(g.Nodes),
	)
	return g, nil
}

// ensure returns the arena index for id, synthesizing the node and every
// missing ancestor as placeholder section nodes.
func (g *Graph) ensure(id string) int {
	if idx, ok := g.byID[id]; ok {
		return idx
	}
	parentID := ""
	if i := strings.LastIndex(id, "/"); i >= 0 {
		parentID = id[:i]
	}
	parentIdx := g.ensure(parentID)

	idx := len(g.Nodes)
	g.Nodes = append(g.Nodes, Node{
		ID:        id,
		Title:     sectionTitle(id),
		Synthetic: true,
		Parent:    parentIdx,
	})
	g.byID[id] = idx
	g.Nodes[parentIdx].Children = append(g.Nodes[parentIdx].Children, idx)
	return idx
}

// sortChildren orders every node's children: explicit `order` values first
// (ascending), then case-insensitive title, then id so rebuilds are
// deterministic.
func (g *Graph) sortChildren() {
	for i := range g.Nodes {
		children := g.Nodes[i].Children
		sort.SliceStable(children, func(a, b int) bool {
			na, nb := g.Nodes[children[a]], g.Nodes[children[b]]
			switch {
			case na.order != nil && nb.order != nil && *na.order != *nb.order:
				return *na.order < *nb.order
			case na.order != nil && nb.order == nil:
				return true
			case na.order == nil && nb.order != nil:
				return false
			}
			ta, tb := strings.ToLower(na.Title), strings.ToLower(nb.Title)
			if ta != tb {
				return ta < tb
			}
			return na.ID < nb.ID
		})
	}
}

// checkRelatedCycles walks related-document chains whose endpoints are also
// in an ancestor/descendant relationship and fails if they close a cycle.
// Path-based construction cannot cycle on its own; this guards against an
// internal inconsistency ever reaching readers.
func (g *Graph) checkRelatedCycles(docs []*content.Document) error {
	edges := make(map[string][]string)
	for _, doc := range docs {
		for _, rel := range doc.RelatedIDs {
			if _, exists := g.docs[rel]; !exists {
				continue
			}
			if isHierarchical(doc.ID, rel) {
				edges[doc.ID] = append(edges[doc.ID], rel)
			}
		}
	}

	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int)
	var chain []string

	var visit func(id string) error
	visit = func(id string) error {
		state[id] = inStack
		chain = append(chain, id)
		for _, next := range edges[id] {
			switch state[next] {
			case inStack:
				return &apperrors.CycleDetectedError{Chain: append(append([]string(nil), chain...), next)}
			case unvisited:
				if err := visit(next); err != nil {
					return err
				}
			}
		}
		state[id] = done
		chain = chain[:len(chain)-1]
		return nil
	}

	for _, doc := range docs {
		if state[doc.ID] == unvisited {
			if err := visit(doc.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// Lookup returns the arena index for a document id.
func (g *Graph) Lookup(id string) (int, bool) {
	idx, ok := g.byID[id]
	return idx, ok
}

// Document returns the document behind a non-synthetic node.
func (g *Graph) Document(id string) (*content.Document, bool) {
	doc, ok := g.docs[id]
	return doc, ok
}

// Roots returns the arena indexes of the top-level nodes in display order.
func (g *Graph) Roots() []int {
	return g.Nodes[0].Children
}

// Tree is the nested export of the graph for snapshot serialization.
type Tree struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Synthetic bool   `json:"synthetic,omitempty"`
	Children  []Tree `json:"children,omitempty"`
}

// Export renders the forest as nested Trees under a root placeholder.
func (g *Graph) Export() Tree {
	return g.export(0)
}

func (g *Graph) export(idx int) Tree {
	node := g.Nodes[idx]
	t := Tree{
		ID:        node.ID,
		Title:     node.Title,
		Synthetic: node.Synthetic,
	}
	for _, child := range node.Children {
		t.Children = append(t.Children, g.export(child))
	}
	return t
}

// isHierarchical reports whether one id is a path ancestor of the other.
func isHierarchical(a, b string) bool {
	return strings.HasPrefix(a, b+"/") || strings.HasPrefix(b, a+"/")
}

// sectionTitle derives a display title for a synthetic node from the last
// path segment.
func sectionTitle(id string) string {
	seg := id
	if i := strings.LastIndex(id, "/"); i >= 0 {
		seg = id[i+1:]
	}
	seg = strings.ReplaceAll(seg, "-", " ")
	if seg == "" {
		return ""
	}
	return strings.ToUpper(seg[:1]) + seg[1:]
}
