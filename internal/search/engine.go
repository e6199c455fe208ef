// Package search executes ranked queries against an immutable index
// snapshot. The engine is stateless per call and safe for unlimited
// concurrent readers.
package search

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/contentgraph/docsearch/internal/index"
	apperrors "github.com/contentgraph/docsearch/pkg/errors"
)

// Result is one ranked hit.
type Result struct {
	DocID        string   `json:"doc_id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matched_terms"`
}

// Response is the full answer to one query. Total counts all matches before
// pagination.
type Response struct {
	Query   string   `json:"query"`
	Total   int      `json:"total"`
	Results []Result `json:"results"`
}

// Engine resolves queries against whatever snapshot is currently active in
// the Holder.
type Engine struct {
	holder *index.Holder
	logger *slog.Logger
}

// New creates an Engine reading from holder.
func New(holder *index.Holder) *Engine {
	return &Engine{
		holder: holder,
		logger: slog.Default().With("component", "query-engine"),
	}
}

// Search tokenizes the query with the indexing rules, scores candidates by
// summed tf×idf, and returns the page [offset, offset+limit) of the ranked
// results. Queries that tokenize to nothing return an empty response, never
// an error. It fails only when no snapshot has been built yet.
func (e *Engine) Search(ctx context.Context, query string, limit, offset int) (*Response, error) {
	snap, ok := e.holder.Current()
	if !ok {
		return nil, apperrors.ErrSnapshotNotReady
	}
	start := time.Now()
	resp := Query(snap, query, limit, offset)
	e.logger.Debug("query executed",
		"query", query,
		"total", resp.Total,
		"returned", len(resp.Results),
		"latency", time.Since(start),
	)
	return resp, nil
}

// Query runs one search against a specific snapshot. Exported separately so
// the CLI and tests can query a snapshot without a Holder.
func Query(snap *index.Snapshot, query string, limit, offset int) *Response {
	resp := &Response{Query: query, Results: []Result{}}

	terms := distinctTerms(query)
	if len(terms) == 0 {
		return resp
	}

	totalDocs := snap.TotalDocuments()
	if totalDocs == 0 {
		return resp
	}

	type candidate struct {
		score   float64
		matched []string
	}
	candidates := make(map[string]*candidate)
	for _, term := range terms {
		postings := snap.Postings(term)
		if len(postings) == 0 {
			continue
		}
		idf := idfFor(totalDocs, len(postings), snap.IDFFloor)
		for _, posting := range postings {
			c, exists := candidates[posting.DocID]
			if !exists {
				c = &candidate{}
				candidates[posting.DocID] = c
			}
			c.score += float64(posting.Frequency) * idf
			c.matched = append(c.matched, term)
		}
	}

	ranked := make([]Result, 0, len(candidates))
	for docID, c := range candidates {
		entry := snap.Documents[docID]
		sort.Strings(c.matched)
		ranked = append(ranked, Result{
			DocID:        docID,
			Title:        entry.Title,
			Description:  entry.Description,
			Score:        math.Round(c.score*10000) / 10000,
			MatchedTerms: c.matched,
		})
	}

	// Documents matching more distinct query terms outrank higher scores
	// with fewer matches; document id breaks remaining ties so paging is
	// stable across calls.
	sort.Slice(ranked, func(i, j int) bool {
		if len(ranked[i].MatchedTerms) != len(ranked[j].MatchedTerms) {
			return len(ranked[i].MatchedTerms) > len(ranked[j].MatchedTerms)
		}
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DocID < ranked[j].DocID
	})

	resp.Total = len(ranked)
	resp.Results = paginate(ranked, limit, offset)
	return resp
}

// distinctTerms tokenizes the query and deduplicates terms, preserving
// first-seen order.
func distinctTerms(query string) []string {
	tokens := index.Tokenize(query, 0)
	seen := make(map[string]struct{}, len(tokens))
	terms := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, dup := seen[token.Term]; dup {
			continue
		}
		seen[token.Term] = struct{}{}
		terms = append(terms, token.Term)
	}
	return terms
}

// idfFor is log(N/df) clamped to the floor, so a term present in every
// document still contributes a small positive weight.
func idfFor(totalDocs, docFreq int, floor float64) float64 {
	if floor <= 0 {
		floor = 0.01
	}
	idf := math.Log(float64(totalDocs) / float64(docFreq))
	if idf < floor {
		return floor
	}
	return idf
}

// paginate slices [offset, offset+limit) out of the ranked results. An
// offset at or past the end yields an empty slice, never an error.
func paginate(ranked []Result, limit, offset int) []Result {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ranked) {
		return []Result{}
	}
	end := len(ranked)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return ranked[offset:end]
}
