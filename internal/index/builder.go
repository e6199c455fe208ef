package index

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/contentgraph/docsearch/internal/content"
	"github.com/contentgraph/docsearch/internal/graph"
	"github.com/contentgraph/docsearch/pkg/config"
)

// Builder constructs index snapshots from a document set. Field weights are
// additive: a token occurrence in the title counts TitleWeight, in the
// description DescriptionWeight, in the body BodyWeight.
type Builder struct {
	titleWeight int
	descWeight  int
	bodyWeight  int
	workers     int
	idfFloor    float64
	logger      *slog.Logger
}

// NewBuilder creates a Builder from config, falling back to the standard
// 3/2/1 weights for any unset value.
func NewBuilder(cfg config.IndexConfig) *Builder {
	b := &Builder{
		titleWeight: cfg.TitleWeight,
		descWeight:  cfg.DescriptionWeight,
		bodyWeight:  cfg.BodyWeight,
		workers:     cfg.Workers,
		idfFloor:    cfg.IDFFloor,
		logger:      slog.Default().With("component", "index-builder"),
	}
	if b.titleWeight <= 0 {
		b.titleWeight = 3
	}
	if b.descWeight <= 0 {
		b.descWeight = 2
	}
	if b.bodyWeight <= 0 {
		b.bodyWeight = 1
	}
	if b.workers <= 0 {
		b.workers = 1
	}
	if b.idfFloor <= 0 {
		b.idfFloor = 0.01
	}
	return b
}

// Build indexes every document and returns an immutable snapshot embedding
// the graph's tree export. With more than one worker the document set is
// sharded and the partial indexes merged; the merge re-sorts postings by
// document id, so the result is identical to a single-worker build.
func (b *Builder) Build(ctx context.Context, docs []*content.Document, g *graph.Graph) (*Snapshot, error) {
	partials, err := b.buildPartials(ctx, docs)
	if err != nil {
		return nil, err
	}

	tokens := make(map[string]PostingList)
	for _, partial := range partials {
		for term, postings := range partial {
			tokens[term] = append(tokens[term], postings...)
		}
	}
	for term := range tokens {
		postings := tokens[term]
		sort.Slice(postings, func(i, j int) bool {
			return postings[i].DocID < postings[j].DocID
		})
		tokens[term] = postings
	}

	documents := make(map[string]DocumentEntry, len(docs))
	for _, doc := range docs {
		documents[doc.ID] = DocumentEntry{
			ID:          doc.ID,
			Title:       doc.Title,
			Description: doc.Description,
			TokenCount:  b.tokenCount(doc),
		}
	}

	snap := &Snapshot{
		Version:   SnapshotVersion,
		Tokens:    tokens,
		Documents: documents,
		Tree:      g.Export(),
		IDFFloor:  b.idfFloor,
	}
	b.logger.Info("index built",
		"documents", len(documents),
		"tokens", len(tokens),
		"workers", b.workers,
	)
	return snap, nil
}

// buildPartials shards the documents across workers, each producing an
// independent term→postings map.
func (b *Builder) buildPartials(ctx context.Context, docs []*content.Document) ([]map[string]PostingList, error) {
	workers := b.workers
	if workers > len(docs) {
		workers = len(docs)
	}
	if workers <= 1 {
		return []map[string]PostingList{b.indexShard(docs)}, nil
	}

	partials := make([]map[string]PostingList, workers)
	eg, _ := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		shard := make([]*content.Document, 0, len(docs)/workers+1)
		for i := w; i < len(docs); i += workers {
			shard = append(shard, docs[i])
		}
		w := w
		eg.Go(func() error {
			partials[w] = b.indexShard(shard)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return partials, nil
}

// indexShard indexes one slice of documents into a fresh term map.
func (b *Builder) indexShard(docs []*content.Document) map[string]PostingList {
	shard := make(map[string]PostingList)
	for _, doc := range docs {
		for term, posting := range b.indexDocument(doc) {
			shard[term] = append(shard[term], *posting)
		}
	}
	return shard
}

// indexDocument tokenizes one document's fields into postings. Title,
// description, and body share a single position space in that order, so
// positions are strictly increasing per document.
func (b *Builder) indexDocument(doc *content.Document) map[string]*Posting {
	titleTokens := Tokenize(doc.Title, 0)
	descTokens := Tokenize(doc.Description, len(titleTokens))
	bodyTokens := Tokenize(doc.Body, len(titleTokens)+len(descTokens))

	postings := make(map[string]*Posting)
	add := func(tokens []Token, weight int) {
		for _, token := range tokens {
			p, exists := postings[token.Term]
			if !exists {
				p = &Posting{DocID: doc.ID, Positions: make([]int, 0, 4)}
				postings[token.Term] = p
			}
			p.Frequency += weight
			p.Positions = append(p.Positions, token.Position)
		}
	}
	add(titleTokens, b.titleWeight)
	add(descTokens, b.descWeight)
	add(bodyTokens, b.bodyWeight)
	return postings
}

// tokenCount is the total number of kept tokens across all fields, used for
// stats and the snapshot's per-document entry. A document whose body
// tokenizes to nothing still gets an entry; it stays searchable through its
// title and description.
func (b *Builder) tokenCount(doc *content.Document) int {
	n := len(Tokenize(doc.Title, 0))
	n += len(Tokenize(doc.Description, 0))
	n += len(Tokenize(doc.Body, 0))
	return n
}
