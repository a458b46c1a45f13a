package cranfield

import (
	"context"
	"strconv"

	"github.com/go-errors/errors"
)

// DefaultLimit is the number of hits kept per query.
const DefaultLimit = 1000

// IndexHandle is an index built by a Searcher.
type IndexHandle interface {
	Close() error
}

// Searcher is the full-text engine the collection is evaluated with.
type Searcher interface {
	// Index builds a queryable index over docs.
	Index(ctx context.Context, docs []Document) (IndexHandle, error)
	// Search returns at most limit document ids for text, best match first.
	Search(ctx context.Context, h IndexHandle, text string, limit int) ([]string, error)
}

// Retrieve runs every query against h. The ranking is keyed by sequence number,
// which is how the judgment file numbers queries. tick, if set, is called after
// each query.
func Retrieve(ctx context.Context, s Searcher, h IndexHandle, queries []Query, limit int, tick func()) (Ranking, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ranking := make(Ranking, len(queries))
	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		docs, err := s.Search(ctx, h, q.Text, limit)
		if err != nil {
			return nil, errors.WrapPrefix(err, "query "+q.ID, 0)
		}
		if len(docs) > limit {
			docs = docs[:limit]
		}
		ranking[strconv.Itoa(q.SequenceNumber)] = docs
		if tick != nil {
			tick()
		}
	}
	return ranking, nil
}
