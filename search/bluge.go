// Package search provides the bluge-backed full-text engine used to rank the collection.
package search

import (
	"context"
	"os"
	"strings"

	"github.com/blugelabs/bluge"
	"github.com/blugelabs/bluge/analysis"
	"github.com/blugelabs/bluge/analysis/analyzer"
	"github.com/blugelabs/bluge/analysis/lang/en"
	"github.com/blugelabs/bluge/analysis/tokenizer"
	"github.com/go-errors/errors"

	"github.com/ielab/cranfield"
)

// Indexed fields.
const (
	FieldTitle     = "title"
	FieldAuthors   = "authors"
	FieldLocations = "locations"
	FieldAbstract  = "abstract"

	idField = "_id"
)

var searchFields = []string{FieldTitle, FieldAuthors, FieldLocations, FieldAbstract}

// Analyzer names accepted by Config.
const (
	AnalyzerStandard   = "standard"
	AnalyzerEnglish    = "english"
	AnalyzerKeyword    = "keyword"
	AnalyzerSimple     = "simple"
	AnalyzerWhitespace = "whitespace"
)

// Config selects how the collection is analysed and where the index lives.
type Config struct {
	Analyzer string `yaml:"analyzer"`
	// Path keeps the index on disk. An existing index at Path is removed first.
	// Empty keeps the index in memory.
	Path string `yaml:"path"`
}

// NewAnalyzer returns the named analyzer and its canonical name. Unknown names fall
// back to english.
func NewAnalyzer(name string) (*analysis.Analyzer, string) {
	switch strings.ToLower(name) {
	case AnalyzerStandard:
		return analyzer.NewStandardAnalyzer(), AnalyzerStandard
	case AnalyzerKeyword:
		return analyzer.NewKeywordAnalyzer(), AnalyzerKeyword
	case AnalyzerSimple:
		return analyzer.NewSimpleAnalyzer(), AnalyzerSimple
	case AnalyzerWhitespace:
		return &analysis.Analyzer{Tokenizer: tokenizer.NewWhitespaceTokenizer()}, AnalyzerWhitespace
	default:
		return en.NewAnalyzer(), AnalyzerEnglish
	}
}

// Bluge ranks documents with BM25 over the title, authors, locations and abstract fields.
type Bluge struct {
	analyzer *analysis.Analyzer
	name     string
	path     string
}

// NewBluge creates a searcher from cfg.
func NewBluge(cfg Config) *Bluge {
	a, name := NewAnalyzer(cfg.Analyzer)
	return &Bluge{analyzer: a, name: name, path: cfg.Path}
}

// AnalyzerName is the canonical name of the analyzer in use.
func (s *Bluge) AnalyzerName() string {
	return s.name
}

type handle struct {
	writer *bluge.Writer
	reader *bluge.Reader
}

func (h *handle) Close() error {
	rerr := h.reader.Close()
	if err := h.writer.Close(); err != nil {
		return err
	}
	return rerr
}

// Index writes docs into a fresh index and opens a reader on it.
func (s *Bluge) Index(ctx context.Context, docs []cranfield.Document) (cranfield.IndexHandle, error) {
	cfg := bluge.InMemoryOnlyConfig()
	if s.path != "" {
		if err := os.RemoveAll(s.path); err != nil {
			return nil, errors.WrapPrefix(err, "removing previous index", 0)
		}
		cfg = bluge.DefaultConfig(s.path)
	}

	writer, err := bluge.OpenWriter(cfg)
	if err != nil {
		return nil, errors.WrapPrefix(err, "opening index writer", 0)
	}

	batch := bluge.NewBatch()
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			writer.Close()
			return nil, err
		}
		doc := bluge.NewDocument(d.ID).
			AddField(s.textField(FieldTitle, d.Title)).
			AddField(s.textField(FieldAuthors, d.Authors)).
			AddField(s.textField(FieldLocations, d.Locations)).
			AddField(s.textField(FieldAbstract, d.Abstract))
		batch.Insert(doc)
	}
	if err := writer.Batch(batch); err != nil {
		writer.Close()
		return nil, errors.WrapPrefix(err, "indexing documents", 0)
	}

	reader, err := writer.Reader()
	if err != nil {
		writer.Close()
		return nil, errors.WrapPrefix(err, "opening index reader", 0)
	}
	return &handle{writer: writer, reader: reader}, nil
}

func (s *Bluge) textField(name, value string) *bluge.TermField {
	return bluge.NewTextField(name, value).WithAnalyzer(s.analyzer).StoreValue()
}

// Search matches text against every indexed field and returns the top limit ids.
func (s *Bluge) Search(ctx context.Context, h cranfield.IndexHandle, text string, limit int) ([]string, error) {
	bh, ok := h.(*handle)
	if !ok {
		return nil, errors.New("index handle was not built by this searcher")
	}

	q := bluge.NewBooleanQuery()
	for _, f := range searchFields {
		q.AddShould(bluge.NewMatchQuery(text).SetField(f).SetAnalyzer(s.analyzer))
	}

	it, err := bh.reader.Search(ctx, bluge.NewTopNSearch(limit, q))
	if err != nil {
		return nil, errors.WrapPrefix(err, "searching index", 0)
	}

	var ids []string
	match, err := it.Next()
	for err == nil && match != nil {
		var id string
		verr := match.VisitStoredFields(func(field string, value []byte) bool {
			if field == idField {
				id = string(value)
				return false
			}
			return true
		})
		if verr != nil {
			return nil, verr
		}
		ids = append(ids, id)
		match, err = it.Next()
	}
	if err != nil {
		return nil, errors.WrapPrefix(err, "reading hits", 0)
	}
	return ids, nil
}
