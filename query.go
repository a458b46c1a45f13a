package cranfield

import (
	"io"
	"strings"

	"github.com/go-errors/errors"
)

// Query is one topic of the query file. SequenceNumber counts queries from 1 in file
// order and is the number the judgment file refers to.
type Query struct {
	ID             string
	SequenceNumber int
	Text           string
}

type queryState int

const (
	queryStart queryState = iota
	queryHeader
	queryText
)

var queryExpect = [...]Tag{
	queryStart:  TagID,
	queryHeader: TagText,
	queryText:   TagID,
}

type queryParser struct {
	line    int
	state   queryState
	queries []Query
	current Query
	pending []string
	errs    ParseErrors
}

// ParseQueries reads a Cranfield query file. Question marks are removed from every line.
// Violations are collected into ParseErrors as in ParseCorpus.
func ParseQueries(r io.Reader) ([]Query, error) {
	var p queryParser
	scanner := newLineScanner(r)
	for scanner.Scan() {
		p.line++
		p.feed(strings.ReplaceAll(scanner.Text(), "?", ""))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapPrefix(err, "reading queries", 0)
	}
	p.finish()
	return p.queries, p.errs.err()
}

func (p *queryParser) feed(line string) {
	tag, rest := Lex(line)
	expected := queryExpect[p.state]

	switch tag {
	case TagNone:
		text := strings.TrimSpace(line)
		if text == "" {
			return
		}
		if p.state != queryText {
			p.errs = append(p.errs, &FormatError{Line: p.line, Expected: expected, Found: TagNone})
			return
		}
		p.pending = append(p.pending, text)
	case TagID:
		if tag != expected {
			p.errs = append(p.errs, &FormatError{Line: p.line, Expected: expected, Found: tag})
		}
		p.finish()
		p.current = Query{ID: rest, SequenceNumber: len(p.queries) + 1}
		p.state = queryHeader
	case TagText:
		if tag != expected {
			p.errs = append(p.errs, &FormatError{Line: p.line, Expected: expected, Found: tag})
			if p.state == queryStart {
				return
			}
		}
		p.state = queryText
	default:
		p.errs = append(p.errs, &FormatError{Line: p.line, Expected: expected, Found: tag})
	}
}

func (p *queryParser) finish() {
	if p.state == queryStart {
		return
	}
	p.current.Text = strings.Join(p.pending, " ")
	p.queries = append(p.queries, p.current)
	p.pending = p.pending[:0]
}
