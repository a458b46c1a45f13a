package cranfield

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
)

// Document is one record of the collection.
type Document struct {
	ID        string
	Title     string
	Authors   string
	Locations string
	Abstract  string
}

// corpusState names the section currently being read.
type corpusState int

const (
	corpusStart corpusState = iota
	corpusHeader
	corpusTitle
	corpusAuthors
	corpusLocations
	corpusText
)

// corpusExpect is the tag that legally closes each state.
var corpusExpect = [...]Tag{
	corpusStart:     TagID,
	corpusHeader:    TagTitle,
	corpusTitle:     TagAuthors,
	corpusAuthors:   TagLocations,
	corpusLocations: TagText,
	corpusText:      TagID,
}

// corpusEnter is the state a tag opens, wherever it appears.
var corpusEnter = map[Tag]corpusState{
	TagID:        corpusHeader,
	TagTitle:     corpusTitle,
	TagAuthors:   corpusAuthors,
	TagLocations: corpusLocations,
	TagText:      corpusText,
}

// documentBuilder accumulates one record. Lines of the open section are held in
// pending until the section is closed by the tag that legally follows it.
type documentBuilder struct {
	doc     Document
	open    bool
	pending []string
}

func (b *documentBuilder) start(id string) {
	b.doc = Document{ID: id}
	b.open = true
	b.pending = b.pending[:0]
}

func (b *documentBuilder) add(line string) {
	b.pending = append(b.pending, line)
}

func (b *documentBuilder) commit(s corpusState) {
	var field *string
	switch s {
	case corpusTitle:
		field = &b.doc.Title
	case corpusAuthors:
		field = &b.doc.Authors
	case corpusLocations:
		field = &b.doc.Locations
	case corpusText:
		field = &b.doc.Abstract
	}
	if field != nil && len(b.pending) > 0 {
		*field = strings.Join(b.pending, " ")
	}
	b.pending = b.pending[:0]
}

func (b *documentBuilder) discard() {
	b.pending = b.pending[:0]
}

func (b *documentBuilder) finish(s corpusState) Document {
	b.commit(s)
	b.open = false
	return b.doc
}

type corpusParser struct {
	line  int
	state corpusState
	b     documentBuilder
	docs  []Document
	errs  ParseErrors
}

// ParseCorpus reads a Cranfield document collection. Records come back in input order.
//
// Tag violations do not stop the parse: every violation is collected and returned as
// ParseErrors next to the documents that could be recovered. A record-start tag that
// arrives before the remaining sections of a record simply leaves those sections empty.
// Any other out-of-order tag drops the text of the section it interrupted. Only a read
// failure returns a nil slice.
func ParseCorpus(r io.Reader) ([]Document, error) {
	var p corpusParser
	scanner := newLineScanner(r)
	for scanner.Scan() {
		p.line++
		p.feed(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WrapPrefix(err, "reading corpus", 0)
	}
	if p.b.open {
		p.docs = append(p.docs, p.b.finish(p.state))
	}
	return p.docs, p.errs.err()
}

func (p *corpusParser) feed(line string) {
	tag, rest := Lex(line)
	if tag == TagNone {
		text := strings.TrimSpace(line)
		if text == "" {
			return
		}
		if p.state == corpusStart || p.state == corpusHeader {
			p.errs = append(p.errs, &FormatError{
				Line:     p.line,
				Expected: corpusExpect[p.state],
				Found:    TagNone,
			})
			return
		}
		p.b.add(text)
		return
	}

	expected := corpusExpect[p.state]
	switch {
	case tag == expected:
		p.b.commit(p.state)
	case tag == TagID:
		p.b.commit(p.state)
	default:
		p.errs = append(p.errs, &FormatError{Line: p.line, Expected: expected, Found: tag})
		p.b.discard()
	}

	if tag == TagID {
		p.startRecord(rest)
	}
	p.state = corpusEnter[tag]
}

func (p *corpusParser) startRecord(payload string) {
	if p.b.open {
		p.docs = append(p.docs, p.b.finish(p.state))
	}
	want := len(p.docs) + 1
	if n, err := strconv.Atoi(payload); err != nil {
		p.errs = append(p.errs, &FormatError{
			Line:   p.line,
			Found:  TagID,
			Reason: fmt.Sprintf("record id %q is not a number", payload),
		})
	} else if n != want {
		p.errs = append(p.errs, &FormatError{
			Line:   p.line,
			Found:  TagID,
			Reason: fmt.Sprintf("record id %d out of sequence, expected %d", n, want),
		})
	}
	p.b.start(payload)
}
