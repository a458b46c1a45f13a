// Package cranfield parses the Cranfield test collection and scores ranked runs against its judgments.
package cranfield

import (
	"bufio"
	"io"
	"strings"
	"unicode"
)

// Tag is a record delimiter of the Cranfield format.
type Tag int

const (
	TagNone Tag = iota
	TagID
	TagTitle
	TagAuthors
	TagLocations
	TagText
)

var tagTokens = map[string]Tag{
	".I": TagID,
	".T": TagTitle,
	".A": TagAuthors,
	".B": TagLocations,
	".W": TagText,
}

func (t Tag) String() string {
	switch t {
	case TagID:
		return ".I"
	case TagTitle:
		return ".T"
	case TagAuthors:
		return ".A"
	case TagLocations:
		return ".B"
	case TagText:
		return ".W"
	default:
		return "text"
	}
}

// Lex splits a line into its leading tag and the remainder. A line is tagged only when
// the tag token starts at column zero; any other line comes back as TagNone with the
// line untouched.
func Lex(line string) (Tag, string) {
	end := strings.IndexFunc(line, unicode.IsSpace)
	if end < 0 {
		end = len(line)
	}
	tag, ok := tagTokens[line[:end]]
	if !ok {
		return TagNone, line
	}
	return tag, strings.TrimSpace(line[end:])
}

// maxLineSize is the longest line any of the collection readers accept.
const maxLineSize = 1024 * 1024

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	return scanner
}
