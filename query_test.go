package cranfield

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wellFormedQueries = `.I 001
.W
what similarity laws must be obeyed when constructing aeroelastic models
of heated high speed aircraft?
.I 002
.W
what are the structural and aeroelastic problems associated with flight
of high speed aircraft ?
.I 004
.W
what problems of heat conduction in composite slabs have been solved so
far?
`

func TestParseQueries(t *testing.T) {
	queries, err := ParseQueries(strings.NewReader(wellFormedQueries))
	require.NoError(t, err)
	require.Len(t, queries, 3)

	assert.Equal(t, Query{
		ID:             "001",
		SequenceNumber: 1,
		Text:           "what similarity laws must be obeyed when constructing aeroelastic models of heated high speed aircraft",
	}, queries[0])
	assert.Equal(t, "what are the structural and aeroelastic problems associated with flight of high speed aircraft", queries[1].Text)

	for i, q := range queries {
		assert.Equal(t, i+1, q.SequenceNumber)
		assert.NotContains(t, q.Text, "?")
	}
	assert.Equal(t, "004", queries[2].ID)
}

func TestParseQueriesFormatErrors(t *testing.T) {
	input := `.I 1
stray text
.W
first query
.T
still first
.I 2
.I 3
.W
third
`
	queries, err := ParseQueries(strings.NewReader(input))
	require.ErrorIs(t, err, ErrFormat)

	perrs := formatErrors(t, err)
	require.Len(t, perrs, 3)
	assert.Equal(t, 2, perrs[0].Line)
	assert.Equal(t, TagText, perrs[0].Expected)
	assert.Equal(t, 5, perrs[1].Line)
	assert.Equal(t, TagTitle, perrs[1].Found)
	assert.Equal(t, 8, perrs[2].Line)
	assert.Equal(t, TagID, perrs[2].Found)

	require.Len(t, queries, 3)
	assert.Equal(t, "first query still first", queries[0].Text)
	assert.Equal(t, Query{ID: "2", SequenceNumber: 2}, queries[1])
	assert.Equal(t, Query{ID: "3", SequenceNumber: 3, Text: "third"}, queries[2])
}

func TestParseQueriesEmpty(t *testing.T) {
	queries, err := ParseQueries(strings.NewReader("\n\n"))
	require.NoError(t, err)
	assert.Empty(t, queries)
}

func TestParseQueriesLongLine(t *testing.T) {
	long := strings.Repeat("boundary layer ", 10000)
	queries, err := ParseQueries(strings.NewReader(".I 001\n.W\n" + long + "\n"))
	require.NoError(t, err)
	require.Len(t, queries, 1)
	assert.Equal(t, strings.TrimSpace(long), queries[0].Text)
}
