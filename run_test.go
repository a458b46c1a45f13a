package cranfield

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRun(&buf, "bm25", Ranking{
		"2": {"12", "7"},
		"1": {"184"},
	}))
	assert.Equal(t, "1 Q0 184 1 1 bm25\n2 Q0 12 1 2 bm25\n2 Q0 7 2 1 bm25\n", buf.String())

	ranking, run, err := DecodeRun(&buf)
	require.NoError(t, err)
	assert.Equal(t, "bm25", run)
	assert.Equal(t, Ranking{"1": {"184"}, "2": {"12", "7"}}, ranking)
}

func TestDecodeRunOrdersByScore(t *testing.T) {
	input := `3 Q0 a 3 0.2 other
3 Q0 b 1 0.9 other
3 Q0 c 2 0.9 other
4 Q0 d 1 1.0 other
`
	ranking, run, err := DecodeRun(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, "other", run)
	assert.Equal(t, []string{"b", "c", "a"}, ranking["3"])
	assert.Equal(t, []string{"d"}, ranking["4"])
}

func TestDecodeRunRepeatedDocument(t *testing.T) {
	input := "1 Q0 a 1 3 r\n1 Q0 a 2 2 r\n1 Q0 a 3 1 r\n1 Q0 b 4 0.5 r\n"
	ranking, _, err := DecodeRun(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ranking["1"])

	m, _, err := Evaluate(ranking, Judgments{"1": judgmentOf("a", "b")})
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.MAP)
	assert.Equal(t, 1.0, m.MeanRecall)
}

func TestDecodeRunInvalid(t *testing.T) {
	for _, input := range []string{
		"1 Q0 a 1 0.5\n",
		"1 Q0 a first 0.5 run\n",
		"1 Q0 a 1 high run\n",
	} {
		_, _, err := DecodeRun(strings.NewReader(input))
		assert.Error(t, err, input)
	}
}
