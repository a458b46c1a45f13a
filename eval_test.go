package cranfield

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func judgmentOf(relevant ...string) *Judgment {
	j := newJudgment()
	for _, d := range relevant {
		j.Relevant[d] = struct{}{}
	}
	return j
}

func TestScoreQuery(t *testing.T) {
	s := ScoreQuery([]string{"D2", "D9", "D3", "D5"}, docSet("D2", "D3"))
	assert.InDelta(t, (1.0+2.0/3.0)/2, s.AP, 1e-12)
	assert.InDelta(t, 0.8333, s.AP, 1e-4)
	assert.Equal(t, 1.0, s.Recall)
	assert.Equal(t, 2, s.Hits)
	assert.Equal(t, 2, s.Relevant)
	assert.Equal(t, 4, s.Retrieved)
}

func TestScoreQueryNoHits(t *testing.T) {
	s := ScoreQuery([]string{"D1", "D4"}, docSet("D2"))
	assert.Equal(t, 0.0, s.AP)
	assert.Equal(t, 0.0, s.Recall)

	s = ScoreQuery(nil, docSet("D2"))
	assert.Equal(t, 0.0, s.AP)
	assert.Equal(t, 0, s.Retrieved)
}

func TestScoreQueryRepeatedDocument(t *testing.T) {
	s := ScoreQuery([]string{"a", "a", "a"}, docSet("a", "b"))
	assert.Equal(t, 1, s.Hits)
	assert.Equal(t, 1.0, s.AP)
	assert.Equal(t, 0.5, s.Recall)

	s = ScoreQuery([]string{"x", "a", "a", "b"}, docSet("a", "b"))
	assert.Equal(t, 2, s.Hits)
	assert.InDelta(t, (0.5+2.0/4.0)/2, s.AP, 1e-12)
	assert.Equal(t, 1.0, s.Recall)
}

func TestScoreQueryPartialRecall(t *testing.T) {
	s := ScoreQuery([]string{"x", "a", "y", "b", "z", "c"}, docSet("a", "b", "c", "d"))
	assert.InDelta(t, 0.5, s.AP, 1e-12)
	assert.InDelta(t, 0.75, s.Recall, 1e-12)
}

func TestEvaluate(t *testing.T) {
	ranking := Ranking{
		"1": {"a"},
		"2": {"x", "a", "y", "b", "z", "c"},
	}
	judgments := Judgments{
		"1": judgmentOf("a"),
		"2": judgmentOf("a", "b", "c", "d"),
	}

	m, skipped, err := Evaluate(ranking, judgments)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	assert.InDelta(t, 0.75, m.MAP, 1e-12)
	assert.InDelta(t, 0.875, m.MeanRecall, 1e-12)

	measures := m.Measures()
	assert.InDelta(t, 0.75, measures["MAP"], 1e-12)
	assert.InDelta(t, 0.875, measures["Mean Recall"], 1e-12)
}

func TestEvaluatorResult(t *testing.T) {
	ranking := Ranking{
		"2":  {"x", "a", "y", "b", "z", "c"},
		"1":  {"a"},
		"10": {"q"},
	}
	judgments := Judgments{
		"1":  judgmentOf("a"),
		"2":  judgmentOf("a", "b", "c", "d"),
		"10": judgmentOf("r"),
	}

	ev, err := Evaluator{Workers: 2}.Evaluate(context.Background(), "bm25", ranking, judgments)
	require.NoError(t, err)

	require.Len(t, ev.Scores, 3)
	assert.Equal(t, "1", ev.Scores[0].QueryID)
	assert.Equal(t, "2", ev.Scores[1].QueryID)
	assert.Equal(t, "10", ev.Scores[2].QueryID)
	assert.Empty(t, ev.Skipped)

	assert.Equal(t, "bm25", ev.Result.RunID)
	assert.InDelta(t, 0.5, ev.Result.Topics["2"][MeasureAP], 1e-12)
	assert.InDelta(t, 0.75, ev.Result.Topics["2"][MeasureRecall], 1e-12)
	assert.Equal(t, 0.0, ev.Result.Topics["10"][MeasureAP])
	assert.InDelta(t, 0.5, ev.Metrics().MAP, 1e-12)
	assert.InDelta(t, (1+0.75+0)/3, ev.Metrics().MeanRecall, 1e-12)
}

func TestEvaluateSkipsUnjudgedQueries(t *testing.T) {
	ranking := Ranking{
		"1": {"a"},
		"2": {"a", "b"},
		"3": {"c"},
	}
	judgments := Judgments{
		"1": judgmentOf("a"),
		"2": {Relevant: docSet(), Irrelevant: docSet("a", "b")},
	}

	ev, err := Evaluator{}.Evaluate(context.Background(), "run", ranking, judgments)
	require.NoError(t, err)

	require.Len(t, ev.Skipped, 2)
	assert.Equal(t, "2", ev.Skipped[0].QueryID)
	assert.True(t, ev.Skipped[0].Empty)
	assert.Equal(t, "3", ev.Skipped[1].QueryID)
	assert.False(t, ev.Skipped[1].Empty)
	assert.ErrorIs(t, ev.Skipped[1], ErrMissingJudgment)

	// Skipped queries count neither as zero nor at all.
	require.Len(t, ev.Scores, 1)
	assert.Equal(t, 1.0, ev.Metrics().MAP)
	assert.Equal(t, 1.0, ev.Metrics().MeanRecall)
	assert.NotContains(t, ev.Result.Topics, "3")
}

func TestEvaluateNothingToScore(t *testing.T) {
	_, skipped, err := Evaluate(Ranking{"9": {"a"}}, Judgments{})
	assert.ErrorIs(t, err, ErrNothingEvaluated)
	require.Len(t, skipped, 1)
	assert.Equal(t, "9", skipped[0].QueryID)

	_, skipped, err = Evaluate(Ranking{}, Judgments{"1": judgmentOf("a")})
	assert.ErrorIs(t, err, ErrNothingEvaluated)
	assert.Empty(t, skipped)
}

func TestEvaluateReportsSkipped(t *testing.T) {
	m, skipped, err := Evaluate(Ranking{"1": {"a"}, "2": {"b"}}, Judgments{"1": judgmentOf("a")})
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.MAP)
	require.Len(t, skipped, 1)
	assert.Equal(t, "2", skipped[0].QueryID)
	assert.ErrorIs(t, skipped[0], ErrMissingJudgment)
}

func TestEvaluateOrderIndependent(t *testing.T) {
	judgments := Judgments{}
	ranking := Ranking{}
	for i, tc := range []struct {
		ranked   []string
		relevant []string
	}{
		{[]string{"a", "b", "c"}, []string{"c"}},
		{[]string{"d", "e"}, []string{"d", "e", "f"}},
		{[]string{"g"}, []string{"h"}},
		{[]string{"i", "j", "k", "l"}, []string{"j", "l"}},
	} {
		id := string(rune('1' + i))
		ranking[id] = tc.ranked
		judgments[id] = judgmentOf(tc.relevant...)
	}

	serial, err := Evaluator{Workers: 1}.Evaluate(context.Background(), "", ranking, judgments)
	require.NoError(t, err)
	parallel, err := Evaluator{Workers: 8}.Evaluate(context.Background(), "", ranking, judgments)
	require.NoError(t, err)

	assert.Equal(t, serial.Metrics(), parallel.Metrics())
	assert.Equal(t, serial.Scores, parallel.Scores)

	var sum float64
	for _, s := range serial.Scores {
		sum += s.AP
	}
	assert.InDelta(t, sum/4, serial.Metrics().MAP, 1e-12)
}

func TestEvaluateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Evaluator{}.Evaluate(ctx, "", Ranking{"1": {"a"}}, Judgments{"1": judgmentOf("a")})
	assert.ErrorIs(t, err, context.Canceled)
}
