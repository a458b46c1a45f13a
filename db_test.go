package cranfield

import (
	"path/filepath"
	"testing"

	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *bolt.DB {
	t.Helper()
	db, err := bolt.Open(filepath.Join(t.TempDir(), "runs.db"), 0600, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func storedResult(run string, mapScore, recall float64) *Result {
	r := NewResult(run)
	r.set(TopicAll, MeasureMAP, mapScore)
	r.set(TopicAll, MeasureMeanRecall, recall)
	r.set("1", MeasureAP, 0.9)
	return r
}

func TestAddGetRun(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, AddRun(db, "english-bm25", storedResult("english-bm25", 0.41, 0.92)))

	got, err := GetRun(db, "english-bm25")
	require.NoError(t, err)
	assert.Equal(t, "english-bm25", got.RunID)
	assert.Equal(t, map[string]float64{MeasureMAP: 0.41, MeasureMeanRecall: 0.92}, got.Topics[TopicAll])
	assert.NotContains(t, got.Topics, "1")

	// Storing again replaces the measures.
	require.NoError(t, AddRun(db, "english-bm25", storedResult("english-bm25", 0.43, 0.9)))
	got, err = GetRun(db, "english-bm25")
	require.NoError(t, err)
	assert.Equal(t, 0.43, got.Metrics().MAP)
}

func TestGetRunMissing(t *testing.T) {
	db := openTestDB(t)
	got, err := GetRun(db, "nothing")
	require.NoError(t, err)
	assert.Empty(t, got.Topics[TopicAll])
}

func TestListAndRankRuns(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AddRun(db, "standard", storedResult("standard", 0.30, 0.95)))
	require.NoError(t, AddRun(db, "english", storedResult("english", 0.41, 0.90)))
	require.NoError(t, AddRun(db, "keyword", storedResult("keyword", 0.02, 0.10)))

	names, err := ListRuns(db)
	require.NoError(t, err)
	assert.Equal(t, []string{"english", "keyword", "standard"}, names)

	results, err := GetRuns(db, names...)
	require.NoError(t, err)
	require.Len(t, results, 3)

	var order []string
	for _, r := range RankRuns(results, MeasureMAP) {
		order = append(order, r.RunID)
	}
	assert.Equal(t, []string{"english", "standard", "keyword"}, order)

	order = order[:0]
	for _, r := range RankRuns(results, MeasureMeanRecall) {
		order = append(order, r.RunID)
	}
	assert.Equal(t, []string{"standard", "english", "keyword"}, order)
}
