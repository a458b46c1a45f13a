package cranfield

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/boltdb/bolt"
)

// AddRun stores the aggregate measures of result in the bucket named run,
// replacing any measure already stored under the same name.
func AddRun(db *bolt.DB, run string, result *Result) error {
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(run))
		if err != nil {
			return err
		}
		for k, v := range result.Topics[TopicAll] {
			var buff [8]byte
			binary.BigEndian.PutUint64(buff[:], math.Float64bits(v))
			err := b.Put([]byte(k), buff[:])
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRun loads a stored run. A run that was never stored comes back with no measures.
func GetRun(db *bolt.DB, run string) (*Result, error) {
	result := NewResult(run)
	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(run))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			result.Topics[TopicAll][string(k)] = math.Float64frombits(binary.BigEndian.Uint64(v))
			return nil
		})
	})
	return result, err
}

// GetRuns loads several runs keyed by name.
func GetRuns(db *bolt.DB, runs ...string) (map[string]*Result, error) {
	results := make(map[string]*Result)
	for _, run := range runs {
		var err error
		results[run], err = GetRun(db, run)
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// ListRuns returns the names of all stored runs, sorted.
func ListRuns(db *bolt.DB) ([]string, error) {
	var runs []string
	err := db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			runs = append(runs, string(name))
			return nil
		})
	})
	sort.Strings(runs)
	return runs, err
}

// RankRuns orders results by measure, best first. Ties keep name order.
func RankRuns(results map[string]*Result, measure string) []*Result {
	ranked := make([]*Result, 0, len(results))
	for _, r := range results {
		ranked = append(ranked, r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		vi, vj := ranked[i].Topics[TopicAll][measure], ranked[j].Topics[TopicAll][measure]
		if vi != vj {
			return vi > vj
		}
		return ranked[i].RunID < ranked[j].RunID
	})
	return ranked
}
