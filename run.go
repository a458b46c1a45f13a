package cranfield

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
)

// WriteRun writes ranking in trec run format: `<query> Q0 <doc> <rank> <score> <run>`.
// Scores fall strictly with rank so trec_eval keeps the order.
func WriteRun(w io.Writer, run string, ranking Ranking) error {
	bw := bufio.NewWriter(w)
	for _, id := range ranking.QueryIDs() {
		docs := ranking[id]
		for i, doc := range docs {
			score := float64(len(docs) - i)
			if _, err := fmt.Fprintf(bw, "%s Q0 %s %d %g %s\n", id, doc, i+1, score, run); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

type runLine struct {
	doc   string
	rank  int
	score float64
}

// DecodeRun reads a trec run file. Within a query documents are ordered by
// descending score, then ascending rank, then file order. A document listed more
// than once for a query keeps only its best placement. The run name of the first
// line is returned.
func DecodeRun(r io.Reader) (Ranking, string, error) {
	lines := make(map[string][]runLine)
	var run string

	scanner := newLineScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		columns := strings.Fields(scanner.Text())
		if len(columns) == 0 {
			continue
		}
		if len(columns) != 6 {
			return nil, "", errors.Errorf("run line %d: expected 6 columns, found %d", n, len(columns))
		}
		rank, err := strconv.Atoi(columns[3])
		if err != nil {
			return nil, "", errors.Errorf("run line %d: rank %q is not a number", n, columns[3])
		}
		score, err := strconv.ParseFloat(columns[4], 64)
		if err != nil {
			return nil, "", errors.Errorf("run line %d: score %q is not a number", n, columns[4])
		}
		if run == "" {
			run = columns[5]
		}
		lines[columns[0]] = append(lines[columns[0]], runLine{doc: columns[2], rank: rank, score: score})
	}
	if err := scanner.Err(); err != nil {
		return nil, "", err
	}

	ranking := make(Ranking, len(lines))
	for id, ls := range lines {
		sort.SliceStable(ls, func(i, j int) bool {
			if ls[i].score != ls[j].score {
				return ls[i].score > ls[j].score
			}
			return ls[i].rank < ls[j].rank
		})
		seen := make(map[string]struct{}, len(ls))
		docs := make([]string, 0, len(ls))
		for _, l := range ls {
			if _, dup := seen[l.doc]; dup {
				continue
			}
			seen[l.doc] = struct{}{}
			docs = append(docs, l.doc)
		}
		ranking[id] = docs
	}
	return ranking, run, nil
}
