package cranfield

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Ranking maps a query number to its retrieved documents, best first.
type Ranking map[string][]string

// QueryIDs returns the ranked query numbers in numeric order.
func (r Ranking) QueryIDs() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// QueryScore holds the per-query statistics.
type QueryScore struct {
	QueryID   string  `json:"query_id"`
	AP        float64 `json:"ap"`
	Recall    float64 `json:"recall"`
	Hits      int     `json:"hits"`
	Relevant  int     `json:"relevant"`
	Retrieved int     `json:"retrieved"`
}

// ScoreQuery walks ranked in order. Precision is sampled at every rank holding a
// relevant document; AP is the mean of those samples and 0 when there are none.
// A document repeated in ranked counts only at its first rank. relevant must not
// be empty.
func ScoreQuery(ranked []string, relevant map[string]struct{}) QueryScore {
	hits := 0
	sum := 0.0
	seen := make(map[string]struct{}, len(relevant))
	for i, doc := range ranked {
		if _, ok := relevant[doc]; !ok {
			continue
		}
		if _, dup := seen[doc]; dup {
			continue
		}
		seen[doc] = struct{}{}
		hits++
		sum += float64(hits) / float64(i+1)
	}

	s := QueryScore{
		Hits:      hits,
		Relevant:  len(relevant),
		Retrieved: len(ranked),
	}
	if hits > 0 {
		s.AP = sum / float64(hits)
	}
	s.Recall = float64(hits) / float64(len(relevant))
	return s
}

// Evaluation is the outcome of scoring one run.
type Evaluation struct {
	Result  *Result
	Scores  []QueryScore
	Skipped []*MissingJudgmentError
}

// Metrics returns MAP and mean recall of the evaluation.
func (e *Evaluation) Metrics() Metrics {
	return e.Result.Metrics()
}

// Evaluator scores rankings against judgments. Queries are scored concurrently by up
// to Workers goroutines; zero means GOMAXPROCS.
type Evaluator struct {
	Workers int
}

// Evaluate scores every query of ranking. A query without judgments, or whose
// judgments hold no relevant document, is left out of both means and listed in
// Skipped. Means are unweighted and accumulated in query-number order.
func (e Evaluator) Evaluate(ctx context.Context, run string, ranking Ranking, judgments Judgments) (*Evaluation, error) {
	ev := &Evaluation{Result: NewResult(run)}

	var ids []string
	for _, id := range ranking.QueryIDs() {
		j, ok := judgments[id]
		switch {
		case !ok:
			ev.Skipped = append(ev.Skipped, &MissingJudgmentError{QueryID: id})
		case len(j.Relevant) == 0:
			ev.Skipped = append(ev.Skipped, &MissingJudgmentError{QueryID: id, Empty: true})
		default:
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return ev, ErrNothingEvaluated
	}

	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	scores := make([]QueryScore, len(ids))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s := ScoreQuery(ranking[id], judgments[id].Relevant)
			s.QueryID = id
			scores[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var sumAP, sumRecall float64
	for _, s := range scores {
		sumAP += s.AP
		sumRecall += s.Recall
		ev.Result.set(s.QueryID, MeasureAP, s.AP)
		ev.Result.set(s.QueryID, MeasureRecall, s.Recall)
	}
	n := float64(len(scores))
	ev.Result.set(TopicAll, MeasureMAP, sumAP/n)
	ev.Result.set(TopicAll, MeasureMeanRecall, sumRecall/n)
	ev.Scores = scores
	return ev, nil
}

// Evaluate computes MAP and mean recall with a default Evaluator. The queries left
// out of the means are returned next to the metrics, also when err is
// ErrNothingEvaluated.
func Evaluate(ranking Ranking, judgments Judgments) (Metrics, []*MissingJudgmentError, error) {
	ev, err := Evaluator{}.Evaluate(context.Background(), "", ranking, judgments)
	if ev == nil {
		return Metrics{}, nil, err
	}
	if err != nil {
		return Metrics{}, ev.Skipped, err
	}
	return ev.Metrics(), ev.Skipped, nil
}
