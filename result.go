package cranfield

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
)

// Measure names used in a Result.
const (
	MeasureMAP        = "MAP"
	MeasureMeanRecall = "Mean Recall"
	MeasureAP         = "AP"
	MeasureRecall     = "Recall"

	// TopicAll keys the aggregate measures, as trec_eval does.
	TopicAll = "all"
)

// Result represents the measures of one run, either computed here or decoded from trec_eval.
type Result struct {
	RunID  string                        `json:"run_id"`
	Topics map[string]map[string]float64 `json:"topics"` // Each topic is keyed to its measures.
}

// NewResult returns an empty result for run.
func NewResult(run string) *Result {
	return &Result{
		RunID:  run,
		Topics: map[string]map[string]float64{TopicAll: {}},
	}
}

func (r *Result) set(topic, measure string, v float64) {
	if _, ok := r.Topics[topic]; !ok {
		r.Topics[topic] = make(map[string]float64)
	}
	r.Topics[topic][measure] = v
}

// Metrics are the two corpus-level statistics of an evaluation.
type Metrics struct {
	MAP        float64 `json:"map"`
	MeanRecall float64 `json:"mean_recall"`
}

// Measures returns the metrics keyed by their display names.
func (m Metrics) Measures() map[string]float64 {
	return map[string]float64{
		MeasureMAP:        m.MAP,
		MeasureMeanRecall: m.MeanRecall,
	}
}

// Metrics reads the aggregate measures back out of a result.
func (r *Result) Metrics() Metrics {
	all := r.Topics[TopicAll]
	return Metrics{MAP: all[MeasureMAP], MeanRecall: all[MeasureMeanRecall]}
}

// Decode will decode trec_eval output (`measure topic value` lines) into a Result.
func Decode(r io.Reader) (*Result, error) {

	var result Result
	result.Topics = make(map[string]map[string]float64)

	// Read the input line by line.
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {

		line := scanner.Text()
		columns := strings.Fields(line)
		if len(columns) == 0 {
			continue
		}
		if len(columns) != 3 {
			return nil, errors.New("invalid number of columns in evaluation output")
		}

		name := columns[0]
		topic := columns[1]

		// Special case: the runid must be parsed separately.
		if topic == TopicAll && name == "runid" {
			result.RunID = columns[2]
			continue
		}

		v, err := strconv.ParseFloat(columns[2], 64)
		if err != nil {
			return nil, errors.WrapPrefix(err, "measure "+name, 0)
		}

		result.set(topic, name, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &result, nil
}
