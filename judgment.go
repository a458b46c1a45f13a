package cranfield

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-errors/errors"
)

// RelevantGrade is the highest grade still counted as relevant. Cranfield grades run
// from 1 (complete answer) down to 5 (no interest); -1 marks a query-level reference.
const RelevantGrade = 3

// Judgment partitions the judged documents of one query.
type Judgment struct {
	Relevant   map[string]struct{}
	Irrelevant map[string]struct{}
}

func newJudgment() *Judgment {
	return &Judgment{
		Relevant:   make(map[string]struct{}),
		Irrelevant: make(map[string]struct{}),
	}
}

// IsRelevant reports whether doc was judged relevant.
func (j *Judgment) IsRelevant(doc string) bool {
	_, ok := j.Relevant[doc]
	return ok
}

// Judgments maps a query number to its judgment.
type Judgments map[string]*Judgment

// Qrel is one line of the canonical trec-style listing.
type Qrel struct {
	QueryID string
	DocID   string
	Grade   int
}

func (q Qrel) String() string {
	return fmt.Sprintf("%s 0 %s %d", q.QueryID, q.DocID, q.Grade)
}

// ParseJudgments reads `<query> <doc> <grade>` lines. It returns the partitioned
// judgments and the listing in input order. A document judged twice for the same
// query keeps its last grade. Lines that are not three fields with a numeric grade
// are skipped and reported in ParseErrors.
func ParseJudgments(r io.Reader) (Judgments, []Qrel, error) {
	judgments := make(Judgments)
	var listing []Qrel
	var errs ParseErrors

	scanner := newLineScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		columns := strings.Fields(scanner.Text())
		if len(columns) == 0 {
			continue
		}
		if len(columns) != 3 {
			errs = append(errs, &FormatError{
				Line:   line,
				Reason: fmt.Sprintf("expected 3 columns, found %d", len(columns)),
			})
			continue
		}
		grade, err := strconv.Atoi(columns[2])
		if err != nil {
			errs = append(errs, &FormatError{
				Line:   line,
				Reason: fmt.Sprintf("grade %q is not a number", columns[2]),
			})
			continue
		}

		q := Qrel{QueryID: columns[0], DocID: columns[1], Grade: grade}
		listing = append(listing, q)

		j, ok := judgments[q.QueryID]
		if !ok {
			j = newJudgment()
			judgments[q.QueryID] = j
		}
		delete(j.Relevant, q.DocID)
		delete(j.Irrelevant, q.DocID)
		if grade <= RelevantGrade {
			j.Relevant[q.DocID] = struct{}{}
		} else {
			j.Irrelevant[q.DocID] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.WrapPrefix(err, "reading judgments", 0)
	}
	return judgments, listing, errs.err()
}

// WriteQrels writes the listing, one `<query> 0 <doc> <grade>` line per entry.
func WriteQrels(w io.Writer, listing []Qrel) error {
	bw := bufio.NewWriter(w)
	for _, q := range listing {
		if _, err := fmt.Fprintln(bw, q.String()); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadJudgments parses the judgment file at path and persists the canonical listing
// to listingPath for trec_eval. Format errors come back as ParseErrors with the
// judgments; failing to read or write either file is fatal.
func LoadJudgments(path, listingPath string) (Judgments, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapPrefix(err, "opening judgments", 0)
	}
	defer f.Close()

	judgments, listing, parseErr := ParseJudgments(f)
	if judgments == nil {
		return nil, parseErr
	}

	if err := os.MkdirAll(filepath.Dir(listingPath), 0755); err != nil {
		return nil, errors.WrapPrefix(err, "creating listing directory", 0)
	}
	out, err := os.Create(listingPath)
	if err != nil {
		return nil, errors.WrapPrefix(err, "creating listing", 0)
	}
	if err := WriteQrels(out, listing); err != nil {
		out.Close()
		return nil, errors.WrapPrefix(err, "writing listing", 0)
	}
	if err := out.Close(); err != nil {
		return nil, errors.WrapPrefix(err, "closing listing", 0)
	}
	return judgments, parseErr
}

// QueryIDs returns the judged query numbers in numeric order where possible.
func (js Judgments) QueryIDs() []string {
	ids := make([]string, 0, len(js))
	for id := range js {
		ids = append(ids, id)
	}
	sortIDs(ids)
	return ids
}

// sortIDs orders numeric ids by value and anything else after them lexically.
func sortIDs(ids []string) {
	sort.Slice(ids, func(a, b int) bool {
		na, errA := strconv.Atoi(ids[a])
		nb, errB := strconv.Atoi(ids[b])
		switch {
		case errA == nil && errB == nil:
			return na < nb
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ids[a] < ids[b]
	})
}
