package cranfield

import (
	"fmt"
	"strings"

	"github.com/go-errors/errors"
)

var (
	// ErrFormat marks a recoverable violation of the record format.
	ErrFormat = errors.New("record format violation")

	// ErrMissingJudgment marks a query that cannot be evaluated.
	ErrMissingJudgment = errors.New("missing relevance judgments")

	// ErrNothingEvaluated is returned when no query survived evaluation.
	ErrNothingEvaluated = errors.New("no query could be evaluated")
)

// FormatError describes one tag or payload violation. Parsing carries on after it.
type FormatError struct {
	Line     int
	Expected Tag
	Found    Tag
	Reason   string
}

func (e *FormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d: expected %s, found %s", e.Line, e.Expected, e.Found)
}

func (e *FormatError) Is(target error) bool {
	return target == ErrFormat
}

// ParseErrors is returned next to a best-effort value when the input had format violations.
type ParseErrors []*FormatError

func (p ParseErrors) Error() string {
	if len(p) == 1 {
		return p[0].Error()
	}
	msgs := make([]string, len(p))
	for i, e := range p {
		msgs[i] = e.Error()
	}
	return fmt.Sprintf("%d format errors: %s", len(p), strings.Join(msgs, "; "))
}

func (p ParseErrors) Is(target error) bool {
	return target == ErrFormat && len(p) > 0
}

// err returns nil for an empty list so callers can `return docs, errs.err()`.
func (p ParseErrors) err() error {
	if len(p) == 0 {
		return nil
	}
	return p
}

// MissingJudgmentError is reported for a ranked query that has no judgments, or no relevant documents.
type MissingJudgmentError struct {
	QueryID string
	Empty   bool
}

func (e *MissingJudgmentError) Error() string {
	if e.Empty {
		return fmt.Sprintf("query %s has no relevant documents", e.QueryID)
	}
	return fmt.Sprintf("query %s has no judgments", e.QueryID)
}

func (e *MissingJudgmentError) Is(target error) bool {
	return target == ErrMissingJudgment
}
