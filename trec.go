package cranfield

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/go-errors/errors"
)

// TrecEval calls the trec_eval binary at bin with the arguments, the qrels file, and run file
// and returns a set of results.
func TrecEval(ctx context.Context, bin, args, qrels, run string) (*Result, error) {
	cmd := exec.CommandContext(ctx, bin, append(append(strings.Fields(args), qrels), run)...)

	r, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, errors.WrapPrefix(err, "starting "+bin, 0)
	}

	s := bufio.NewScanner(r)
	var buff bytes.Buffer
	for s.Scan() {
		// The scanner strips newlines; Decode needs them back.
		buff.Write(append(s.Bytes(), '\n'))
	}

	if err := cmd.Wait(); err != nil {
		return nil, errors.Errorf("%s: %v: %s", bin, err, strings.TrimSpace(stderr.String()))
	}

	return Decode(&buff)
}
