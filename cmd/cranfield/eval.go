package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	goerrors "github.com/go-errors/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ielab/cranfield"
	"github.com/ielab/cranfield/search"
)

func evalCmd(cfg *config, log *zerolog.Logger) *cobra.Command {
	var (
		run       string
		analyzer  string
		limit     int
		noStore   bool
		trecCheck bool
	)

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Index the corpus, run every query and report MAP and mean recall",
		RunE: func(cmd *cobra.Command, args []string) error {
			if analyzer != "" {
				cfg.Search.Analyzer = analyzer
			}
			if cmd.Flags().Changed("limit") {
				cfg.Limit = limit
			}
			return evaluate(cmd, *cfg, *log, run, !noStore, trecCheck)
		},
	}

	cmd.Flags().StringVar(&run, "run", "", "run name (default: <analyzer>-bm25-<id>)")
	cmd.Flags().StringVarP(&analyzer, "analyzer", "a", "", "standard, english, keyword, simple or whitespace")
	cmd.Flags().IntVarP(&limit, "limit", "n", cranfield.DefaultLimit, "hits kept per query")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not record the run in the database")
	cmd.Flags().BoolVar(&trecCheck, "trec-eval", false, "cross-check the run with trec_eval")
	return cmd
}

func evaluate(cmd *cobra.Command, cfg config, log zerolog.Logger, run string, store, trecCheck bool) error {
	ctx := cmd.Context()

	log.Info().Str("dir", cfg.DataDir).Msg("parsing collection")
	docs, err := parseFile(log, cfg.corpusPath(), cranfield.ParseCorpus)
	if err != nil {
		return err
	}
	queries, err := parseFile(log, cfg.queriesPath(), cranfield.ParseQueries)
	if err != nil {
		return err
	}
	judgments, err := cranfield.LoadJudgments(cfg.judgmentsPath(), cfg.referencePath())
	if err := tolerateFormat(log, cfg.judgmentsPath(), err); err != nil {
		return err
	}
	log.Info().
		Int("documents", len(docs)).
		Int("queries", len(queries)).
		Int("judged", len(judgments)).
		Str("reference", cfg.referencePath()).
		Msg("collection parsed")

	searcher := search.NewBluge(cfg.Search)
	if run == "" {
		run = fmt.Sprintf("%s-bm25-%s", searcher.AnalyzerName(), uuid.NewString()[:8])
	}

	log.Info().Str("analyzer", searcher.AnalyzerName()).Msg("indexing")
	h, err := searcher.Index(ctx, docs)
	if err != nil {
		return err
	}
	defer h.Close()

	bar := progressbar.Default(int64(len(queries)), "searching")
	ranking, err := cranfield.Retrieve(ctx, searcher, h, queries, cfg.Limit, func() { _ = bar.Add(1) })
	if err != nil {
		return err
	}
	_ = bar.Finish()

	if err := writeRun(cfg.runPath(), run, ranking); err != nil {
		return err
	}

	ev, err := cranfield.Evaluator{Workers: cfg.Workers}.Evaluate(ctx, run, ranking, judgments)
	if ev != nil {
		for _, skipped := range ev.Skipped {
			log.Warn().Str("query", skipped.QueryID).Msg(skipped.Error())
		}
	}
	if err != nil {
		return err
	}

	printMetrics(cmd.OutOrStdout(), run, ev)

	if store {
		db, err := openDB(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := cranfield.AddRun(db, run, ev.Result); err != nil {
			return goerrors.WrapPrefix(err, "storing run", 0)
		}
		log.Info().Str("run", run).Str("database", cfg.Database).Msg("run stored")
	}

	if trecCheck {
		res, err := cranfield.TrecEval(ctx, cfg.TrecEval.Bin, cfg.TrecEval.Args, cfg.referencePath(), cfg.runPath())
		if err != nil {
			return err
		}
		all := res.Topics[cranfield.TopicAll]
		log.Info().
			Float64("map", all["map"]).
			Float64("recall", all["recall_1000"]).
			Msg("trec_eval")
	}
	return nil
}

// parseFile opens path and parses it, logging format violations. Only I/O errors are returned.
func parseFile[T any](log zerolog.Logger, path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, goerrors.WrapPrefix(err, "opening input", 0)
	}
	defer f.Close()

	v, err := parse(f)
	if err := tolerateFormat(log, path, err); err != nil {
		return nil, err
	}
	return v, nil
}

// tolerateFormat logs every format error in err and swallows them.
func tolerateFormat(log zerolog.Logger, path string, err error) error {
	var perrs cranfield.ParseErrors
	if !errors.As(err, &perrs) {
		return err
	}
	for _, e := range perrs {
		ev := log.Warn().Str("file", filepath.Base(path)).Int("line", e.Line)
		if e.Reason == "" {
			ev = ev.Stringer("expected", e.Expected).Stringer("found", e.Found)
		}
		ev.Msg(e.Error())
	}
	return nil
}

func writeRun(path, run string, ranking cranfield.Ranking) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return goerrors.WrapPrefix(err, "creating output directory", 0)
	}
	f, err := os.Create(path)
	if err != nil {
		return goerrors.WrapPrefix(err, "creating run file", 0)
	}
	if err := cranfield.WriteRun(f, run, ranking); err != nil {
		f.Close()
		return goerrors.WrapPrefix(err, "writing run file", 0)
	}
	return f.Close()
}

func printMetrics(w io.Writer, run string, ev *cranfield.Evaluation) {
	m := ev.Metrics()
	label := color.New(color.Bold)
	value := color.New(color.FgGreen)

	label.Fprintf(w, "run:                    ")
	fmt.Fprintln(w, run)
	label.Fprintf(w, "queries evaluated:      ")
	fmt.Fprintf(w, "%d (%d skipped)\n", len(ev.Scores), len(ev.Skipped))
	label.Fprintf(w, "Mean Average Precision: ")
	value.Fprintf(w, "%.4f\n", m.MAP)
	label.Fprintf(w, "Mean Recall:            ")
	value.Fprintf(w, "%.4f\n", m.MeanRecall)
}
