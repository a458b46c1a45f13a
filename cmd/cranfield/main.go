package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/boltdb/bolt"
	goerrors "github.com/go-errors/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ielab/cranfield"
)

func main() {
	var (
		cfgPath string
		verbose bool
		cfg     config
		log     zerolog.Logger
	)

	rootCmd := &cobra.Command{
		Use:   "cranfield",
		Short: "Evaluate ranked retrieval on the Cranfield collection",
		Long: `cranfield parses the Cranfield corpus, queries and relevance judgments,
ranks the collection with BM25 and reports MAP and mean recall.

Run 'cranfield eval' to score a configuration.
Run 'cranfield serve' to host the run leaderboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = loadConfig(cfgPath, cmd.Flags().Changed("config"))
			if err != nil {
				return err
			}
			log = newLogger(cfg, os.Stderr)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "cranfield.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print stack traces of fatal errors")

	rootCmd.AddCommand(
		evalCmd(&cfg, &log),
		serveCmd(&cfg, &log),
		runsCmd(&cfg),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var stack *goerrors.Error
		if verbose && errors.As(err, &stack) {
			fmt.Fprintln(os.Stderr, stack.ErrorStack())
		} else {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		stop()
		os.Exit(1)
	}
}

func newLogger(cfg config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Log.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func openDB(cfg config) (*bolt.DB, error) {
	db, err := bolt.Open(cfg.Database, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, goerrors.WrapPrefix(err, "opening "+cfg.Database, 0)
	}
	return db, nil
}

func runsCmd(cfg *config) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, best first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openDB(*cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			names, err := cranfield.ListRuns(db)
			if err != nil {
				return err
			}
			results, err := cranfield.GetRuns(db, names...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-40s", "run")
			for _, m := range cfg.Measures {
				fmt.Fprintf(out, " %12s", m)
			}
			fmt.Fprintln(out)
			for _, r := range cranfield.RankRuns(results, cfg.SortOn) {
				fmt.Fprintf(out, "%-40s", r.RunID)
				for _, m := range cfg.Measures {
					fmt.Fprintf(out, " %12.4f", r.Topics[cranfield.TopicAll][m])
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
