package main

import (
	"net/http"
	"time"

	"github.com/boltdb/bolt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ielab/cranfield"
)

// maxRunSize bounds an uploaded run file.
const maxRunSize = 64 << 20

type server struct {
	db        *bolt.DB
	config    config
	judgments cranfield.Judgments
	log       zerolog.Logger

	registry  *prometheus.Registry
	uploads   *prometheus.CounterVec
	evalTime  prometheus.Histogram
	evaluated prometheus.Counter
}

type result struct {
	Run      string    `json:"run"`
	Measures []float64 `json:"measures"`
}

type response struct {
	Measures []string `json:"measures"`
	Results  []result `json:"results"`
}

func newServer(db *bolt.DB, cfg config, judgments cranfield.Judgments, log zerolog.Logger) *server {
	s := &server{
		db:        db,
		config:    cfg,
		judgments: judgments,
		log:       log,
		registry:  prometheus.NewRegistry(),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cranfield_run_uploads_total",
			Help: "Run uploads by outcome.",
		}, []string{"status"}),
		evalTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cranfield_evaluation_duration_seconds",
			Help:    "Time spent scoring an uploaded run.",
			Buckets: prometheus.DefBuckets,
		}),
		evaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cranfield_queries_evaluated_total",
			Help: "Queries scored across all uploaded runs.",
		}),
	}
	s.registry.MustRegister(s.uploads, s.evalTime, s.evaluated)
	return s
}

func (s *server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = 8 << 20

	r.GET("/", s.index)
	r.GET("/runs", s.index)
	r.GET("/runs/:name", s.getRun)
	r.POST("/runs", s.addRun)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	return r
}

func (s *server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	}
}

func (s *server) index(c *gin.Context) {
	r, err := s.buildRunsTable()
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (s *server) getRun(c *gin.Context) {
	name := c.Param("name")
	result, err := cranfield.GetRun(s.db, name)
	if err != nil {
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if len(result.Topics[cranfield.TopicAll]) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "run " + name + " not found"})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *server) addRun(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxRunSize)

	// Grab the run file from the POST form.
	file, err := c.FormFile("run")
	if err != nil {
		s.uploads.WithLabelValues("rejected").Inc()
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	f, err := file.Open()
	if err != nil {
		s.uploads.WithLabelValues("failed").Inc()
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	defer f.Close()

	ranking, runName, err := cranfield.DecodeRun(f)
	if err != nil {
		s.uploads.WithLabelValues("rejected").Inc()
		s.fail(c, http.StatusBadRequest, err)
		return
	}
	name := c.PostForm("name")
	if name == "" {
		name = runName
	}
	if name == "" {
		name = uuid.NewString()
	}

	start := time.Now()
	ev, err := cranfield.Evaluator{Workers: s.config.Workers}.Evaluate(c.Request.Context(), name, ranking, s.judgments)
	s.evalTime.Observe(time.Since(start).Seconds())
	if err != nil {
		s.uploads.WithLabelValues("rejected").Inc()
		s.fail(c, http.StatusUnprocessableEntity, err)
		return
	}
	s.evaluated.Add(float64(len(ev.Scores)))

	// Update the stored measures for this run.
	if err := cranfield.AddRun(s.db, name, ev.Result); err != nil {
		s.uploads.WithLabelValues("failed").Inc()
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	s.uploads.WithLabelValues("stored").Inc()

	skipped := make([]string, len(ev.Skipped))
	for i, e := range ev.Skipped {
		skipped[i] = e.QueryID
	}
	s.log.Info().Str("run", name).Float64("map", ev.Metrics().MAP).Int("skipped", len(skipped)).Msg("run stored")
	c.JSON(http.StatusCreated, gin.H{
		"run":     name,
		"metrics": ev.Metrics().Measures(),
		"scores":  ev.Scores,
		"skipped": skipped,
	})
}

func (s *server) fail(c *gin.Context, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *server) buildRunsTable() (*response, error) {
	var r response
	r.Measures = s.config.Measures
	r.Results = []result{}

	names, err := cranfield.ListRuns(s.db)
	if err != nil {
		return nil, err
	}
	results, err := cranfield.GetRuns(s.db, names...)
	if err != nil {
		return nil, err
	}

	for _, run := range cranfield.RankRuns(results, s.config.SortOn) {
		row := result{Run: run.RunID, Measures: make([]float64, len(r.Measures))}
		for j, measure := range r.Measures {
			row.Measures[j] = run.Topics[cranfield.TopicAll][measure]
		}
		r.Results = append(r.Results, row)
	}
	return &r, nil
}

func serveCmd(cfg *config, log *zerolog.Logger) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run leaderboard and accept run uploads",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Addr = addr
			}

			judgments, err := cranfield.LoadJudgments(cfg.judgmentsPath(), cfg.referencePath())
			if err := tolerateFormat(*log, cfg.judgmentsPath(), err); err != nil {
				return err
			}

			db, err := openDB(*cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			gin.SetMode(gin.ReleaseMode)
			s := newServer(db, *cfg, judgments, *log)
			srv := &http.Server{Addr: cfg.Addr, Handler: s.routes()}

			go func() {
				<-cmd.Context().Done()
				_ = srv.Close()
			}()

			log.Info().Str("addr", cfg.Addr).Int("judged", len(judgments)).Msg("leaderboard listening")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
