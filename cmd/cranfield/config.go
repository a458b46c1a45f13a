package main

import (
	"os"
	"path/filepath"

	"github.com/go-errors/errors"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/ielab/cranfield"
	"github.com/ielab/cranfield/search"
)

type config struct {
	DataDir   string `yaml:"data_dir" envconfig:"DATA_DIR"`
	Corpus    string `yaml:"corpus" envconfig:"CORPUS"`
	Queries   string `yaml:"queries" envconfig:"QUERIES"`
	Judgments string `yaml:"judgments" envconfig:"JUDGMENTS"`

	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	Reference string `yaml:"reference" envconfig:"REFERENCE"`
	RunFile   string `yaml:"run_file" envconfig:"RUN_FILE"`
	Database  string `yaml:"database" envconfig:"DATABASE"`

	Limit   int `yaml:"limit" envconfig:"LIMIT"`
	Workers int `yaml:"workers" envconfig:"WORKERS"`

	Search search.Config `yaml:"search" envconfig:"SEARCH"`

	TrecEval struct {
		Bin  string `yaml:"bin" envconfig:"BIN"`
		Args string `yaml:"args" envconfig:"ARGS"`
	} `yaml:"trec_eval" envconfig:"TREC_EVAL"`

	Measures []string `yaml:"measures" envconfig:"MEASURES"`
	SortOn   string   `yaml:"sort_on" envconfig:"SORT_ON"`
	Addr     string   `yaml:"addr" envconfig:"ADDR"`

	Log struct {
		Level  string `yaml:"level" envconfig:"LEVEL"`
		Format string `yaml:"format" envconfig:"FORMAT"`
	} `yaml:"log" envconfig:"LOG"`
}

func defaultConfig() config {
	var c config
	c.DataDir = "data/cran"
	c.Corpus = "cran.all.1400"
	c.Queries = "cran.qry"
	c.Judgments = "cranqrel"
	c.OutputDir = "output"
	c.Reference = "reference.txt"
	c.RunFile = "results.txt"
	c.Database = "cranfield.db"
	c.Limit = cranfield.DefaultLimit
	c.Search.Analyzer = search.AnalyzerEnglish
	c.TrecEval.Bin = "trec_eval"
	c.Measures = []string{cranfield.MeasureMAP, cranfield.MeasureMeanRecall}
	c.SortOn = cranfield.MeasureMAP
	c.Addr = ":8088"
	c.Log.Level = "info"
	c.Log.Format = "console"
	return c
}

// loadConfig layers the yaml file at path (skipped when missing and not explicit)
// and CRANFIELD_* environment variables over the defaults.
func loadConfig(path string, explicit bool) (config, error) {
	c := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return c, errors.WrapPrefix(err, "parsing "+path, 0)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return c, errors.WrapPrefix(err, "reading config", 0)
	}

	if err := envconfig.Process("cranfield", &c); err != nil {
		return c, errors.WrapPrefix(err, "reading environment", 0)
	}
	return c, nil
}

func (c config) corpusPath() string    { return filepath.Join(c.DataDir, c.Corpus) }
func (c config) queriesPath() string   { return filepath.Join(c.DataDir, c.Queries) }
func (c config) judgmentsPath() string { return filepath.Join(c.DataDir, c.Judgments) }
func (c config) referencePath() string { return filepath.Join(c.OutputDir, c.Reference) }
func (c config) runPath() string       { return filepath.Join(c.OutputDir, c.RunFile) }
