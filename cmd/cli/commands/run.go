package commands

import (
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"govie-covid-scraper/internal/config"
	"govie-covid-scraper/internal/crawler"
	"govie-covid-scraper/internal/dataset"
	"govie-covid-scraper/internal/ioformats"
	"govie-covid-scraper/internal/pipeline"
	"govie-covid-scraper/pkg/logger"
)

var runFlags struct {
	config      string
	output      string
	format      string
	input       string
	logLevel    string
	concurrency int
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runFlags.config, "config", "", "YAML config file (defaults are used when empty)")
	f.StringVar(&runFlags.output, "output", "", "directory the datasets are written to")
	f.StringVar(&runFlags.format, "format", "", "output format: csv or ndjson")
	f.StringVar(&runFlags.input, "input", "", "csv (with 'url' column) or ndjson file of bulletin urls to use instead of the listing page")
	f.StringVar(&runFlags.logLevel, "log-level", "", "debug, info, warn or error")
	f.IntVar(&runFlags.concurrency, "concurrency", 0, "bulletins fetched in parallel")
	rootCmd.AddCommand(runCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if runFlags.config != "" {
		var err error
		if cfg, err = config.Load(runFlags.config); err != nil {
			return nil, err
		}
	}
	f := cmd.Flags()
	if f.Changed("output") {
		cfg.Output.Dir = runFlags.output
	}
	if f.Changed("format") {
		cfg.Output.Format = strings.ToLower(runFlags.format)
	}
	if f.Changed("input") {
		cfg.Source.Input = runFlags.input
	}
	if f.Changed("log-level") {
		cfg.Logging.Level = strings.ToLower(runFlags.logLevel)
	}
	if f.Changed("concurrency") {
		cfg.Fetch.Concurrency = runFlags.concurrency
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var runCmd = &cobra.Command{
	Use:   "run [--config <file>] [--output <dir>]",
	Short: "Scrapes every bulletin and writes one dataset file per category.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		l := logger.NewWithLevel(cfg.Logging.Level)
		l.Infof("starting with %s", cfg)

		client := crawler.NewHTTPClient(crawler.Options{
			Timeout:     cfg.Fetch.Timeout(),
			DialTimeout: cfg.Fetch.DialTimeout(),
			SizeCap:     cfg.Fetch.MaxBodyBytes,
			UserAgent:   cfg.Fetch.UserAgent,
		})

		start := time.Now()
		acc, err := pipeline.New(cfg, client, l).Run(cmd.Context())
		if err != nil {
			return err
		}
		paths, err := ioformats.WriteDatasets(cfg.Output.Dir, cfg.Output.Format, acc.Datasets())
		if err != nil {
			return err
		}
		l.Infof("wrote %d files in %s", len(paths), time.Since(start).Round(time.Millisecond))

		renderSummary(cmd.OutOrStdout(), acc, paths)
		return nil
	},
}

func renderSummary(w io.Writer, acc *dataset.Accumulator, paths []string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Category", "Rows", "Columns", "File"})
	for i, d := range acc.Datasets() {
		t.AppendRow(table.Row{d.Category(), d.Len(), strings.Join(d.Columns(), ", "), paths[i]})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
