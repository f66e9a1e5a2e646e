// Package pipeline drives a scrape: discover bulletins, fetch each one, and
// push every table through classification, normalization and accumulation.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"govie-covid-scraper/internal/bulletin"
	"govie-covid-scraper/internal/classifier"
	"govie-covid-scraper/internal/config"
	"govie-covid-scraper/internal/crawler"
	"govie-covid-scraper/internal/dataset"
	"govie-covid-scraper/internal/ioformats"
	"govie-covid-scraper/internal/models"
	"govie-covid-scraper/internal/normalizer"
	"govie-covid-scraper/internal/parser"
	"govie-covid-scraper/pkg/logger"
)

// Fetcher retrieves a whole HTML document.
type Fetcher interface {
	FetchAll(ctx context.Context, rawURL string) ([]byte, *crawler.Response, error)
}

// Runner scrapes bulletins with one configuration, fetcher and logger.
type Runner struct {
	cfg   *config.Config
	fetch Fetcher
	par   *parser.Parser
	cl    *classifier.Classifier
	log   *logger.Logger
}

// New returns a Runner. fetch may be nil when only ProcessBulletin is used.
func New(cfg *config.Config, fetch Fetcher, l *logger.Logger) *Runner {
	return &Runner{
		cfg:   cfg,
		fetch: fetch,
		par:   parser.New(),
		cl:    classifier.New(),
		log:   l,
	}
}

// Links returns the bulletin URLs to process: the configured input file
// when there is one, otherwise the press releases on the listing page.
func (r *Runner) Links(ctx context.Context) ([]string, error) {
	if r.cfg.Source.Input != "" {
		urls, err := ioformats.ReadURLs(r.cfg.Source.Input)
		if err != nil {
			return nil, fmt.Errorf("read bulletin urls: %w", err)
		}
		return urls, nil
	}
	listing := r.cfg.ListingURL()
	data, _, err := r.fetch.FetchAll(ctx, listing)
	if err != nil {
		return nil, fmt.Errorf("fetch listing %s: %w", listing, err)
	}
	links, err := bulletin.PressReleaseLinksFromHTML(bytes.NewReader(data), r.cfg.Source.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse listing %s: %w", listing, err)
	}
	return links, nil
}

type fetched struct {
	page    parser.Page
	fetchMs int64
	err     error
}

// Run processes every bulletin in listing order and returns the filled
// datasets. The first bulletin that cannot be fetched or decoded aborts the
// run. With concurrency above one, bulletins are fetched in parallel but
// still merged in listing order.
func (r *Runner) Run(ctx context.Context) (*dataset.Accumulator, error) {
	links, err := r.Links(ctx)
	if err != nil {
		return nil, err
	}
	r.log.Infof("found %d press releases: %v", len(links), links)

	var (
		wg         sync.WaitGroup
		dispatched = make(chan struct{})
	)
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		<-dispatched
		wg.Wait()
	}()

	results := make([]fetched, len(links))
	ready := make([]chan struct{}, len(links))
	for i := range ready {
		ready[i] = make(chan struct{})
	}

	// bounded concurrency
	sem := make(chan struct{}, max(r.cfg.Fetch.Concurrency, 1))
	go func() {
		defer close(dispatched)
		for i, u := range links {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			if ctx.Err() != nil {
				return
			}
			r.log.Infof("getting tables from %s", u)
			wg.Add(1)
			go func(i int, u string) {
				defer func() { <-sem; close(ready[i]); wg.Done() }()
				results[i] = r.fetchBulletin(ctx, u)
			}(i, u)
		}
	}()

	acc := dataset.NewAccumulator()
	for i, u := range links {
		select {
		case <-ready[i]:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		res := results[i]
		if res.err != nil {
			return nil, fmt.Errorf("bulletin %s: %w", u, res.err)
		}
		r.ProcessBulletin(u, res.page, acc)
	}
	return acc, nil
}

func (r *Runner) fetchBulletin(ctx context.Context, u string) fetched {
	data, resp, err := r.fetch.FetchAll(ctx, u)
	if err != nil {
		return fetched{err: err}
	}
	r.log.Debugf("fetched %s in %s", u, resp.Elapsed)
	page, err := r.par.ExtractBytes(data, resp.ContentType)
	if err != nil {
		return fetched{err: fmt.Errorf("parse: %w", err)}
	}
	return fetched{page: page, fetchMs: resp.Elapsed.Milliseconds()}
}

// FetchBulletin fetches and processes a single bulletin. Tables are
// accumulated into acc when it is not nil.
func (r *Runner) FetchBulletin(ctx context.Context, u string, acc *dataset.Accumulator) (models.BulletinResult, error) {
	res := r.fetchBulletin(ctx, u)
	if res.err != nil {
		return models.BulletinResult{}, res.err
	}
	out := r.ProcessBulletin(u, res.page, acc)
	out.FetchMs = res.fetchMs
	return out, nil
}

// ProcessBulletin reads the publication date of page and runs each of its
// tables through classification and normalization. Tables are accumulated
// into acc when it is not nil.
func (r *Runner) ProcessBulletin(source string, page parser.Page, acc *dataset.Accumulator) models.BulletinResult {
	log := r.log.With("source", source)
	date := bulletin.PublishedDate(page.HTML)
	if date == "" {
		log.Warnf("no published date found")
	}
	out := models.BulletinResult{
		SourceURL:     source,
		PublishedDate: date,
		Tables:        []models.TableResult{},
	}
	if len(page.Tables) == 0 {
		log.Infof("no tables found")
		return out
	}
	log.Infof("%d tables found", len(page.Tables))

	meta := models.Provenance{PublishedDate: date, Source: source}
	for i, raw := range page.Tables {
		class := r.cl.Explain(raw)
		table := normalizer.Normalize(raw, class.Label, meta)
		added := acc != nil && acc.Add(table)
		log.Debugf("table %d: %s (%s), %d rows kept", i, class.Label, class.Reason, len(table.Rows))
		out.Tables = append(out.Tables, models.TableResult{
			Index:          i,
			Classification: class,
			Table:          table,
			Accumulated:    added,
		})
	}
	return out
}
