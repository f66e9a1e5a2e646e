package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"govie-covid-scraper/internal/config"
	"govie-covid-scraper/internal/crawler"
	"govie-covid-scraper/internal/models"
	"govie-covid-scraper/internal/parser"
	"govie-covid-scraper/internal/pipeline"
	"govie-covid-scraper/pkg/logger"
)

type bulletinReq struct {
	URL string `json:"url"`
}

type batchReq struct {
	URLs []string `json:"urls"`
}

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	cfgPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			logger.New().Errorf("load config: %v", err)
			os.Exit(1)
		}
	}
	l := logger.NewWithLevel(cfg.Logging.Level)

	client := crawler.NewHTTPClient(crawler.Options{
		Timeout:     cfg.Fetch.Timeout(),
		DialTimeout: cfg.Fetch.DialTimeout(),
		SizeCap:     cfg.Fetch.MaxBodyBytes,
		UserAgent:   cfg.Fetch.UserAgent,
	})
	runner := pipeline.New(cfg, client, l)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      logRequest(l, newMux(runner, cfg.Fetch.Concurrency, cfg.Fetch.MaxBodyBytes)),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		l.Infof("server listening on %s", *addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			l.Errorf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	l.Infof("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	l.Infof("bye")
}

func newMux(runner *pipeline.Runner, concurrency int, maxBody int64) *http.ServeMux {
	mux := http.NewServeMux()
	par := parser.New()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// POST /bulletin  { "url": "https://www.gov.ie/en/press-release/..." }
	mux.HandleFunc("/bulletin", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		var req bulletinReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.URL == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
		defer cancel()

		res, err := runner.FetchBulletin(ctx, req.URL, nil)
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	// POST /bulletin/html?source=<url>  raw bulletin markup as the body
	mux.HandleFunc("/bulletin/html", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		page, err := par.Extract(io.LimitReader(r.Body, maxBody), r.Header.Get("Content-Type"))
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, runner.ProcessBulletin(r.URL.Query().Get("source"), page, nil))
	})

	// POST /bulletin/batch  { "urls": ["https://...", "..."] }
	mux.HandleFunc("/bulletin/batch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		var req batchReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.URLs) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}

		type out struct {
			URL    string                 `json:"url"`
			Result *models.BulletinResult `json:"result,omitempty"`
			Error  string                 `json:"error,omitempty"`
		}

		results := make([]out, len(req.URLs))

		// bounded concurrency
		sem := make(chan struct{}, concurrency)
		done := make(chan int, len(req.URLs))

		for i, u := range req.URLs {
			i, u := i, u
			sem <- struct{}{} // acquire
			go func() {
				defer func() { <-sem; done <- i }()
				if u == "" {
					results[i] = out{URL: u, Error: "empty url"}
					return
				}
				ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
				defer cancel()
				res, err := runner.FetchBulletin(ctx, u, nil)
				if err != nil {
					results[i] = out{URL: u, Error: err.Error()}
					return
				}
				results[i] = out{URL: u, Result: &res}
			}()
		}
		for range req.URLs {
			<-done
		}
		writeJSON(w, http.StatusOK, results)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func logRequest(l *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Infof("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
