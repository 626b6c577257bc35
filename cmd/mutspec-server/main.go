// Command mutspec-server provides a REST API over one loaded reference.
//
// Usage:
//
//	mutspec-server [options]
//
// Options:
//
//	-config   YAML config file
//	-ref      FASTA reference (required)
//	-port     Port to listen on (default: 8080)
//	-host     Host to bind to (default: localhost)
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/aria-lang/mutspec-go/api/handlers"
	"github.com/aria-lang/mutspec-go/api/middleware"
	"github.com/aria-lang/mutspec-go/internal/config"
	"github.com/aria-lang/mutspec-go/pkg/mutspec"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	refPath := flag.String("ref", "", "FASTA reference")
	port := flag.Int("port", 0, "Port to listen on (overrides config)")
	host := flag.String("host", "", "Host to bind to (overrides config)")
	flag.Parse()

	logger := logrus.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Could not load config: %v", err)
	}
	if *refPath != "" {
		cfg.Reference = *refPath
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *host != "" {
		cfg.Host = *host
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}
	level, _ := logrus.ParseLevel(cfg.LogLevel)
	logger.SetLevel(level)

	if cfg.Reference == "" {
		logger.Fatal("A reference is required (-ref or MUTSPEC_REFERENCE)")
	}
	ref, err := mutspec.LoadReference(cfg.Reference)
	if err != nil {
		logger.Fatalf("Could not load reference: %v", err)
	}

	// Probe endpoints are only served for probe-labelled references.
	probes, err := mutspec.LoadProbes(ref)
	if err == nil {
		probes, err = cfg.ProbeMap(probes)
	}
	if err != nil {
		logger.WithError(err).Warn("reference is not probe-labelled, remapping disabled")
		probes = nil
	}

	opts, err := cfg.ParseOptions(logger)
	if err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"reference": cfg.Reference,
		"records":   ref.Size(),
		"probes":    probes != nil,
	}).Info("reference loaded")

	h := handlers.New(ref, probes, opts, logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", h.Routes)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(homePage))
	})

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("server is shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Fatalf("Could not gracefully shutdown: %v", err)
		}
		close(done)
	}()

	logger.Infof("mutspec API server starting on http://%s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Could not listen on %s: %v", addr, err)
	}

	<-done
	logger.Info("server stopped")
}

const homePage = `<!DOCTYPE html>
<html>
<head>
    <title>mutspec API</title>
    <style>
        body { font-family: system-ui, sans-serif; max-width: 800px; margin: 2rem auto; padding: 0 1rem; }
        h1 { color: #2563eb; }
        pre { background: #f3f4f6; padding: 1rem; border-radius: 0.5rem; overflow-x: auto; }
        .endpoint { margin: 1rem 0; padding: 1rem; border: 1px solid #e5e7eb; border-radius: 0.5rem; }
        .method { display: inline-block; padding: 0.25rem 0.5rem; background: #10b981; color: white; border-radius: 0.25rem; font-size: 0.875rem; }
    </style>
</head>
<body>
    <h1>mutspec API</h1>
    <p>Mutational spectra and sequence contexts over the loaded reference.</p>

    <h2>Endpoints</h2>

    <div class="endpoint">
        <span class="method">GET</span> <code>/api/reference</code>
        <p>Record ids and summary statistics of the reference.</p>
    </div>

    <div class="endpoint">
        <span class="method">POST</span> <code>/api/kmer/extract</code>
        <p>Window around one reference position.</p>
        <pre>{"seq_id": "chr1", "position": 1200, "k": 3}</pre>
    </div>

    <div class="endpoint">
        <span class="method">POST</span> <code>/api/kmer/background</code>
        <p>Reference k-mer counts in one strand notation.</p>
        <pre>{"k": 3, "notation": "pyrimidine"}</pre>
    </div>

    <div class="endpoint">
        <span class="method">POST</span> <code>/api/canonicalize</code>
        <p>Map a site to the pyrimidine or purine strand.</p>
        <pre>{"ref": "G", "context": "CGG", "counts": {"A": 4}}</pre>
    </div>

    <div class="endpoint">
        <span class="method">POST</span> <code>/api/substitution/complement</code>
        <p>Strand complement and class of a substitution type.</p>
        <pre>{"type": "C>T"}</pre>
    </div>

    <div class="endpoint">
        <span class="method">POST</span> <code>/api/probe/remap</code>
        <p>Map a genomic coordinate to a probe and offset.</p>
        <pre>{"chrom": "chr2", "position": 103}</pre>
    </div>

    <div class="endpoint">
        <span class="method">POST</span> <code>/api/spectrum?format=essigmann&amp;kmer=3</code>
        <p>Spectrum of a per-position count file sent as the request body.</p>
    </div>
</body>
</html>`
