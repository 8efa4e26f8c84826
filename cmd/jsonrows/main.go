// Command jsonrows materializes the records of JSON documents into typed rows
// and bulk-loads them into the configured storage backend.
//
//	jsonrows -config pipeline.yaml [-validate] [-v] [-metrics-backend pushgateway|datadog|none]
//	         [-pushgateway-url URL] [-datadog-addr ADDR] [-job NAME]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"jsonrows/internal/config"
	"jsonrows/internal/metrics"
	"jsonrows/internal/metrics/datadog"
	"jsonrows/internal/metrics/prompush"

	// register all backends with the storage factory.
	// config specifies which to use but we need to build in support for all of them.
	_ "jsonrows/internal/storage/all"
)

// cliOptions is the parsed command line.
type cliOptions struct {
	cfgPath        string
	validate       bool
	verbose        bool
	metricsBackend string
	pushGatewayURL string
	datadogAddr    string
	job            string
}

func main() {
	var o cliOptions

	flag.StringVar(&o.cfgPath, "config", "pipeline.yaml", "pipeline config path (.yaml, .yml or .json)")
	flag.BoolVar(&o.validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&o.verbose, "v", false, "enable verbose logs")
	flag.StringVar(&o.metricsBackend, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (overrides env METRICS_BACKEND)")
	flag.StringVar(&o.pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&o.datadogAddr, "datadog-addr", "", "DogStatsD address (overrides env DD_DOGSTATSD_ADDR)")
	flag.StringVar(&o.job, "job", "", "job name for logs and metrics (overrides the pipeline job)")

	flag.Parse()

	log.SetOutput(os.Stderr)

	os.Exit(execute(context.Background(), o, os.Stderr))
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, o cliOptions, stderr io.Writer) int {
	p, err := config.Load(o.cfgPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %v", o.cfgPath)
		return 1
	}
	if o.validate {
		log.Printf("Configuration is valid: %v", o.cfgPath)
		return 0
	}

	job := resolveJob(o.job, p.Job)

	flush := setupMetrics(o, job)
	defer flush()

	start := time.Now()
	if o.verbose {
		log.Printf("pipeline: job=%s source=%s root=%s storage=%s table=%s",
			job, p.Source.Kind, p.Parser.Root, p.Storage.Kind, p.Storage.DB.Table)
	}

	if err := runPipeline(ctx, p, job, o.verbose); err != nil {
		log.Printf("run failed: %v", err)
		return 1
	}

	if o.verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	return 0
}

// resolveJob picks the job name: flag, then pipeline, then the default.
func resolveJob(flagJob, pipelineJob string) string {
	switch {
	case flagJob != "":
		return flagJob
	case pipelineJob != "":
		return pipelineJob
	default:
		return prompush.DefaultJob
	}
}

// firstNonEmpty returns the first non-empty value.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// setupMetrics installs the selected metrics backend and returns the flush
// to run on exit. Backend selection: flag, then METRICS_BACKEND, then none.
// A backend that fails to initialize leaves the no-op backend in place.
func setupMetrics(o cliOptions, job string) (flush func()) {
	flush = func() {}
	backendName := firstNonEmpty(o.metricsBackend, os.Getenv("METRICS_BACKEND"))

	var b metrics.Backend
	switch backendName {
	case "pushgateway":
		gwURL := firstNonEmpty(o.pushGatewayURL, os.Getenv("PUSHGATEWAY_URL"), "http://localhost:9091")
		pb, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return flush
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, job)
		b = pb

	case "datadog":
		addr := firstNonEmpty(o.datadogAddr, os.Getenv("DD_DOGSTATSD_ADDR"), "127.0.0.1:8125")
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       addr,
			Namespace:  "jsonrows.",
			GlobalTags: []string{"service:jsonrows"},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return flush
		}
		log.Printf("metrics: addr=%v, backend=%v, job_name=%v", addr, backendName, job)
		b = db

	case "", "none":
		if o.verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}
		return flush

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
		return flush
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}
