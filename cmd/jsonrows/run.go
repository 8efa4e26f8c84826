package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"jsonrows/internal/config"
	"jsonrows/internal/datasource"
	"jsonrows/internal/driver"
	"jsonrows/internal/emitter"
	"jsonrows/internal/metrics"
	"jsonrows/internal/storage"
)

const (
	defaultBatchSize     = 1000
	defaultChannelBuffer = 256
)

// Function variables used to introduce test seams.
// In production these point to real implementations; tests can override them.
var (
	newRepositoryFn = func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return storage.New(ctx, cfg)
	}

	ensureTableFn = storage.EnsureTable

	openInputFn = datasource.New
)

// runtimeConfig is the resolved loader sizing for a run. Values come from the
// pipeline with optional environment variable overrides (12-factor style).
type runtimeConfig struct {
	batchSize  int
	bufferSize int
}

func newRuntimeConfig(p config.Pipeline) runtimeConfig {
	return runtimeConfig{
		batchSize:  getenvInt("JSONROWS_BATCH_SIZE", pickInt(p.Runtime.BatchSize, defaultBatchSize)),
		bufferSize: getenvInt("JSONROWS_CHANNEL_BUFFER", pickInt(p.Runtime.ChannelBuffer, defaultChannelBuffer)),
	}
}

// getenvInt returns the positive integer in env var key, or def.
func getenvInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// pickInt returns v when positive, otherwise def.
func pickInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

// runPipeline opens the backend, optionally creates the table, and streams
// every input chunk through the driver into batched CopyFrom calls.
//
// Rows travel driver → BatchSink channel → loader goroutine → repo.CopyFrom.
// A failed batch stops the loader, which fails the next Append and ends the
// run with an io-class error.
func runPipeline(ctx context.Context, p config.Pipeline, job string, verbose bool) error {
	task, err := p.Task()
	if err != nil {
		return fmt.Errorf("parser config: %w", err)
	}
	spec, err := p.SourceSpec()
	if err != nil {
		return fmt.Errorf("source config: %w", err)
	}
	scfg, err := p.StorageConfig()
	if err != nil {
		return fmt.Errorf("storage config: %w", err)
	}
	rt := newRuntimeConfig(p)

	log.Printf("stream runtime: batch=%d buffer=%d columns=%d", rt.batchSize, rt.bufferSize, len(scfg.Columns))
	if verbose {
		log.Printf("connecting to storage kind=%s table=%s", scfg.Kind, scfg.Table)
	}

	repo, err := newRepositoryFn(ctx, scfg)
	if err != nil {
		return fmt.Errorf("init repo: %w", err)
	}
	defer repo.Close()

	if p.Storage.DB.AutoCreateTable {
		if err := ensureTableExists(ctx, repo, scfg); err != nil {
			return err
		}
	}

	in, err := openInputFn(spec)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}

	copyFn := func(ctx context.Context, columns []string, rows [][]any) (int64, error) {
		start := time.Now()
		n, err := repo.CopyFrom(ctx, columns, rows)
		metrics.RecordStep(job, "load", err, time.Since(start))
		if err == nil {
			metrics.RecordBatches(job, 1)
		}
		return n, err
	}
	sink := emitter.NewBatchSink(ctx, scfg.Table, scfg.Columns, rt.batchSize, rt.bufferSize, copyFn)

	sum, runErr := driver.Run(ctx, task, in, sink, driver.Options{Job: job, Verbose: verbose})
	loaded := sink.Stats()
	metrics.RecordRow(job, "inserted", loaded.Rows)
	logSummary(sum, loaded, runErr)

	return runErr
}

// ensureTableExists applies the DDL derived from the parser columns.
func ensureTableExists(ctx context.Context, repo storage.Repository, cfg storage.Config) error {
	log.Printf("auto-create table enabled for %s", cfg.Table)
	if err := ensureTableFn(ctx, cfg, repo); err != nil {
		return fmt.Errorf("apply DDL: %w", err)
	}
	log.Printf("table ensured: %s", cfg.Table)
	return nil
}

// logSummary prints final statistics for the run.
//
// For a successful run:
//
//	records == emitted == inserted
//
// skipped records never reach the sink.
func logSummary(sum driver.Summary, loaded storage.LoadStats, runErr error) {
	inserted := loaded.Rows
	status := "ok"
	if runErr != nil {
		status = fmt.Sprintf("failed(%s)", driver.ClassOf(runErr))
	}
	log.Printf(
		"summary: run_id=%s status=%s chunks=%d records=%d skipped=%d emitted=%d inserted=%d batches=%d digest=%016x elapsed=%s",
		sum.RunID,
		status,
		sum.Chunks,
		sum.Records,
		sum.Skipped,
		sum.Rows,
		inserted,
		loaded.Batches,
		sum.Digest,
		sum.Duration.Truncate(time.Millisecond),
	)

	if runErr == nil && (sum.Records != sum.Rows || sum.Rows != inserted) {
		log.Printf(
			"WARNING: row accounting mismatch: records=%d emitted=%d inserted=%d",
			sum.Records,
			sum.Rows,
			inserted,
		)
	}
}
