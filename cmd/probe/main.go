package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"jsonrows/internal/datasource"
	"jsonrows/internal/probe"
)

// main is the entrypoint for the probing CLI. It samples the first input of a
// JSON source, infers the record root and column types, and prints a starter
// jsonrows pipeline (YAML by default) followed by the CREATE TABLE it implies.
//
// The resulting config is intended to be hand-edited and then used with
// cmd/jsonrows.
func main() {
	var (
		flagFile = flag.String(
			"file",
			"",
			"Local JSON file to sample ('-' reads stdin)",
		)
		flagURL = flag.String(
			"url",
			"",
			"URL of the JSON document to sample",
		)
		flagRoot = flag.String(
			"root",
			"",
			"Path selecting the record array; guessed when empty",
		)
		flagRecords = flag.Int(
			"n",
			probe.DefaultSampleRecords,
			"Maximum number of records to inspect",
		)
		flagBytes = flag.Int64(
			"bytes",
			probe.DefaultMaxBytes,
			"Maximum decompressed bytes to read from the input",
		)
		flagName = flag.String(
			"name",
			"dataset_name",
			"Logical dataset name (used in storage.db.table, etc.)",
		)
		flagJob = flag.String(
			"job",
			"",
			"Logical job name; defaults to a normalized version of -name when empty",
		)
		flagBackend = flag.String(
			"backend",
			probe.DefaultBackend,
			"Storage backend to target: sqlite|postgres|mssql|mysql|mongo|console",
		)
		flagCompression = flag.String(
			"compression",
			"auto",
			"Input compression: auto|none|gzip|zstd|lz4",
		)
		flagEncoding = flag.String(
			"encoding",
			"",
			"Input charset; empty means UTF-8",
		)
		flagSave = flag.Bool(
			"save",
			false,
			"Write the sampled bytes to [name].json in the current directory",
		)
		flagFormat = flag.String(
			"format",
			"yaml",
			"Output format for the pipeline: yaml|json",
		)
		flagNoDDL = flag.Bool(
			"no-ddl",
			false,
			"Do not print the CREATE TABLE statement",
		)
	)
	flag.Parse()

	spec, err := sourceSpec(*flagFile, *flagURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}
	spec.Compression = *flagCompression
	spec.Encoding = *flagEncoding
	spec.MaxChunkBytes = *flagBytes

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	res, err := probe.Probe(ctx, probe.Options{
		Source:        spec,
		Root:          *flagRoot,
		SampleRecords: *flagRecords,
		Name:          *flagName,
		Job:           *flagJob,
		Backend:       *flagBackend,
		SaveSample:    *flagSave,
	})
	if err != nil {
		log.Fatalf("probe: %v", err)
	}
	log.Printf("probe: root=%s documents=%d records=%d skipped=%d columns=%d",
		res.Sample.Root, res.Sample.Documents, res.Sample.Records, res.Sample.Skipped, len(res.Sample.Columns))

	if err := write(os.Stdout, res, *flagFormat, !*flagNoDDL); err != nil {
		log.Fatalf("probe: %v", err)
	}
}

// sourceSpec picks the input from the -file and -url flags.
func sourceSpec(file, url string) (datasource.Spec, error) {
	switch {
	case file != "" && url != "":
		return datasource.Spec{}, fmt.Errorf("use either -file or -url, not both")
	case file == "-":
		return datasource.Spec{Kind: datasource.KindStdin}, nil
	case file != "":
		return datasource.Spec{Kind: datasource.KindFile, Path: file}, nil
	case url != "":
		return datasource.Spec{Kind: datasource.KindHTTP, URL: url, Timeout: 30 * time.Second, MaxRetries: 2}, nil
	default:
		return datasource.Spec{}, fmt.Errorf("missing -file or -url")
	}
}

// write prints the pipeline and, for SQL backends, the DDL as a comment block
// (YAML) or after a blank line (JSON).
func write(w io.Writer, res probe.Result, format string, withDDL bool) error {
	var (
		out []byte
		err error
	)
	switch format {
	case "json":
		out, err = probe.RenderJSON(res)
	case "yaml", "yml", "":
		out, err = probe.RenderYAML(res)
	default:
		return fmt.Errorf("unknown -format %q", format)
	}
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	if !withDDL || res.DDL == "" {
		return nil
	}
	if format == "json" {
		_, err = fmt.Fprintf(w, "\n%s\n", res.DDL)
		return err
	}
	_, err = fmt.Fprintf(w, "\n# auto_create_table applies:\n%s\n", commentLines(res.DDL))
	return err
}

func commentLines(s string) string {
	var b []byte
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == '\n' {
			b = append(b, "# "...)
			b = append(b, s[start:i]...)
			if i < len(s) {
				b = append(b, '\n')
			}
			start = i + 1
		}
	}
	return string(b)
}
