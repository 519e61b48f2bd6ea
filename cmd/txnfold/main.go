package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/rumor-ml/commons.systems/txnfold/internal/memory"
	"github.com/rumor-ml/commons.systems/txnfold/internal/output"
	"github.com/rumor-ml/commons.systems/txnfold/internal/pipeline"
	"github.com/rumor-ml/commons.systems/txnfold/internal/profile"
	"github.com/rumor-ml/commons.systems/txnfold/internal/scanner"
	"github.com/rumor-ml/commons.systems/txnfold/internal/ui"
)

const (
	version = "0.1.0"
)

var (
	// Global flags
	versionFlag = flag.Bool("version", false, "Show version")

	// Core CLI flags
	stateFile   = flag.String("state", "memory", "Fingerprint memory file")
	stateFormat = flag.String("state-format", "lines", "Memory store format: lines,sqlite")
	format      = flag.String("format", "tsv", "Output artifact format: tsv,xlsx")
	outputDir   = flag.String("output-dir", ".", "Directory for output artifacts")
	profileFile = flag.String("profile", "", "Report layout profile (default: embedded settlement profile)")
	dryRun      = flag.Bool("dry-run", false, "Consolidate without writing artifacts or remembering rows")
	verbose     = flag.Bool("verbose", false, "Show detailed processing logs")
)

func main() {
	// Custom usage message
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `txnfold - Consolidate periodic transaction reports

Usage:
  txnfold [flags] [report ...]

With no report arguments, txnfold scans the current directory for report
files (.csv, .tsv, .txt) and prompts for a selection.

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Environment:
  TXNFOLD_LOG  log level: debug, info, warn, error (default warn)

Examples:
  # Consolidate two settlement reports into a TSV artifact
  txnfold -state memory settlement-jan.csv settlement-feb.csv

  # Keep fingerprints in SQLite and emit a workbook
  txnfold -state memory.db -state-format sqlite -format xlsx report.csv

  # Preview what a report would add without writing anything
  txnfold -dry-run -verbose report.csv

`)
	}

	flag.Parse()

	// Handle version flag
	if *versionFlag {
		fmt.Printf("txnfold version %s\n", version)
		os.Exit(0)
	}

	configureLogging()

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configureLogging routes slog to stderr at the level named by TXNFOLD_LOG.
func configureLogging() {
	level := slog.LevelWarn
	switch strings.ToLower(os.Getenv("TXNFOLD_LOG")) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "error":
		level = slog.LevelError
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func run(args []string) error {
	ctx := context.Background()

	reg := output.NewRegistry()
	known := false
	for _, f := range reg.Formats() {
		if f == *format {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown output format %q (available: %s)", *format, strings.Join(reg.Formats(), ", "))
	}

	if !*verbose {
		ui.Header("Consolidating Transaction Reports")
	}

	paths := args
	if len(paths) == 0 {
		picked, err := pickReports()
		if err != nil {
			return err
		}
		if len(picked) == 0 {
			ui.Info("Nothing selected, nothing to do")
			return nil
		}
		paths = picked
	}

	prof, err := loadProfile()
	if err != nil {
		return err
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "Using profile %q (%d preamble rows), processing %d report(s)\n",
			prof.Name(), prof.PreambleRows(), len(paths))
	}

	store, err := buildStore(*stateFile, *stateFormat)
	if err != nil {
		return describeStoreFailure(err)
	}
	if c, ok := store.(io.Closer); ok {
		defer c.Close()
	}

	p := pipeline.New(pipeline.Config{
		Store:     store,
		Profile:   prof,
		Registry:  reg,
		Format:    *format,
		OutputDir: *outputDir,
		DryRun:    *dryRun,
		Verbose:   *verbose,
	})

	results, err := p.Run(ctx, paths)
	if err != nil {
		return describeStoreFailure(err)
	}

	var rows, folded, skipped int
	for _, r := range results {
		rows += r.Rows
		folded += r.Folded
		skipped += r.Skipped
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "Consolidated %d report(s): %d rows, %d folded, %d already remembered\n",
			len(results), rows, folded, skipped)
	} else {
		ui.Success("Consolidated %d report(s): %d rows, %d folded, %d already remembered",
			len(results), rows, folded, skipped)
	}
	if *dryRun {
		ui.Warning("Dry run: no artifacts were written and no rows were remembered")
	}
	return nil
}

// loadProfile returns the report layout to parse with: the embedded
// settlement profile unless -profile names a file.
func loadProfile() (*profile.Profile, error) {
	if *profileFile == "" {
		return profile.LoadEmbedded()
	}
	return profile.LoadFromFile(*profileFile)
}

// buildStore selects the fingerprint store implementation.
func buildStore(path, format string) (memory.Store, error) {
	switch format {
	case "lines":
		return memory.NewFileStore(path), nil
	case "sqlite":
		return memory.OpenSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown state format %q (available: lines, sqlite)", format)
	}
}

// describeStoreFailure attaches recovery guidance when the memory file
// exists but cannot be read. Every other error passes through unchanged.
func describeStoreFailure(err error) error {
	if err == nil || !errors.Is(err, memory.ErrStoreUnreadable) {
		return err
	}
	return fmt.Errorf("%w\n\nCRITICAL: The memory file exists but cannot be read.\nTreating it as empty would report every previously consolidated row as NEW.\n\nOptions:\n  1. Restore %q from a backup\n  2. Inspect the file: file %q\n  3. Reset (reprocesses ALL rows): cp %q %q.backup && rm %q",
		err, *stateFile, *stateFile, *stateFile, *stateFile, *stateFile)
}

// pickReports lists report files under the current directory and asks which
// to process. An empty answer cancels without error.
func pickReports() ([]string, error) {
	files, err := scanner.New(".").Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan current directory: %w", err)
	}
	if len(files) == 0 {
		ui.Warning("No report files found under the current directory")
		return nil, nil
	}

	ui.Info("Select reports to consolidate (e.g. 1,3 or all; empty cancels):")
	for i, f := range files {
		ui.Item(i+1, f)
	}
	fmt.Print("> ")

	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read selection: %w", err)
	}
	return parseSelection(answer, files)
}

// parseSelection resolves a picker answer ("2", "1,3", "all") to paths.
func parseSelection(answer string, files []string) ([]string, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, nil
	}
	if strings.EqualFold(answer, "all") {
		return files, nil
	}

	var picked []string
	chosen := make(map[int]bool)
	for _, part := range strings.Split(answer, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > len(files) {
			return nil, fmt.Errorf("invalid selection %q (expected numbers 1-%d, or all)", part, len(files))
		}
		if chosen[n] {
			continue
		}
		chosen[n] = true
		picked = append(picked, files[n-1])
	}
	return picked, nil
}
