// Package pipeline orchestrates reading transaction reports into
// consolidated artifacts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/rumor-ml/commons.systems/txnfold/internal/consolidate"
	"github.com/rumor-ml/commons.systems/txnfold/internal/memory"
	"github.com/rumor-ml/commons.systems/txnfold/internal/output"
	"github.com/rumor-ml/commons.systems/txnfold/internal/profile"
	"github.com/rumor-ml/commons.systems/txnfold/internal/report"
	"github.com/rumor-ml/commons.systems/txnfold/internal/ui"
)

// FileResult summarizes one processed report file.
type FileResult struct {
	Path     string
	Rows     int    // data rows read from the report
	Folded   int    // rows folded into the consolidation
	Skipped  int    // rows skipped as already remembered
	Groups   int    // consolidated rows in the artifact
	Artifact string // artifact path, empty on dry runs
}

// Config carries the collaborators and settings for a Pipeline.
type Config struct {
	Store     memory.Store
	Profile   *profile.Profile
	Registry  *output.Registry
	Format    string
	OutputDir string
	DryRun    bool
	Verbose   bool
	Now       func() time.Time
	Logger    *slog.Logger
}

// Pipeline processes report files into consolidated artifacts.
type Pipeline struct {
	store     memory.Store
	prof      *profile.Profile
	registry  *output.Registry
	format    string
	outputDir string
	dryRun    bool
	verbose   bool
	now       func() time.Time
	log       *slog.Logger
}

// New creates a pipeline from the given configuration.
func New(cfg Config) *Pipeline {
	if cfg.Registry == nil {
		cfg.Registry = output.NewRegistry()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Pipeline{
		store:     cfg.Store,
		prof:      cfg.Profile,
		registry:  cfg.Registry,
		format:    cfg.Format,
		outputDir: cfg.OutputDir,
		dryRun:    cfg.DryRun,
		verbose:   cfg.Verbose,
		now:       cfg.Now,
		log:       cfg.Logger,
	}
}

// ProcessFile consolidates a single report file. Rows whose fingerprint is
// already remembered are skipped before any decoding happens, so a report
// that was processed once contributes nothing the second time. Fingerprints
// are persisted only after the artifact has been written.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*FileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mem, err := memory.Load(p.store)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	r, err := report.NewReader(f, p.prof, path)
	if err != nil {
		return nil, err
	}

	agg := consolidate.NewAggregator(mem, p.prof.AdjustmentSKU())
	result := &FileResult{Path: path}
	for {
		record, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		result.Rows++

		fp := memory.FingerprintRecord(record)
		if agg.Seen(fp) {
			result.Skipped++
			continue
		}

		txn, err := r.Decode(record)
		if err != nil {
			return nil, err
		}
		if _, err := agg.Fold(consolidate.Classify(txn), fp); err != nil {
			return nil, err
		}
	}

	rows, err := agg.Finalize()
	if err != nil {
		return nil, err
	}
	result.Folded = agg.Folded()
	result.Groups = len(rows)

	// Dry runs stop here: no artifact, no fingerprints remembered.
	if p.dryRun {
		return result, nil
	}

	name, err := p.registry.ArtifactName(p.format, p.now())
	if err != nil {
		return nil, err
	}
	artifact := filepath.Join(p.outputDir, name)
	sink, err := p.registry.Build(p.format, artifact)
	if err != nil {
		return nil, err
	}
	if err := sink.Write(output.Header(), rows); err != nil {
		return nil, fmt.Errorf("failed to write artifact %s: %w", artifact, err)
	}
	result.Artifact = artifact

	// Persist strictly after the artifact lands. A failed write leaves the
	// rows unremembered so the next run folds them again.
	if err := mem.Persist(); err != nil {
		return nil, fmt.Errorf("artifact %s written but fingerprints not persisted: %w", artifact, err)
	}

	return result, nil
}

// Run processes each report in order. A failing report is recorded and the
// remaining reports still run, except when the fingerprint store itself is
// unreadable: that aborts the run since every file would hit the same wall.
func (p *Pipeline) Run(ctx context.Context, paths []string) ([]*FileResult, error) {
	log := p.log.With("run_id", uuid.NewString())
	log.Info("starting run",
		"files", len(paths),
		"memory", p.store.Name(),
		"format", p.format,
		"dry_run", p.dryRun)

	var results []*FileResult
	failed := 0
	for i, path := range paths {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		if p.verbose {
			fmt.Fprintf(os.Stderr, "Processing %s\n", path)
		} else {
			ui.Step(i+1, len(paths), "Consolidating %s", filepath.Base(path))
		}

		result, err := p.ProcessFile(ctx, path)
		if err != nil {
			if errors.Is(err, memory.ErrStoreUnreadable) {
				return results, err
			}
			failed++
			log.Error("report failed", "path", path, "error", err)
			ui.Error("%s: %v", filepath.Base(path), err)
			continue
		}
		results = append(results, result)

		log.Info("report consolidated",
			"path", path,
			"rows", result.Rows,
			"folded", result.Folded,
			"skipped", result.Skipped,
			"groups", result.Groups,
			"artifact", result.Artifact)

		switch {
		case p.verbose:
			fmt.Fprintf(os.Stderr, "  %d rows: %d folded, %d already remembered\n",
				result.Rows, result.Folded, result.Skipped)
			if result.Artifact != "" {
				fmt.Fprintf(os.Stderr, "  wrote %s\n", result.Artifact)
			}
		case p.dryRun:
			ui.Info("%d rows: %d new, %d already remembered (dry run, nothing written)",
				result.Rows, result.Folded, result.Skipped)
		default:
			ui.Success("%s: %d rows folded into %d", filepath.Base(result.Artifact), result.Rows, result.Groups)
		}
	}

	if failed > 0 {
		return results, fmt.Errorf("%d of %d report(s) failed", failed, len(paths))
	}
	return results, nil
}
