// Package pipeline composes the discovery stages: catalog listing,
// classification, best-match resolution, and concurrent enrichment.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/BadgerOps/pybootstrap/internal/catalog"
	"github.com/BadgerOps/pybootstrap/internal/enrich"
	"github.com/BadgerOps/pybootstrap/internal/variant"
)

// Catalog lists the assets of the latest upstream release.
type Catalog interface {
	LatestRelease(ctx context.Context) (*catalog.Release, error)
}

// Enricher attaches build metadata to paired install-only variants.
type Enricher interface {
	Enrich(ctx context.Context, pairs []enrich.Pair) []enrich.Result
}

// Failure records one enrichment task that did not complete.
type Failure struct {
	Variant *variant.Variant
	Err     error
}

// Report is the outcome of one pipeline run. Variants holds every
// install-only variant in name order; the subsets that could not be enriched
// are listed in Unmatched and Failures.
type Report struct {
	ReleaseTag   string
	Variants     []*variant.Variant
	Groups       variant.Groups
	Unrecognized []string
	Unmatched    []*variant.Variant
	Failures     []Failure
}

// Pipeline runs the four stages sequentially; only the enrichment stage
// fans out internally.
type Pipeline struct {
	catalog  Catalog
	enricher Enricher
	logger   *slog.Logger
}

// New creates a pipeline around the given catalog with a default enricher
// sized to twice the available hardware threads.
func New(cat Catalog, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		catalog:  cat,
		enricher: enrich.NewEnricher(2*runtime.NumCPU(), logger),
		logger:   logger,
	}
}

// NewWithEnricher creates a pipeline with an explicit enricher.
func NewWithEnricher(cat Catalog, enricher Enricher, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		catalog:  cat,
		enricher: enricher,
		logger:   logger,
	}
}

// Run executes the pipeline. A catalog failure is fatal and returns an
// error with no report. Unrecognized asset names, unmatched install-only
// variants, and individual enrichment failures are collected in the report
// instead of aborting the run.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	release, err := p.catalog.LatestRelease(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing release assets: %w", err)
	}

	report := &Report{ReleaseTag: release.TagName}

	var installOnly, full []*variant.Variant
	for _, asset := range release.Assets {
		v, err := variant.Classify(asset.Name, asset.URL)
		if err != nil {
			var unrec *variant.UnrecognizedError
			if errors.As(err, &unrec) {
				p.logger.Debug("skipping unrecognized asset", "name", asset.Name)
				report.Unrecognized = append(report.Unrecognized, asset.Name)
				continue
			}
			return nil, fmt.Errorf("classifying asset %s: %w", asset.Name, err)
		}

		switch v.Flavor {
		case variant.FlavorInstallOnly:
			installOnly = append(installOnly, v)
		case variant.FlavorFull:
			full = append(full, v)
		}
	}

	report.Variants = installOnly
	report.Groups = variant.GroupFull(full)

	var pairs []enrich.Pair
	for _, v := range installOnly {
		best, err := report.Groups.BestMatch(v)
		if err != nil {
			p.logger.Warn("no full build for install-only variant",
				"implementation", v.Implementation,
				"version", v.PythonVersion,
				"triplet", v.Triplet)
			report.Unmatched = append(report.Unmatched, v)
			continue
		}
		pairs = append(pairs, enrich.Pair{Full: best, InstallOnly: v})
	}

	p.logger.Info("enriching install-only variants",
		slog.Int("pairs", len(pairs)),
		slog.Int("unmatched", len(report.Unmatched)),
		slog.Int("unrecognized", len(report.Unrecognized)))

	for _, result := range p.enricher.Enrich(ctx, pairs) {
		if result.Err != nil {
			report.Failures = append(report.Failures, Failure{
				Variant: result.Pair.InstallOnly,
				Err:     result.Err,
			})
		}
	}

	p.logger.Info("pipeline complete",
		slog.String("release", report.ReleaseTag),
		slog.Int("variants", len(report.Variants)),
		slog.Int("failures", len(report.Failures)))

	return report, nil
}
