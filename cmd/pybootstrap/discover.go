package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BadgerOps/pybootstrap/internal/catalog"
	"github.com/BadgerOps/pybootstrap/internal/enrich"
	"github.com/BadgerOps/pybootstrap/internal/pipeline"
	"github.com/BadgerOps/pybootstrap/internal/store"
	"github.com/BadgerOps/pybootstrap/internal/variant"
)

// openStore opens the listing cache configured in the cache section.
// Returns nil when no cache path is configured.
func openStore(log *slog.Logger) (*store.Store, error) {
	dbPath := globalCfg.Cache.DBPath
	if dbPath == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return store.New(dbPath, log)
}

// cachedVariants loads the most recently fetched listing from the cache.
func cachedVariants(log *slog.Logger) ([]*variant.Variant, error) {
	st, err := openStore(log)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, fmt.Errorf("no cache configured; set cache.db_path or drop --cached")
	}
	defer st.Close()

	tag, err := st.LatestTag()
	if err != nil {
		return nil, err
	}
	if tag == "" {
		return nil, fmt.Errorf("listing cache is empty; run without --cached first")
	}

	variants, ok, err := st.LoadListing(tag)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no cached listing for release %s", tag)
	}

	log.Info("loaded cached listing", "release", tag, "variants", len(variants))
	return variants, nil
}

// discoverVariants runs the full pipeline against the upstream API and
// refreshes the listing cache on success.
func discoverVariants(ctx context.Context, log *slog.Logger) ([]*variant.Variant, error) {
	cat := catalog.NewClient(
		globalCfg.Upstream.APIBase,
		globalCfg.Upstream.Owner,
		globalCfg.Upstream.Repo,
		log,
	)

	enricher := enrich.NewEnricher(2*runtime.NumCPU(), log)
	enricher.SetProgress(func(done, total int, url string, err error) {
		if err == nil {
			log.Debug("enriched variant", "done", done, "total", total, "url", url)
		}
	})

	report, err := pipeline.NewWithEnricher(cat, enricher, log).Run(ctx)
	if err != nil {
		return nil, err
	}

	for _, name := range report.Unrecognized {
		log.Warn("unrecognized asset skipped", "name", name)
	}
	for _, v := range report.Unmatched {
		log.Warn("no full build available", "triplet", v.Triplet, "version", v.PythonVersion)
	}
	for _, failure := range report.Failures {
		log.Warn("enrichment failed",
			"triplet", failure.Variant.Triplet,
			"version", failure.Variant.PythonVersion,
			"error", failure.Err)
	}

	if st, err := openStore(log); err != nil {
		log.Warn("listing cache unavailable", "error", err)
	} else if st != nil {
		defer st.Close()
		if err := st.SaveListing(report.ReleaseTag, report.Variants); err != nil {
			log.Warn("failed to cache listing", "error", err)
		}
	}

	return report.Variants, nil
}
