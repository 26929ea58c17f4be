// Package enrich attaches extended build metadata to install-only variants
// by partially streaming the remote archive of their best-matching full
// build. The archive is decompressed on the fly and scanned entry by entry;
// reading stops as soon as the embedded metadata file is parsed, so only a
// small prefix of the network stream is ever consumed.
package enrich

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/errgroup"

	"github.com/BadgerOps/pybootstrap/internal/safety"
	"github.com/BadgerOps/pybootstrap/internal/variant"
)

// metadataPath is the archive entry carrying the build metadata. The path is
// fixed upstream regardless of implementation.
const metadataPath = "python/PYTHON.json"

const maxMetadataBytes int64 = 8 * 1024 * 1024

// Pair couples an install-only variant with the full build that supplies
// its metadata.
type Pair struct {
	Full        *variant.Variant
	InstallOnly *variant.Variant
}

// Result is the outcome of one enrichment task. Results keep the submission
// order of their pairs. A nil Err means InstallOnly now carries the full
// build's metadata and config.
type Result struct {
	Pair Pair
	Err  error
}

// ProgressFunc is called after each task completes. done is the number of
// finished tasks so far, total the number submitted.
type ProgressFunc func(done, total int, url string, err error)

// FetchError indicates a non-success status fetching a full-build archive.
type FetchError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching archive %s: %s", e.URL, e.Status)
}

// ArchiveError indicates a malformed compressed stream or tar structure.
type ArchiveError struct {
	URL string
	Err error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("reading archive %s: %v", e.URL, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// MetadataError indicates the metadata entry was found but could not be parsed.
type MetadataError struct {
	URL string
	Err error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("parsing %s from %s: %v", metadataPath, e.URL, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// MetadataNotFoundError indicates the archive stream ended without the
// metadata entry. Reported explicitly so callers can distinguish "no data"
// from "empty but valid data".
type MetadataNotFoundError struct {
	URL string
}

func (e *MetadataNotFoundError) Error() string {
	return fmt.Sprintf("%s not found in archive %s", metadataPath, e.URL)
}

// Enricher runs enrichment tasks over a bounded worker pool.
type Enricher struct {
	httpClient *http.Client
	logger     *slog.Logger
	workers    int
	userAgent  string
	progressFn ProgressFunc
}

// NewEnricher creates an enricher with the given number of workers.
// workers <= 0 selects the default of twice the available hardware threads.
func NewEnricher(workers int, logger *slog.Logger) *Enricher {
	if workers <= 0 {
		workers = 2 * runtime.NumCPU()
	}
	return &Enricher{
		httpClient: safety.NewStreamClient(),
		logger:     logger,
		workers:    workers,
		userAgent:  "pybootstrap/1.0",
	}
}

// SetProgress sets the callback invoked as tasks complete.
func (e *Enricher) SetProgress(fn ProgressFunc) {
	e.progressFn = fn
}

// Enrich runs one task per pair across the worker pool and returns results
// in submission order. Task failures are isolated: one failed pair never
// aborts the others, it is reported through its Result. Cancelling ctx stops
// the pool; pairs not yet processed report the context error.
func (e *Enricher) Enrich(ctx context.Context, pairs []Pair) []Result {
	results := make([]Result, len(pairs))
	if len(pairs) == 0 {
		return results
	}

	var done atomic.Int32

	var g errgroup.Group
	g.SetLimit(e.workers)

	for i := range pairs {
		i := i
		g.Go(func() error {
			pair := pairs[i]
			results[i] = Result{Pair: pair, Err: e.enrichOne(ctx, pair)}

			if e.progressFn != nil {
				e.progressFn(int(done.Add(1)), len(pairs), pair.Full.URL, results[i].Err)
			}
			return nil
		})
	}

	// Workers never return errors; Wait is just the fan-in barrier.
	_ = g.Wait()

	return results
}

// enrichOne fetches the full build's metadata and attaches it to the
// install-only variant along with the full build's config.
func (e *Enricher) enrichOne(ctx context.Context, pair Pair) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e.logger.Debug("fetching build info", "url", pair.Full.URL)

	info, err := e.fetchBuildInfo(ctx, pair.Full.URL)
	if err != nil {
		e.logger.Warn("enrichment task failed", "url", pair.Full.URL, "error", err)
		return err
	}

	return pair.InstallOnly.AttachBuildInfo(info, pair.Full.Config)
}

// fetchBuildInfo streams the archive at url, decompresses it, and scans the
// tar entries until the metadata file is parsed. Scanning exits as soon as
// the entry is decoded; the rest of the stream is never read.
func (e *Enricher) fetchBuildInfo(ctx context.Context, url string) (map[string]interface{}, error) {
	if _, err := safety.ValidateHTTPURL(url); err != nil {
		return nil, fmt.Errorf("invalid archive URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating archive request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	decompressed, closeDecompressor, err := newDecompressor(url, resp.Body)
	if err != nil {
		return nil, &ArchiveError{URL: url, Err: err}
	}
	defer closeDecompressor()

	tr := tar.NewReader(decompressed)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil, &MetadataNotFoundError{URL: url}
		}
		if err != nil {
			return nil, &ArchiveError{URL: url, Err: err}
		}

		if hdr.Typeflag != tar.TypeReg || hdr.Name != metadataPath {
			continue
		}

		data, err := safety.ReadAllWithLimit(tr, maxMetadataBytes)
		if err != nil {
			return nil, &MetadataError{URL: url, Err: err}
		}

		var info map[string]interface{}
		if err := json.Unmarshal(data, &info); err != nil {
			return nil, &MetadataError{URL: url, Err: err}
		}
		return info, nil
	}
}

// newDecompressor wraps r in the streaming decompressor matching the
// archive's suffix.
func newDecompressor(name string, r io.Reader) (io.Reader, func(), error) {
	switch {
	case strings.HasSuffix(name, ".tar.zst"):
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening zstd reader: %w", err)
		}
		return dec, dec.Close, nil
	case strings.HasSuffix(name, ".tar.gz"):
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("opening gzip reader: %w", err)
		}
		return gz, func() { _ = gz.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported archive format: %s", name)
	}
}
