// Package catalog fetches the published asset listing for the latest
// release of the upstream standalone Python distribution.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/BadgerOps/pybootstrap/internal/safety"
)

const maxReleaseBodyBytes int64 = 32 * 1024 * 1024

// Asset is one file attached to an upstream release.
type Asset struct {
	Name string `json:"name"`
	URL  string `json:"browser_download_url"`
}

// Release is the latest-release listing: the upstream tag plus its assets,
// sorted by name so downstream tie-breaks are deterministic.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// UnavailableError indicates the release API was unreachable or returned a
// non-success status. Fatal to the whole pipeline run.
type UnavailableError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("release catalog unavailable: %s returned %s", e.URL, e.Status)
}

// Client queries the release-hosting API for one upstream project.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	apiBase    string
	owner      string
	repo       string
	userAgent  string
}

// NewClient creates a catalog client for the given upstream repository.
func NewClient(apiBase, owner, repo string, logger *slog.Logger) *Client {
	return &Client{
		httpClient: safety.NewAPIClient(60 * time.Second),
		logger:     logger,
		apiBase:    apiBase,
		owner:      owner,
		repo:       repo,
		userAgent:  "pybootstrap/1.0",
	}
}

// LatestRelease fetches the latest release and returns it with assets sorted
// by name. A non-2xx response yields *UnavailableError.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.apiBase, c.owner, c.repo)

	c.logger.Info("fetching latest release", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating release request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UnavailableError{
			URL:        url,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
		}
	}

	body, err := safety.ReadAllWithLimit(resp.Body, maxReleaseBodyBytes)
	if err != nil {
		return nil, fmt.Errorf("reading release body: %w", err)
	}

	var release Release
	if err := json.Unmarshal(body, &release); err != nil {
		return nil, fmt.Errorf("decoding release response: %w", err)
	}

	sort.Slice(release.Assets, func(i, j int) bool {
		return release.Assets[i].Name < release.Assets[j].Name
	})

	c.logger.Info("fetched latest release",
		slog.String("tag", release.TagName),
		slog.Int("assets", len(release.Assets)))

	return &release, nil
}
