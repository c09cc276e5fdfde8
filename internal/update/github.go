package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultAPIBaseURL is the public GitHub API
	DefaultAPIBaseURL = "https://api.github.com"

	httpTimeout = 10 * time.Second
)

// GitHubClient handles communication with the GitHub Releases API.
type GitHubClient struct {
	logger          *zap.SugaredLogger
	httpClient      *http.Client
	baseURL         string
	repo            string
	allowPrerelease bool
}

// NewGitHubClient creates a client for owner/name. An empty baseURL uses the
// public API.
func NewGitHubClient(logger *zap.SugaredLogger, baseURL, repo string, allowPrerelease bool) *GitHubClient {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &GitHubClient{
		logger:          logger,
		httpClient:      &http.Client{Timeout: httpTimeout},
		baseURL:         strings.TrimRight(baseURL, "/"),
		repo:            repo,
		allowPrerelease: allowPrerelease,
	}
}

// LatestRelease fetches the latest stable release, or the newest release of
// any kind when prereleases are allowed.
func (c *GitHubClient) LatestRelease(ctx context.Context) (*Release, error) {
	if c.allowPrerelease {
		var releases []Release
		if err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s/releases", c.baseURL, c.repo), &releases); err != nil {
			return nil, err
		}
		// GitHub returns newest first
		for i := range releases {
			if !releases[i].Draft {
				return &releases[i], nil
			}
		}
		return nil, fmt.Errorf("%w: no releases found", ErrUpdateCheckNetwork)
	}

	var release Release
	if err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, c.repo), &release); err != nil {
		return nil, err
	}
	return &release, nil
}

func (c *GitHubClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debugw("Failed to fetch releases", "url", url, "error", err)
		return fmt.Errorf("%w: %v", ErrUpdateCheckNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Debugw("GitHub API returned non-200 status", "status_code", resp.StatusCode, "url", url)
		return fmt.Errorf("%w: GitHub API returned status %d", ErrUpdateCheckNetwork, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode release: %v", ErrUpdateCheckNetwork, err)
	}
	return nil
}
