package update

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestGitHubClient_LatestRelease(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/panel/releases/latest":
			_ = json.NewEncoder(w).Encode(Release{TagName: "v2.1.0", HTMLURL: "https://example.test/v2.1.0"})
		case "/repos/acme/panel/releases":
			_ = json.NewEncoder(w).Encode([]Release{
				{TagName: "v3.0.0-beta.2", Draft: true},
				{TagName: "v3.0.0-beta.1", Prerelease: true},
				{TagName: "v2.1.0"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	logger := zaptest.NewLogger(t).Sugar()

	release, err := NewGitHubClient(logger, srv.URL, "acme/panel", false).LatestRelease(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2.1.0", release.TagName)

	release, err = NewGitHubClient(logger, srv.URL+"/", "acme/panel", true).LatestRelease(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v3.0.0-beta.1", release.TagName)
	assert.True(t, release.Prerelease)
}

func TestGitHubClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/broken/releases/latest":
			_, _ = w.Write([]byte("{not json"))
		case "/repos/acme/empty/releases":
			_, _ = w.Write([]byte("[]"))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	logger := zaptest.NewLogger(t).Sugar()

	tests := []struct {
		name       string
		repo       string
		prerelease bool
	}{
		{"rate limited", "acme/panel", false},
		{"bad json", "acme/broken", false},
		{"no releases", "acme/empty", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGitHubClient(logger, srv.URL, tt.repo, tt.prerelease).LatestRelease(context.Background())
			assert.ErrorIs(t, err, ErrUpdateCheckNetwork)
		})
	}

	srv.Close()
	_, err := NewGitHubClient(logger, srv.URL, "acme/panel", false).LatestRelease(context.Background())
	assert.ErrorIs(t, err, ErrUpdateCheckNetwork)
}

func TestFindAsset(t *testing.T) {
	release := &Release{Assets: []Asset{
		{Name: "checksums.txt", BrowserDownloadURL: "u/checksums.txt"},
		{Name: "streamline-control_1.0.0_linux_x86_64.tar.gz", BrowserDownloadURL: "u/linux-amd64"},
		{Name: "streamline-control_1.0.0_linux_arm64.tar.gz", BrowserDownloadURL: "u/linux-arm64"},
		{Name: "streamline-control_1.0.0_windows_amd64.zip", BrowserDownloadURL: "u/windows-amd64"},
		{Name: "streamline-control_1.0.0_darwin_universal.zip", BrowserDownloadURL: "u/darwin-universal"},
	}}

	tests := []struct {
		goos, goarch string
		want         string
	}{
		{"linux", "amd64", "u/linux-amd64"},
		{"linux", "arm64", "u/linux-arm64"},
		{"windows", "amd64", "u/windows-amd64"},
		{"darwin", "arm64", "u/darwin-universal"},
	}
	for _, tt := range tests {
		asset, err := FindAsset(release, tt.goos, tt.goarch)
		require.NoError(t, err, "%s/%s", tt.goos, tt.goarch)
		assert.Equal(t, tt.want, asset.BrowserDownloadURL)
	}

	_, err := FindAsset(release, "freebsd", "amd64")
	assert.ErrorIs(t, err, ErrNoAsset)

	assert.Equal(t, "u/checksums.txt", release.ChecksumsURL())
	assert.Empty(t, (&Release{}).ChecksumsURL())
}
