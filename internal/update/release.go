package update

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	// ErrUpdateCheckNetwork covers transport failures and unexpected
	// responses from the release API.
	ErrUpdateCheckNetwork = errors.New("unable to reach the release server")

	// ErrUpdateApply wraps every failure while downloading or installing.
	ErrUpdateApply = errors.New("update failed")

	// ErrInvalidVersion is returned when the running build or the published
	// release is not a semantic version, e.g. a "development" build.
	ErrInvalidVersion = errors.New("not a release version")

	// ErrNoAsset means the release has nothing to download for this platform.
	ErrNoAsset = errors.New("no release asset for this platform")
)

// ChecksumsAssetName is the sha256sum manifest published alongside binaries.
const ChecksumsAssetName = "checksums.txt"

// Release is a published release as returned by the GitHub Releases API
type Release struct {
	TagName    string  `json:"tag_name"`
	Name       string  `json:"name"`
	HTMLURL    string  `json:"html_url"`
	Prerelease bool    `json:"prerelease"`
	Draft      bool    `json:"draft"`
	Assets     []Asset `json:"assets"`
}

// Asset is one downloadable file attached to a release
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}

// ReleaseFetcher returns the newest published release.
type ReleaseFetcher interface {
	LatestRelease(ctx context.Context) (*Release, error)
}

// Target is what ApplyUpdate installs.
type Target struct {
	Version      string `json:"version" yaml:"version"`
	AssetURL     string `json:"asset_url,omitempty" yaml:"asset_url,omitempty"`
	ChecksumsURL string `json:"checksums_url,omitempty" yaml:"checksums_url,omitempty"`
}

// AssetName is the file name the checksum manifest lists the asset under.
func (t Target) AssetName() string {
	return path.Base(t.AssetURL)
}

// FindAsset picks the release asset for goos/goarch. On macOS a universal
// build is preferred; amd64 also matches the common x86_64 spelling.
func FindAsset(release *Release, goos, goarch string) (*Asset, error) {
	archNames := []string{goarch}
	if goarch == "amd64" {
		archNames = append(archNames, "x86_64")
	}

	if goos == "darwin" {
		for i := range release.Assets {
			name := strings.ToLower(release.Assets[i].Name)
			if (strings.Contains(name, "darwin") || strings.Contains(name, "macos")) && strings.Contains(name, "universal") {
				return &release.Assets[i], nil
			}
		}
	}

	for i := range release.Assets {
		name := strings.ToLower(release.Assets[i].Name)
		if name == ChecksumsAssetName || !strings.Contains(name, goos) {
			continue
		}
		for _, arch := range archNames {
			if strings.Contains(name, arch) {
				return &release.Assets[i], nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s/%s", ErrNoAsset, goos, goarch)
}

// ChecksumsURL returns the URL of the release's checksum manifest, if any.
func (r *Release) ChecksumsURL() string {
	for _, a := range r.Assets {
		if a.Name == ChecksumsAssetName {
			return a.BrowserDownloadURL
		}
	}
	return ""
}
