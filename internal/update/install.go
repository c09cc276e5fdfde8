package update

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"runtime"
	"strings"
	"time"

	goupdate "github.com/inconshreveable/go-update"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

const (
	downloadTimeout = 5 * time.Minute

	// maxAssetSize bounds how much a download may buffer in memory.
	maxAssetSize = 256 << 20
)

// Installer replaces the running binary with the release asset.
type Installer interface {
	Install(ctx context.Context, target Target) error
}

// BinaryInstaller downloads a release asset, checks it against the release's
// checksums.txt when one is published, unpacks it and swaps the executable
// in place with go-update.
type BinaryInstaller struct {
	logger     *zap.SugaredLogger
	httpClient *http.Client
	binaryName string
	targetPath string
	apply      func(r io.Reader, opts goupdate.Options) error
}

// InstallerOption configures a BinaryInstaller
type InstallerOption func(*BinaryInstaller)

// WithTargetPath installs somewhere other than the running executable
func WithTargetPath(p string) InstallerOption {
	return func(i *BinaryInstaller) { i.targetPath = p }
}

// WithHTTPClient replaces the download client
func WithHTTPClient(c *http.Client) InstallerOption {
	return func(i *BinaryInstaller) { i.httpClient = c }
}

// NewBinaryInstaller creates an installer for the named executable. Archive
// assets must contain a file with that name (plus .exe on Windows).
func NewBinaryInstaller(logger *zap.SugaredLogger, binaryName string, opts ...InstallerOption) *BinaryInstaller {
	i := &BinaryInstaller{
		logger:     logger,
		httpClient: &http.Client{Timeout: downloadTimeout},
		binaryName: binaryName,
		apply:      goupdate.Apply,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install implements Installer
func (i *BinaryInstaller) Install(ctx context.Context, target Target) error {
	if target.AssetURL == "" {
		return fmt.Errorf("%w: %s/%s", ErrNoAsset, runtime.GOOS, runtime.GOARCH)
	}

	data, err := i.download(ctx, target.AssetURL)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", target.AssetName(), err)
	}

	if target.ChecksumsURL != "" {
		manifest, err := i.download(ctx, target.ChecksumsURL)
		if err != nil {
			return fmt.Errorf("failed to download checksums: %w", err)
		}
		sums, err := ParseChecksums(bytes.NewReader(manifest))
		if err != nil {
			return err
		}
		if err := VerifyChecksum(sums, target.AssetName(), data); err != nil {
			return err
		}
		i.logger.Debugw("Checksum verified", "asset", target.AssetName())
	} else {
		i.logger.Warnw("Release publishes no checksums, installing unverified", "version", target.Version)
	}

	binary, err := extractBinary(target.AssetName(), data, i.binaryName)
	if err != nil {
		return err
	}

	err = i.apply(bytes.NewReader(binary), goupdate.Options{TargetPath: i.targetPath})
	if err != nil {
		if rollbackErr := goupdate.RollbackError(err); rollbackErr != nil {
			return fmt.Errorf("install failed and rollback failed: %v (rollback: %w)", err, rollbackErr)
		}
		return fmt.Errorf("install failed: %w", err)
	}

	i.logger.Infow("Installed update", "version", target.Version, "asset", target.AssetName())
	return nil
}

func (i *BinaryInstaller) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/octet-stream")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAssetSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxAssetSize {
		return nil, fmt.Errorf("asset exceeds %d bytes", maxAssetSize)
	}
	return data, nil
}

// extractBinary returns the executable from a .zip, .tar.gz or bare asset.
func extractBinary(assetName string, data []byte, binaryName string) ([]byte, error) {
	lower := strings.ToLower(assetName)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return extractFromZip(data, binaryName)
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return extractFromTarGz(data, binaryName)
	default:
		return data, nil
	}
}

func isBinaryEntry(name, binaryName string) bool {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return base == binaryName || base == binaryName+".exe"
}

func extractFromZip(data []byte, binaryName string) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip: %w", err)
	}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !isBinaryEntry(f.Name, binaryName) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s in zip: %w", f.Name, err)
		}
		defer rc.Close()
		return io.ReadAll(io.LimitReader(rc, maxAssetSize))
	}
	return nil, fmt.Errorf("binary %s not found in zip", binaryName)
}

func extractFromTarGz(data []byte, binaryName string) ([]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg || !isBinaryEntry(hdr.Name, binaryName) {
			continue
		}
		return io.ReadAll(io.LimitReader(tr, maxAssetSize))
	}
	return nil, fmt.Errorf("binary %s not found in archive", binaryName)
}
