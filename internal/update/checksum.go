package update

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrChecksumMismatch indicates the downloaded asset does not match checksums.txt.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrChecksumNotListed indicates the asset has no line in checksums.txt.
	ErrChecksumNotListed = errors.New("asset not listed in checksums")
)

// ChecksumError provides details about a checksum verification failure.
type ChecksumError struct {
	Filename string
	Expected string
	Got      string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum verification failed for %s: expected %s, got %s", e.Filename, e.Expected, e.Got)
}

// Unwrap returns ErrChecksumMismatch so callers can use errors.Is.
func (e *ChecksumError) Unwrap() error { return ErrChecksumMismatch }

// ParseChecksums reads sha256sum output ("<hex>  <filename>") into a
// filename→hash map. Malformed lines are skipped.
func ParseChecksums(r io.Reader) (map[string]string, error) {
	sums := make(map[string]string)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		hash, name := strings.ToLower(fields[0]), strings.TrimPrefix(fields[1], "*")
		if len(hash) != sha256.Size*2 {
			continue
		}
		if _, err := hex.DecodeString(hash); err != nil {
			continue
		}
		sums[name] = hash
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading checksums: %w", err)
	}
	return sums, nil
}

// VerifyChecksum compares data against the manifest entry for filename.
func VerifyChecksum(sums map[string]string, filename string, data []byte) error {
	want, ok := sums[filename]
	if !ok {
		return fmt.Errorf("%w: %s", ErrChecksumNotListed, filename)
	}
	sum := sha256.Sum256(data)
	got := hex.EncodeToString(sum[:])
	if got != want {
		return &ChecksumError{Filename: filename, Expected: want, Got: got}
	}
	return nil
}
