//go:build dev

package assets

import (
	"io/fs"
	"os"
)

// StaticFS returns the static tree from disk
func StaticFS() fs.FS {
	return os.DirFS("internal/assets/static")
}

// DistFS returns the frontend build from disk
func DistFS() fs.FS {
	return os.DirFS("internal/assets/dist")
}

// IsEmbedded returns false in development mode
func IsEmbedded() bool {
	return false
}
