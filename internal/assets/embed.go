//go:build !dev

package assets

import (
	"embed"
	"io/fs"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:dist
var distFiles embed.FS

// StaticFS returns the embedded static tree
func StaticFS() fs.FS {
	return mustSub(staticFiles, "static")
}

// DistFS returns the embedded frontend build
func DistFS() fs.FS {
	return mustSub(distFiles, "dist")
}

// IsEmbedded returns true if the assets are compiled in
func IsEmbedded() bool {
	return true
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic("failed to get embedded " + dir + " files: " + err.Error())
	}
	return sub
}
