// Package assets serves the two embedded resource trees, "static" and
// "dist", as opaque byte blobs keyed by path.
package assets

import (
	"io/fs"
	"mime"
	"path"
	"strings"
)

// Namespace names one embedded tree
type Namespace string

const (
	Static Namespace = "static"
	Dist   Namespace = "dist"
)

// IndexFile is the entry point served at /app.
const IndexFile = "index.html"

// Provider looks up asset bytes by namespace and path.
type Provider interface {
	Lookup(ns Namespace, p string) ([]byte, bool)
}

// FSProvider is a Provider backed by one fs.FS per namespace.
type FSProvider struct {
	trees map[Namespace]fs.FS
}

// NewFSProvider creates a provider over the given trees. A nil tree is
// treated as empty.
func NewFSProvider(static, dist fs.FS) *FSProvider {
	return &FSProvider{trees: map[Namespace]fs.FS{
		Static: static,
		Dist:   dist,
	}}
}

// Default returns the provider over the trees compiled into the binary, or
// read from disk in dev builds.
func Default() *FSProvider {
	return NewFSProvider(StaticFS(), DistFS())
}

// Lookup returns the asset bytes, or false when the namespace is unknown or
// the path is absent, a directory or escapes the tree.
func (p *FSProvider) Lookup(ns Namespace, name string) ([]byte, bool) {
	tree := p.trees[ns]
	if tree == nil {
		return nil, false
	}

	name = strings.TrimPrefix(name, "/")
	if name == "" || !fs.ValidPath(name) {
		return nil, false
	}

	info, err := fs.Stat(tree, name)
	if err != nil || info.IsDir() {
		return nil, false
	}
	data, err := fs.ReadFile(tree, name)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Index returns the entry-point document. The dist tree wins over static so a
// built frontend replaces the placeholder page.
func Index(p Provider) ([]byte, bool) {
	if data, ok := p.Lookup(Dist, IndexFile); ok {
		return data, true
	}
	return p.Lookup(Static, IndexFile)
}

// ContentType infers the response content type from the file extension.
// Unknown extensions are served as application/octet-stream.
func ContentType(name string) string {
	ext := strings.ToLower(path.Ext(name))
	switch ext {
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js", ".mjs":
		return "application/javascript; charset=utf-8"
	case ".json", ".map":
		return "application/json; charset=utf-8"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".svg":
		return "image/svg+xml"
	case ".ico":
		return "image/x-icon"
	case ".woff":
		return "font/woff"
	case ".woff2":
		return "font/woff2"
	case ".wasm":
		return "application/wasm"
	case "":
		return "application/octet-stream"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
