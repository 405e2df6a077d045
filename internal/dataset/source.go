package dataset

import (
	"net/url"
	"path/filepath"
	"strings"
)

// Default document locations, relative to the source base.
const (
	DefaultPostsPath    = "data/posts_processed.json"
	DefaultManifestPath = "files/manifest.json"
	DefaultInsightsPath = "data/insights.json"
)

// Source is a local directory or an http(s) base URL holding the documents.
type Source struct {
	Base         string
	PostsPath    string
	ManifestPath string
	InsightsPath string
}

// NewSource uses the default document paths under base.
func NewSource(base string) Source {
	return Source{
		Base:         base,
		PostsPath:    DefaultPostsPath,
		ManifestPath: DefaultManifestPath,
		InsightsPath: DefaultInsightsPath,
	}
}

// Remote reports whether the base is an http(s) URL.
func (s Source) Remote() bool {
	return strings.HasPrefix(s.Base, "http://") || strings.HasPrefix(s.Base, "https://")
}

// Resolve joins a document path onto the base.
func (s Source) Resolve(path string) string {
	if s.Remote() {
		base, err := url.Parse(strings.TrimSuffix(s.Base, "/") + "/")
		if err != nil {
			return strings.TrimSuffix(s.Base, "/") + "/" + path
		}
		ref, err := url.Parse(path)
		if err != nil {
			return base.String() + path
		}
		return base.ResolveReference(ref).String()
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.Base, filepath.FromSlash(path))
}

// FilePath resolves a manifest saved_as name to where the attachment
// lives: under files/ next to the manifest.
func (s Source) FilePath(savedAs string) string {
	dir := filepath.ToSlash(filepath.Dir(filepath.FromSlash(s.ManifestPath)))
	return s.Resolve(dir + "/" + savedAs)
}

func (s Source) String() string { return s.Base }
