package post

import "encoding/json"

// File is one saved attachment.
type File struct {
	OriginalFilename string `json:"original_filename"`
	SavedAs          string `json:"saved_as"`
}

// ManifestEntry lists the files attached to one post.
type ManifestEntry struct {
	Files []File `json:"files"`
}

// Manifest maps a post key to its attachments.
type Manifest map[string]ManifestEntry

// FilesFor returns the attachments for p, or nil.
func (m Manifest) FilesFor(p Post) []File {
	if m == nil {
		return nil
	}
	entry, ok := m[p.Key()]
	if !ok || len(entry.Files) == 0 {
		return nil
	}
	return entry.Files
}

// Insights is the precomputed analytics blob, passed through untouched.
type Insights = json.RawMessage
