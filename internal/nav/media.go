package nav

import "strings"

// MediaType is the closed set of media kinds the engine understands.
type MediaType string

const (
	MediaPhoto     MediaType = "photo"
	MediaVideo     MediaType = "video"
	MediaDocument  MediaType = "document"
	MediaAudio     MediaType = "audio"
	MediaAnimation MediaType = "animation"
	MediaVoice     MediaType = "voice"
	MediaVideoNote MediaType = "video_note"
)

// Valid reports whether t is a recognized media type.
func (t MediaType) Valid() bool {
	switch t {
	case MediaPhoto, MediaVideo, MediaDocument, MediaAudio, MediaAnimation, MediaVoice, MediaVideoNote:
		return true
	}
	return false
}

// Irreplaceable reports whether the backend refuses in-place media
// replacement for this type.
func (t MediaType) Irreplaceable() bool {
	return t == MediaVoice || t == MediaVideoNote
}

// MediaItem is one piece of media. Path is opaque: a local file
// reference, a remote URL, or a backend-assigned file id. History
// records always carry the file id form.
type MediaItem struct {
	Type    MediaType `json:"type"`
	Path    string    `json:"file_id"`
	Caption string    `json:"caption,omitempty"`
}

// IsURL reports whether the item's path is a remote URL.
func (m MediaItem) IsURL() bool {
	return strings.HasPrefix(m.Path, "http://") || strings.HasPrefix(m.Path, "https://")
}

// IsLocal reports whether the item's path looks like a local file
// reference rather than a backend file id.
func (m MediaItem) IsLocal() bool {
	if m.IsURL() {
		return false
	}
	return strings.ContainsAny(m.Path, "/\\.") || strings.ContainsAny(m.Path, " \t")
}

// IsFileID reports whether the item's path can be treated as a
// backend-assigned file id. Under strict mode the string must be
// file-id shaped; otherwise anything that is neither a URL nor a local
// reference qualifies.
func (m MediaItem) IsFileID(strict bool) bool {
	if m.Path == "" || m.IsURL() || m.IsLocal() {
		return false
	}
	if strict {
		return len(m.Path) >= 20
	}
	return true
}
