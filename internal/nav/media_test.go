package nav

import "testing"

func TestMediaTypeValid(t *testing.T) {
	for _, valid := range []MediaType{MediaPhoto, MediaVideo, MediaDocument, MediaAudio, MediaAnimation, MediaVoice, MediaVideoNote} {
		if !valid.Valid() {
			t.Errorf("%q should be valid", valid)
		}
	}
	for _, invalid := range []MediaType{"", "sticker", "Photo"} {
		if invalid.Valid() {
			t.Errorf("%q should be invalid", invalid)
		}
	}
}

func TestIrreplaceable(t *testing.T) {
	if !MediaVoice.Irreplaceable() || !MediaVideoNote.Irreplaceable() {
		t.Error("voice and video_note cannot be swapped in place")
	}
	if MediaPhoto.Irreplaceable() || MediaDocument.Irreplaceable() {
		t.Error("photo and document are replaceable")
	}
}

func TestPathClassification(t *testing.T) {
	tests := []struct {
		path                   string
		url, local, looseFileID, strictFileID bool
	}{
		{"https://example.com/a.jpg", true, false, false, false},
		{"http://example.com/a.jpg", true, false, false, false},
		{"/var/lib/photo.jpg", false, true, false, false},
		{"photo.jpg", false, true, false, false},
		{"some file", false, true, false, false},
		{"AgACAgIAAxkBAAIBY2Zn8w", false, false, true, true},
		{"shortid", false, false, true, false},
		{"", false, false, false, false},
	}
	for _, tt := range tests {
		m := MediaItem{Type: MediaPhoto, Path: tt.path}
		if got := m.IsURL(); got != tt.url {
			t.Errorf("IsURL(%q) = %v, want %v", tt.path, got, tt.url)
		}
		if got := m.IsLocal(); got != tt.local {
			t.Errorf("IsLocal(%q) = %v, want %v", tt.path, got, tt.local)
		}
		if got := m.IsFileID(false); got != tt.looseFileID {
			t.Errorf("IsFileID(%q, loose) = %v, want %v", tt.path, got, tt.looseFileID)
		}
		if got := m.IsFileID(true); got != tt.strictFileID {
			t.Errorf("IsFileID(%q, strict) = %v, want %v", tt.path, got, tt.strictFileID)
		}
	}
}
