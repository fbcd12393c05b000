// Package inline remaps transition verdicts that are impossible under
// an inline editing context: there is no delete-and-send, no uploads
// from local paths, and no way to turn a media message into a text one.
package inline

import (
	"log/slog"
	"strings"

	"github.com/chatnav/chatnav/internal/decision"
	"github.com/chatnav/chatnav/internal/nav"
)

// Strategy applies the inline constraints.
type Strategy struct {
	strictPath bool
	logger     *slog.Logger
}

// New creates a Strategy. strictPath requires string media paths to be
// file-id shaped before they are accepted as existing files.
func New(log *slog.Logger, strictPath bool) *Strategy {
	if log == nil {
		log = slog.Default()
	}
	return &Strategy{
		strictPath: strictPath,
		logger:     log.With(slog.String("service", "inline")),
	}
}

// Admissible reports whether a media item can be referenced from an
// inline edit: remote URLs and backend file ids only, and never the
// types the backend refuses to place inline.
func (s *Strategy) Admissible(m *nav.MediaItem) bool {
	if m == nil {
		return false
	}
	if m.Type.Irreplaceable() {
		return false
	}
	return m.IsURL() || m.IsFileID(s.strictPath)
}

// Remap translates a verdict into one executable under inline
// constraints. The returned payload may differ from the input (e.g. a
// caption-only refresh keeps the old media). ok is false when nothing
// can be done and the render step must be skipped.
func (s *Strategy) Remap(v decision.Verdict, prev *decision.View, p nav.Payload) (decision.Verdict, nav.Payload, bool) {
	switch v {
	case decision.NoChange:
		return v, p, true
	case decision.Resend:
		// No message id to edit and no send semantics inline.
		s.logger.Debug("resend impossible inline, skipping")
		return v, p, false
	case decision.EditText, decision.EditMarkup, decision.EditMediaCaption:
		return v, p, true
	case decision.EditMedia:
		if !s.Admissible(p.Media) {
			s.logger.Warn("inadmissible inline media, skipping")
			return v, p, false
		}
		return v, p, true
	case decision.DeleteSend:
		return s.remapDeleteSend(prev, p)
	default:
		return v, p, false
	}
}

func (s *Strategy) remapDeleteSend(prev *decision.View, p nav.Payload) (decision.Verdict, nav.Payload, bool) {
	if prev == nil {
		return decision.Resend, p, false
	}
	oldMedia := prev.Media != nil || len(prev.Group) > 0
	newMedia := p.Media != nil || len(p.Group) > 0

	switch {
	case oldMedia && !newMedia:
		return s.remapMediaToText(prev, p)
	case !oldMedia && newMedia:
		// A text message cannot grow media inline.
		s.logger.Debug("text to media impossible inline, skipping")
		return decision.DeleteSend, p, false
	case oldMedia && newMedia:
		if len(p.Group) > 0 {
			// Albums collapse to their head item before this point;
			// a surviving group cannot be applied inline.
			return decision.DeleteSend, p, false
		}
		if !s.Admissible(p.Media) {
			s.logger.Warn("inadmissible inline media, skipping")
			return decision.DeleteSend, p, false
		}
		return decision.EditMedia, p, true
	default:
		return decision.EditText, p, true
	}
}

// remapMediaToText keeps the still-present media: a changed text
// becomes a caption refresh, a changed markup becomes a markup
// refresh, and anything else is a no-op.
func (s *Strategy) remapMediaToText(prev *decision.View, p nav.Payload) (decision.Verdict, nav.Payload, bool) {
	text := strings.TrimSpace(p.Text)
	if text != prev.EffectiveCaption() {
		return decision.EditMediaCaption, p, true
	}
	if !nav.MarkupEqual(prev.Reply, p.Reply) {
		return decision.EditMarkup, p, true
	}
	s.logger.Debug("media to text with no visible change, skipping")
	return decision.DeleteSend, p, false
}
