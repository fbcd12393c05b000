package telegram

import (
	"fmt"
	"strings"

	"github.com/chatnav/chatnav/internal/nav"
)

// mapError folds Telegram's stringly-typed API errors into the shared
// taxonomy so the core never matches on backend text.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "message is not modified"):
		return fmt.Errorf("%w: %s", nav.ErrMessageUnchanged, err)
	case strings.Contains(msg, "message can't be edited"),
		strings.Contains(msg, "message to edit not found"),
		strings.Contains(msg, "message_id_invalid"):
		return fmt.Errorf("%w: %s", nav.ErrEditForbidden, err)
	case strings.Contains(msg, "message is too long"):
		return fmt.Errorf("%w: %s", nav.ErrTextOverflow, err)
	case strings.Contains(msg, "caption is too long"),
		strings.Contains(msg, "media_caption_too_long"):
		return fmt.Errorf("%w: %s", nav.ErrCaptionOverflow, err)
	default:
		return err
	}
}

// softIgnorable marks delete failures that mean the message is already
// gone or out of reach; pruning history past them is harmless.
func softIgnorable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "message to delete not found") ||
		strings.Contains(msg, "message can't be deleted") ||
		strings.Contains(msg, "message_id_invalid") ||
		strings.Contains(msg, "message is too old")
}
