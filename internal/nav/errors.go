package nav

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNavigator is the root of the navigation error taxonomy. Every
// error the engine surfaces matches errors.Is(err, ErrNavigator).
var ErrNavigator = errors.New("navigator")

var (
	// ErrHistoryEmpty is returned by back when there is no previous screen.
	ErrHistoryEmpty = fmt.Errorf("%w: history is empty", ErrNavigator)
	// ErrMessageUnchanged maps the backend's refusal to apply an
	// edit that changes nothing.
	ErrMessageUnchanged = fmt.Errorf("%w: message is unchanged", ErrNavigator)
	// ErrEditForbidden maps the backend's refusal to edit a message
	// (too old, wrong author, already deleted).
	ErrEditForbidden = fmt.Errorf("%w: edit forbidden", ErrNavigator)
	// ErrInlineUnsupported marks operations impossible in inline mode.
	ErrInlineUnsupported = fmt.Errorf("%w: unsupported in inline mode", ErrNavigator)
	// ErrEmptyPayload marks a payload with no text, media, or group.
	ErrEmptyPayload = fmt.Errorf("%w: payload is empty", ErrNavigator)
	// ErrTextOverflow marks text exceeding the backend limit.
	ErrTextOverflow = fmt.Errorf("%w: text overflow", ErrNavigator)
	// ErrCaptionOverflow marks a caption exceeding the backend limit.
	ErrCaptionOverflow = fmt.Errorf("%w: caption overflow", ErrNavigator)
)

// StateNotFoundError is returned by set when no history entry carries
// the requested state.
type StateNotFoundError struct {
	State string
}

func (e *StateNotFoundError) Error() string {
	return fmt.Sprintf("navigator: state not found: %s", e.State)
}

func (e *StateNotFoundError) Unwrap() error { return ErrNavigator }

// ExtraForbiddenError is raised when strict validation meets an extra
// key outside the whitelist, or a whitelisted key with a value of the
// wrong type.
type ExtraForbiddenError struct {
	Key    string
	Reason string
}

func (e *ExtraForbiddenError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("navigator: extra forbidden: %s", e.Key)
	}
	return fmt.Sprintf("navigator: extra forbidden: %s: %s", e.Key, e.Reason)
}

func (e *ExtraForbiddenError) Unwrap() error { return ErrNavigator }

// MediaGroupError collects the reasons an album is invalid for send or
// incompatible with payload normalization.
type MediaGroupError struct {
	Reasons []string
}

func (e *MediaGroupError) Error() string {
	return "navigator: invalid media group: " + strings.Join(e.Reasons, "; ")
}

func (e *MediaGroupError) Unwrap() error { return ErrNavigator }
