// Package nav defines the value model of the screen navigation engine:
// addressing scopes, render payloads, history entries, and the shared
// error taxonomy.
package nav

import "strconv"

// Category classifies the kind of chat a scope points at.
type Category string

const (
	CategoryPrivate Category = "private"
	CategoryGroup   Category = "group"
	CategoryChannel Category = "channel"
)

// Scope is the addressing envelope of a render: either a chat id or an
// inline message id identifies the target, plus the business connection,
// forum topic, and language of the conversation.
type Scope struct {
	Chat     *int64
	Inline   string
	Business string
	Category Category
	Topic    *int
	Direct   bool
	Lang     string
}

// IsInline reports whether the scope addresses an inline editing context.
func (s Scope) IsInline() bool {
	return s.Inline != ""
}

// CanDelete reports whether chat-wide deletes are possible in this scope.
// Inline contexts only support deletes through a business connection.
func (s Scope) CanDelete() bool {
	if !s.IsInline() {
		return true
	}
	return s.Business != ""
}

// Key returns the serialization key identifying the conversation: the
// inline id when present, otherwise the chat id, combined with the
// business connection. Locks and persisted state are keyed by it.
func (s Scope) Key() string {
	target := s.Inline
	if target == "" && s.Chat != nil {
		target = strconv.FormatInt(*s.Chat, 10)
	}
	if s.Business == "" {
		return target
	}
	return target + "|" + s.Business
}
