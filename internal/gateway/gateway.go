// Package gateway defines the port to the external chat backend. The
// engine depends only on this interface; wire adapters live in
// subpackages and map backend errors onto the shared taxonomy.
package gateway

import (
	"context"

	"github.com/chatnav/chatnav/internal/nav"
)

// Result kinds reported by gateway calls.
const (
	KindText  = "text"
	KindMedia = "media"
	KindGroup = "group"
	KindBool  = "bool"
)

// Cluster is the per-item meta of one album member.
type Cluster struct {
	Medium  nav.MediaType `json:"medium"`
	File    string        `json:"file"`
	Caption string        `json:"caption,omitempty"`
}

// Result is the structured outcome of a gateway call. Kind is one of
// text, media, group, or bool; bool marks the backend's boolean-only
// responses (caption and markup edits) whose meta the planner
// reconstructs from history.
type Result struct {
	ID       int
	Extra    []int
	Kind     string
	Medium   nav.MediaType
	File     string
	Caption  string
	Text     string
	Clusters []Cluster
	Inline   string
}

// Gateway is the abstract chat backend.
type Gateway interface {
	// Send delivers a new message (or album) to the scope.
	Send(ctx context.Context, scope nav.Scope, p nav.Payload) (Result, error)
	// Rewrite edits the text of an existing message.
	Rewrite(ctx context.Context, scope nav.Scope, id int, p nav.Payload) (Result, error)
	// Recast replaces the media of an existing message.
	Recast(ctx context.Context, scope nav.Scope, id int, p nav.Payload) (Result, error)
	// Retitle edits the caption of an existing media message. An
	// explicit empty caption (erase) clears it.
	Retitle(ctx context.Context, scope nav.Scope, id int, p nav.Payload) (Result, error)
	// Remap replaces the reply markup of an existing message.
	Remap(ctx context.Context, scope nav.Scope, id int, p nav.Payload) (Result, error)
	// Delete removes the given messages from the scope's chat.
	Delete(ctx context.Context, scope nav.Scope, ids []int) error
	// Alert pushes a localized notification to the scope.
	Alert(ctx context.Context, scope nav.Scope, text string) error
}
