// Package execute maps transition verdicts onto gateway calls and
// applies the recoverable-error policy around them.
package execute

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chatnav/chatnav/internal/album"
	"github.com/chatnav/chatnav/internal/decision"
	"github.com/chatnav/chatnav/internal/extras"
	"github.com/chatnav/chatnav/internal/gateway"
	"github.com/chatnav/chatnav/internal/logger"
	"github.com/chatnav/chatnav/internal/nav"
)

// Config holds the executor knobs.
type Config struct {
	TextLimit    int
	CaptionLimit int
	// Truncate slices over-long text instead of failing.
	Truncate bool
	// ResendOnIdle upgrades a non-inline "message unchanged" edit to
	// delete-and-send.
	ResendOnIdle bool
	Album        album.Config
}

// Outcome reports what an Apply produced. Result is nil when the call
// was skipped. Payload is the prepared payload that actually went
// over the wire, so history reconstruction can store it verbatim.
type Outcome struct {
	Result  *gateway.Result
	Payload nav.Payload
	Changed bool
}

// Executor dispatches verdicts to the gateway.
type Executor struct {
	gw     gateway.Gateway
	san    *extras.Sanitizer
	cfg    Config
	logger *slog.Logger
}

// New creates an Executor.
func New(log *slog.Logger, gw gateway.Gateway, san *extras.Sanitizer, cfg Config) *Executor {
	if log == nil {
		log = slog.Default()
	}
	return &Executor{
		gw:     gw,
		san:    san,
		cfg:    cfg,
		logger: log.With(slog.String("service", "execute")),
	}
}

// Apply performs the gateway call a verdict demands against the
// previous message. Recoverable failures produce an unchanged outcome;
// everything else propagates.
func (e *Executor) Apply(ctx context.Context, scope nav.Scope, v decision.Verdict, prev *nav.Message, p nav.Payload) (Outcome, error) {
	if v == decision.NoChange {
		return Outcome{}, nil
	}

	prepared, err := e.Prepare(ctx, scope, p, v != decision.Resend && v != decision.DeleteSend)
	if err != nil {
		if skippable(err) {
			e.logger.Warn("render skipped",
				slog.String("verdict", v.String()),
				slog.Any("error", err))
			return Outcome{}, nil
		}
		return Outcome{}, err
	}

	result, err := e.dispatch(ctx, scope, v, prev, prepared)
	if err != nil {
		return e.recover(ctx, scope, v, prev, prepared, err)
	}
	return Outcome{Result: &result, Payload: prepared, Changed: true}, nil
}

func (e *Executor) dispatch(ctx context.Context, scope nav.Scope, v decision.Verdict, prev *nav.Message, p nav.Payload) (gateway.Result, error) {
	switch v {
	case decision.Resend:
		return e.gw.Send(ctx, scope, p)
	case decision.EditText:
		return e.gw.Rewrite(ctx, scope, headID(prev), p)
	case decision.EditMedia:
		return e.gw.Recast(ctx, scope, headID(prev), p)
	case decision.EditMediaCaption:
		return e.gw.Retitle(ctx, scope, headID(prev), p)
	case decision.EditMarkup:
		return e.gw.Remap(ctx, scope, headID(prev), p)
	case decision.DeleteSend:
		return e.resendDelete(ctx, scope, prev, p)
	default:
		return gateway.Result{}, fmt.Errorf("unhandled verdict %s", v)
	}
}

// resendDelete sends the new payload first, then removes the previous
// messages, so the screen never disappears entirely.
func (e *Executor) resendDelete(ctx context.Context, scope nav.Scope, prev *nav.Message, p nav.Payload) (gateway.Result, error) {
	result, err := e.gw.Send(ctx, scope, p)
	if err != nil {
		return gateway.Result{}, err
	}
	if prev != nil && scope.CanDelete() {
		if err := e.gw.Delete(ctx, scope, prev.AllIDs()); err != nil {
			return gateway.Result{}, fmt.Errorf("delete replaced messages: %w", err)
		}
	}
	return result, nil
}

func (e *Executor) recover(ctx context.Context, scope nav.Scope, v decision.Verdict, prev *nav.Message, p nav.Payload, err error) (Outcome, error) {
	switch {
	case errors.Is(err, nav.ErrEditForbidden):
		if scope.IsInline() {
			e.logger.Warn("edit forbidden in inline scope, skipping", slog.Any("error", err))
			return Outcome{}, nil
		}
		e.logger.Info("edit forbidden, falling back to resend", slog.String("verdict", v.String()))
		result, sendErr := e.resendDelete(ctx, scope, prev, p)
		if sendErr != nil {
			return Outcome{}, sendErr
		}
		return Outcome{Result: &result, Payload: p, Changed: true}, nil
	case errors.Is(err, nav.ErrMessageUnchanged):
		if scope.IsInline() || !e.cfg.ResendOnIdle {
			e.logger.Debug("message unchanged, skipping")
			return Outcome{}, nil
		}
		result, sendErr := e.resendDelete(ctx, scope, prev, p)
		if sendErr != nil {
			return Outcome{}, sendErr
		}
		return Outcome{Result: &result, Payload: p, Changed: true}, nil
	case skippable(err):
		e.logger.Warn("render skipped", slog.String("verdict", v.String()), slog.Any("error", err))
		return Outcome{}, nil
	default:
		return Outcome{}, err
	}
}

// Edit performs one targeted edit against an explicit message id,
// without the fallback policy. Album partial updates use it so a
// failure can abort the whole partial pass instead of half-recovering.
func (e *Executor) Edit(ctx context.Context, scope nav.Scope, v decision.Verdict, id int, p nav.Payload) (gateway.Result, error) {
	prepared, err := e.Prepare(ctx, scope, p, true)
	if err != nil {
		return gateway.Result{}, err
	}
	switch v {
	case decision.EditText:
		return e.gw.Rewrite(ctx, scope, id, prepared)
	case decision.EditMedia:
		return e.gw.Recast(ctx, scope, id, prepared)
	case decision.EditMediaCaption:
		return e.gw.Retitle(ctx, scope, id, prepared)
	case decision.EditMarkup:
		return e.gw.Remap(ctx, scope, id, prepared)
	default:
		return gateway.Result{}, fmt.Errorf("verdict %s is not a targeted edit", v)
	}
}

// Remove deletes the given messages, skipping silently in scopes that
// do not support deletion.
func (e *Executor) Remove(ctx context.Context, scope nav.Scope, ids []int) error {
	if len(ids) == 0 || !scope.CanDelete() {
		return nil
	}
	return e.gw.Delete(ctx, scope, ids)
}

// Prepare validates and normalizes a payload right before I/O: empty
// check, album validation, length limits (with optional truncation),
// and the extras whitelist. The returned payload carries only
// admissible extra fields.
func (e *Executor) Prepare(ctx context.Context, scope nav.Scope, p nav.Payload, editing bool) (nav.Payload, error) {
	if p.Empty() {
		return p, nav.ErrEmptyPayload
	}
	if len(p.Group) > 0 {
		if err := e.cfg.Album.Validate(p.Group); err != nil {
			return p, err
		}
	}

	isMedia := p.Media != nil || len(p.Group) > 0
	if err := e.clampLength(&p, isMedia); err != nil {
		return p, err
	}

	sanitized, err := e.sanitize(scope, p, isMedia, editing)
	if err != nil {
		return p, err
	}
	p.Extra = sanitized.Merged()
	return p, nil
}

func (e *Executor) clampLength(p *nav.Payload, isMedia bool) error {
	limit := e.cfg.TextLimit
	overflow := nav.ErrTextOverflow
	if isMedia {
		limit = e.cfg.CaptionLimit
		overflow = nav.ErrCaptionOverflow
	}
	if limit <= 0 {
		return nil
	}
	runes := []rune(p.Text)
	if len(runes) <= limit {
		return nil
	}
	if !e.cfg.Truncate {
		return overflow
	}
	e.logger.Warn("text truncated",
		slog.Int("length", len(runes)),
		slog.Int("limit", limit),
		slog.String("text", logger.Text(p.Text)))
	p.Text = string(runes[:limit])
	return nil
}

func (e *Executor) sanitize(scope nav.Scope, p nav.Payload, isMedia, editing bool) (extras.Sanitized, error) {
	// Entity bounds are checked against the exact string the gateway
	// transmits: the raw text for plain messages, the effective
	// caption for media.
	length := len([]rune(p.Text))
	if isMedia {
		length = 0
		if caption := p.EffectiveCaption(); caption != nil {
			length = len([]rune(*caption))
		}
	}
	if editing {
		return e.san.ForEdit(scope, p.Extra, length, isMedia)
	}
	return e.san.ForSend(scope, p.Extra, length, isMedia)
}

func headID(prev *nav.Message) int {
	if prev == nil {
		return 0
	}
	return prev.ID
}

// skippable reports whether the error belongs to the silently-skipped
// validation class.
func skippable(err error) bool {
	if errors.Is(err, nav.ErrEmptyPayload) ||
		errors.Is(err, nav.ErrTextOverflow) ||
		errors.Is(err, nav.ErrCaptionOverflow) {
		return true
	}
	var forbidden *nav.ExtraForbiddenError
	return errors.As(err, &forbidden)
}
