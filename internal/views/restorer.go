package views

import (
	"context"
	"log/slog"

	"github.com/chatnav/chatnav/internal/nav"
)

// Restorer reconstructs the payloads of a history entry.
type Restorer struct {
	ledger *Ledger
	logger *slog.Logger
}

// NewRestorer creates a Restorer over a ledger.
func NewRestorer(log *slog.Logger, ledger *Ledger) *Restorer {
	if log == nil {
		log = slog.Default()
	}
	return &Restorer{
		ledger: ledger,
		logger: log.With(slog.String("service", "views")),
	}
}

// Restore rebuilds the payloads of entry. A registered factory is
// preferred; on a missing key or factory failure the payloads are
// rebuilt statically from the entry's messages. Inline scopes keep a
// single payload. Restore never fails.
func (r *Restorer) Restore(ctx context.Context, entry nav.Entry, c Context, inlined bool) []nav.Payload {
	payloads := r.dynamic(ctx, entry, c)
	if payloads == nil {
		payloads = Static(entry)
	}
	if inlined && len(payloads) > 1 {
		r.logger.Debug("inline restore keeps a single payload", slog.Int("dropped", len(payloads)-1))
		payloads = payloads[:1]
	}
	return payloads
}

func (r *Restorer) dynamic(ctx context.Context, entry nav.Entry, c Context) []nav.Payload {
	if entry.View == "" || r.ledger == nil {
		return nil
	}
	reg, ok := r.ledger.Get(entry.View)
	if !ok {
		r.logger.Warn("view factory not registered, restoring statically", slog.String("view", entry.View))
		return nil
	}
	payloads, err := reg.Factory(ctx, narrow(c, reg.Params))
	if err != nil {
		r.logger.Warn("view factory failed, restoring statically",
			slog.String("view", entry.View),
			slog.Any("error", err))
		return nil
	}
	if len(payloads) == 0 {
		return nil
	}
	return payloads
}

// narrow passes through only the context keys the factory declared.
func narrow(c Context, params []string) Context {
	if len(params) == 0 {
		return Context{}
	}
	out := Context{}
	for _, key := range params {
		if value, ok := c[key]; ok {
			out[key] = value
		}
	}
	return out
}

// Static rebuilds payloads from the entry's recorded messages, one
// payload per message.
func Static(entry nav.Entry) []nav.Payload {
	payloads := make([]nav.Payload, 0, len(entry.Messages))
	for _, m := range entry.Messages {
		p := nav.Payload{
			Reply:   m.Markup,
			Preview: m.Preview,
			Extra:   m.Extra,
		}
		switch {
		case len(m.Group) > 0:
			p.Group = append([]nav.MediaItem(nil), m.Group...)
		case m.Media != nil:
			media := *m.Media
			p.Media = &media
			p.Text = m.Text
		default:
			p.Text = m.Text
		}
		payloads = append(payloads, p)
	}
	return payloads
}
