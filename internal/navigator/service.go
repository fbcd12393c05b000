// Package navigator orchestrates the navigation verbs: every verb
// locks the conversation, reads history, renders through the planner,
// and writes the reconciled history back.
package navigator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chatnav/chatnav/internal/gateway"
	"github.com/chatnav/chatnav/internal/lock"
	"github.com/chatnav/chatnav/internal/nav"
	"github.com/chatnav/chatnav/internal/planner"
	"github.com/chatnav/chatnav/internal/store"
	"github.com/chatnav/chatnav/internal/views"
)

// Tail policies for dropped screens under an inline business scope.
const (
	TailKeep     = "keep"
	TailDelete   = "delete"
	TailCollapse = "collapse"
)

// Config holds the use-case knobs.
type Config struct {
	HistoryLimit int
	TailPolicy   string
}

// Service implements the navigation verbs.
type Service struct {
	stores   store.Provider
	locks    lock.Provider
	planner  *planner.Planner
	restorer *views.Restorer
	gw       gateway.Gateway
	cfg      Config
	logger   *slog.Logger
}

// NewService creates a Service.
func NewService(log *slog.Logger, stores store.Provider, locks lock.Provider, pl *planner.Planner, restorer *views.Restorer, gw gateway.Gateway, cfg Config) *Service {
	if log == nil {
		log = slog.Default()
	}
	if cfg.TailPolicy == "" {
		cfg.TailPolicy = TailKeep
	}
	return &Service{
		stores:   stores,
		locks:    locks,
		planner:  pl,
		restorer: restorer,
		gw:       gw,
		cfg:      cfg,
		logger:   log.With(slog.String("service", "navigator")),
	}
}

// withLock runs fn under the conversation latch with its state loaded.
func (s *Service) withLock(ctx context.Context, scope nav.Scope, fn func(st store.State) error) error {
	release, err := s.locks.Acquire(ctx, scope.Key())
	if err != nil {
		return fmt.Errorf("acquire conversation lock: %w", err)
	}
	defer func() {
		if releaseErr := release(ctx); releaseErr != nil {
			s.logger.Error("release conversation lock", slog.Any("error", releaseErr))
		}
	}()

	st, err := s.stores.For(ctx, scope)
	if err != nil {
		return fmt.Errorf("load conversation state: %w", err)
	}
	return fn(st)
}

// Assign sets the FSM state of the conversation and records the
// transition in the graph.
func (s *Service) Assign(ctx context.Context, scope nav.Scope, state string) error {
	return s.withLock(ctx, scope, func(st store.State) error {
		return s.assign(ctx, st, state)
	})
}

func (s *Service) assign(ctx context.Context, st store.State, state string) error {
	previous, err := st.Status(ctx)
	if err != nil {
		return err
	}
	if err := st.Assign(ctx, state); err != nil {
		return err
	}
	return store.NewTransitionRecorder(st).Record(ctx, previous, state)
}

// Add renders a new screen on top of the history and appends it.
func (s *Service) Add(ctx context.Context, scope nav.Scope, payloads []nav.Payload, viewKey string, root bool) error {
	return s.withLock(ctx, scope, func(st store.State) error {
		history, err := st.Recall(ctx)
		if err != nil {
			return err
		}
		node, err := s.planner.Render(ctx, scope, payloads, lastEntry(history))
		if err != nil {
			return err
		}
		if node == nil || !node.Changed {
			s.logger.Debug("add produced no change")
			return nil
		}
		state, err := st.Status(ctx)
		if err != nil {
			return err
		}
		entry := nav.Entry{State: state, View: viewKey, Root: root, Messages: node.Messages}
		history = store.Prune(append(history, entry), s.cfg.HistoryLimit)
		return s.commit(ctx, st, history)
	})
}

// Replace re-renders the last screen in place, keeping its view key,
// state, and root flag.
func (s *Service) Replace(ctx context.Context, scope nav.Scope, payloads []nav.Payload) error {
	return s.withLock(ctx, scope, func(st store.State) error {
		history, err := st.Recall(ctx)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			return nav.ErrHistoryEmpty
		}
		last := history[len(history)-1]
		node, err := s.planner.Render(ctx, scope, payloads, &last)
		if err != nil {
			return err
		}
		if node == nil || !node.Changed {
			s.logger.Debug("replace produced no change")
			return nil
		}
		history[len(history)-1] = last.WithMessages(node.Messages)
		return s.commit(ctx, st, store.Prune(history, s.cfg.HistoryLimit))
	})
}

// commit archives the history and refreshes the latest-id marker from
// the last entry's head.
func (s *Service) commit(ctx context.Context, st store.State, history []nav.Entry) error {
	if err := st.Archive(ctx, history); err != nil {
		return err
	}
	if len(history) == 0 {
		return st.Mark(ctx, nil)
	}
	head := history[len(history)-1].HeadID()
	return st.Mark(ctx, &head)
}

// viewContext merges the FSM data of the conversation with the
// caller-provided context; the caller wins on conflicts.
func (s *Service) viewContext(ctx context.Context, st store.State, c views.Context) views.Context {
	merged := views.Context{}
	if data, err := st.Payload(ctx); err == nil {
		for k, v := range data {
			merged[k] = v
		}
	} else {
		s.logger.Warn("load fsm data", slog.Any("error", err))
	}
	for k, v := range c {
		merged[k] = v
	}
	return merged
}

func lastEntry(history []nav.Entry) *nav.Entry {
	if len(history) == 0 {
		return nil
	}
	last := history[len(history)-1]
	return &last
}
