package navigator

import (
	"context"
	"log/slog"

	"github.com/chatnav/chatnav/internal/nav"
	"github.com/chatnav/chatnav/internal/store"
	"github.com/chatnav/chatnav/internal/views"
)

// Back drops the last screen and re-renders the previous one over it.
// The restored entry's state is assigned even when the render is a
// no-op.
func (s *Service) Back(ctx context.Context, scope nav.Scope, c views.Context) error {
	return s.withLock(ctx, scope, func(st store.State) error {
		history, err := st.Recall(ctx)
		if err != nil {
			return err
		}
		if len(history) < 2 {
			return nav.ErrHistoryEmpty
		}
		current := history[len(history)-1]
		target := history[len(history)-2]

		payloads := s.restorer.Restore(ctx, target, s.viewContext(ctx, st, c), scope.IsInline())
		node, err := s.planner.Render(ctx, scope, payloads, &current)
		if err != nil {
			return err
		}
		if node != nil {
			target = target.WithMessages(node.Messages)
		}

		if err := s.dropTail(ctx, scope, current, target); err != nil {
			return err
		}

		history[len(history)-2] = target
		history = store.Prune(history[:len(history)-1], s.cfg.HistoryLimit)
		if err := s.assign(ctx, st, target.State); err != nil {
			return err
		}
		return s.commit(ctx, st, history)
	})
}

// dropTail deletes the dropped screen's backend messages when the
// inline business tail policy asks for it, sparing ids the restored
// screen reuses.
func (s *Service) dropTail(ctx context.Context, scope nav.Scope, dropped, kept nav.Entry) error {
	if !scope.IsInline() || scope.Business == "" {
		return nil
	}
	if s.cfg.TailPolicy != TailDelete && s.cfg.TailPolicy != TailCollapse {
		return nil
	}
	reused := map[int]struct{}{}
	for _, id := range kept.AllIDs() {
		reused[id] = struct{}{}
	}
	var stale []int
	for _, id := range dropped.AllIDs() {
		if _, ok := reused[id]; ok {
			continue
		}
		stale = append(stale, id)
	}
	if len(stale) == 0 {
		return nil
	}
	return s.gw.Delete(ctx, scope, stale)
}

// Set rewinds the history to the most recent entry carrying the target
// state and re-renders it. A missing state alerts the user instead of
// failing.
func (s *Service) Set(ctx context.Context, scope nav.Scope, targetState string, c views.Context) error {
	return s.withLock(ctx, scope, func(st store.State) error {
		history, err := st.Recall(ctx)
		if err != nil {
			return err
		}
		idx := -1
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].State == targetState {
				idx = i
				break
			}
		}
		if idx < 0 {
			s.logger.Info("state not found, alerting", slog.String("state", targetState))
			return s.Alert(ctx, scope, notFoundText(scope.Lang))
		}

		var current *nav.Entry
		if len(history) > 0 {
			last := history[len(history)-1]
			current = &last
		}
		target := history[idx]

		payloads := s.restorer.Restore(ctx, target, s.viewContext(ctx, st, c), scope.IsInline())
		node, err := s.planner.Render(ctx, scope, payloads, current)
		if err != nil {
			return err
		}
		if node != nil {
			target = target.WithMessages(node.Messages)
		}

		history = append(history[:idx], target)
		if err := s.assign(ctx, st, target.State); err != nil {
			return err
		}
		return s.commit(ctx, st, store.Prune(history, s.cfg.HistoryLimit))
	})
}

// Pop drops the last k screens without re-rendering. k is clamped to
// leave at least one entry.
func (s *Service) Pop(ctx context.Context, scope nav.Scope, k int) error {
	if k < 1 {
		return nil
	}
	return s.withLock(ctx, scope, func(st store.State) error {
		history, err := st.Recall(ctx)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			return nav.ErrHistoryEmpty
		}
		if k > len(history)-1 {
			k = len(history) - 1
		}
		if k == 0 {
			return nil
		}
		return s.commit(ctx, st, history[:len(history)-k])
	})
}

// TailEdit re-renders the single message identified by the latest-id
// marker in place.
func (s *Service) TailEdit(ctx context.Context, scope nav.Scope, p nav.Payload) error {
	return s.withLock(ctx, scope, func(st store.State) error {
		history, err := st.Recall(ctx)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			return nav.ErrHistoryEmpty
		}
		latest, err := st.Peek(ctx)
		if err != nil {
			return err
		}
		if latest == nil {
			return nav.ErrHistoryEmpty
		}
		last := history[len(history)-1]
		head, ok := last.Head()
		if !ok || head.ID != *latest {
			s.logger.Warn("latest marker does not match history head",
				slog.Int("marker", *latest),
				slog.Int("head", head.ID))
		}

		tail := nav.Entry{Messages: []nav.Message{head}}
		node, err := s.planner.Render(ctx, scope, []nav.Payload{p}, &tail)
		if err != nil {
			return err
		}
		if node == nil || !node.Changed {
			return nil
		}
		messages := append([]nav.Message(nil), last.Messages...)
		messages[0] = node.Messages[0]
		history[len(history)-1] = last.WithMessages(messages)
		return s.commit(ctx, st, history)
	})
}

// Rebase rewrites the head id of the last entry to an externally
// generated id and clears the transient buffer.
func (s *Service) Rebase(ctx context.Context, scope nav.Scope, marker int) error {
	return s.withLock(ctx, scope, func(st store.State) error {
		history, err := st.Recall(ctx)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			return nav.ErrHistoryEmpty
		}
		history[len(history)-1] = history[len(history)-1].WithHeadID(marker)
		if err := st.Stash(ctx, nil); err != nil {
			return err
		}
		return s.commit(ctx, st, history)
	})
}

// Alert pushes a notification to the conversation.
func (s *Service) Alert(ctx context.Context, scope nav.Scope, text string) error {
	return s.gw.Alert(ctx, scope, text)
}

// notFoundText localizes the "previous screen not found" notice.
func notFoundText(lang string) string {
	switch lang {
	case "ru":
		return "Экран не найден"
	case "de":
		return "Ansicht nicht gefunden"
	default:
		return "Screen not found"
	}
}
