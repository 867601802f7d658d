package observability

import (
	"log/slog"

	"github.com/aretw0/arche/pkg/progress"
)

// LogHooks returns hooks that log every fold step at debug level.
func LogHooks(logger *slog.Logger) progress.Hooks {
	return progress.Hooks{
		OnFold: func(name string, e progress.Event, s progress.Summary) {
			logger.Debug("summary_updated",
				"node_id", name,
				"type", e.Type.String(),
				"count", e.Count,
				"total", s.Count,
			)
		},
		OnSkip: func(name string, e progress.Event) {
			logger.Debug("event_skipped", "node_id", name, "type", e.Type.String())
		},
		OnSubscribe: func(name string, active int) {
			logger.Debug("subscribers_changed", "node_id", name, "active", active)
		},
	}
}

// Combine fans each callback out to every hook set, in order.
func Combine(sets ...progress.Hooks) progress.Hooks {
	var out progress.Hooks
	for _, h := range sets {
		out.OnFold = chain3(out.OnFold, h.OnFold)
		out.OnSkip = chain2(out.OnSkip, h.OnSkip)
		out.OnDrop = chain3(out.OnDrop, h.OnDrop)
		out.OnSubscribe = chain2(out.OnSubscribe, h.OnSubscribe)
	}
	return out
}

func chain2[A, B any](first, next func(A, B)) func(A, B) {
	switch {
	case first == nil:
		return next
	case next == nil:
		return first
	}
	return func(a A, b B) {
		first(a, b)
		next(a, b)
	}
}

func chain3[A, B, C any](first, next func(A, B, C)) func(A, B, C) {
	switch {
	case first == nil:
		return next
	case next == nil:
		return first
	}
	return func(a A, b B, c C) {
		first(a, b, c)
		next(a, b, c)
	}
}
