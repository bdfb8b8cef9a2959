package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/boletim/pkg/domain"
)

// LoggingHooks logs every lifecycle event at debug level.
// Answer texts are never logged.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnSessionStarted: func(ctx context.Context, e *domain.EventBase) {
			logger.DebugContext(ctx, "session_started", "session_id", e.SessionID)
		},
		OnAnswerAccepted: func(ctx context.Context, e *domain.AnswerEvent) {
			logger.DebugContext(ctx, "answer_accepted",
				"session_id", e.SessionID,
				"section_id", e.SectionID,
				"step_id", e.StepID,
			)
		},
		OnAnswerRejected: func(ctx context.Context, e *domain.AnswerEvent) {
			logger.DebugContext(ctx, "answer_rejected",
				"session_id", e.SessionID,
				"step_id", e.StepID,
				"message", e.Message,
			)
		},
		OnSectionCompleted: func(ctx context.Context, e *domain.SectionCompletedEvent) {
			logger.DebugContext(ctx, "section_completed",
				"session_id", e.SessionID,
				"section_id", e.SectionID,
				"skipped", e.Skipped,
				"answers", len(e.Answers),
			)
		},
		OnNarrative: func(ctx context.Context, e *domain.NarrativeEvent) {
			logger.DebugContext(ctx, "narrative",
				"session_id", e.SessionID,
				"section_id", e.SectionID,
				"duration", e.Duration,
				"is_error", e.IsError,
			)
		},
	}
}

// Combine fans every event out to each hook set, in order. Nil callbacks are skipped.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnSessionStarted = chain(out.OnSessionStarted, h.OnSessionStarted)
		out.OnAnswerAccepted = chain(out.OnAnswerAccepted, h.OnAnswerAccepted)
		out.OnAnswerRejected = chain(out.OnAnswerRejected, h.OnAnswerRejected)
		out.OnSectionCompleted = chain(out.OnSectionCompleted, h.OnSectionCompleted)
		out.OnNarrative = chain(out.OnNarrative, h.OnNarrative)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
