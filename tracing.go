package boletim

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attributes.
const (
	AttrSessionID = attribute.Key("boletim.session.id")
	AttrSectionID = attribute.Key("boletim.section.id")
	AttrStepID    = attribute.Key("boletim.step.id")
	AttrAccepted  = attribute.Key("boletim.answer.accepted")
)

func (e *Engine) start(ctx context.Context, op, sessionID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, AttrSessionID.String(sessionID))
	return e.tracer.Start(ctx, "boletim."+op, trace.WithAttributes(attrs...))
}

// record marks the span as failed when err is set and returns err unchanged.
func (e *Engine) record(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
