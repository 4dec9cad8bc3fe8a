package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "sportz"

// StartPublishSpan starts a span for one live-feed publish.
func StartPublishSpan(ctx context.Context, eventType, topic string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "livefeed.publish",
		trace.WithAttributes(
			attribute.String("event.type", eventType),
			attribute.String("feed.topic", topic),
		),
	)
}

// StartExportSpan starts a span for exporting an event to the message queue.
func StartExportSpan(ctx context.Context, subject string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "export.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(attribute.String("messaging.destination", subject)),
	)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
