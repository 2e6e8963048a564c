package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "twinforge"

// StartRequestSpan starts a span for one principal request.
func StartRequestSpan(ctx context.Context, requestID, requestType string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "request",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("request.type", requestType),
		),
	)
}

// StartExpertSpan starts a span for one expert invocation within a request.
func StartExpertSpan(ctx context.Context, requestID, expert string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "expert",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("expert.key", expert),
		),
	)
}

// StartPublishSpan starts a span for appending a final response to the sink.
func StartPublishSpan(ctx context.Context, requestID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "publish",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
}

// StartJobSpan starts a span for a background job.
func StartJobSpan(ctx context.Context, processingID, requestID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "job",
		trace.WithAttributes(
			attribute.String("job.processing_id", processingID),
			attribute.String("request.id", requestID),
		),
	)
}
