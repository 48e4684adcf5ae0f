package client

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const spanName = "rester.request"

func (c *Client) startSpan(ctx context.Context, op Operation, requestID string) (context.Context, trace.Span) {
	ctx, span := c.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String("http.request.method", strings.ToUpper(op.Method)),
		attribute.String("url.template", op.Path),
		attribute.String("request.id", requestID),
	)

	return ctx, span
}

func spanFailed(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func spanResult(span trace.Span, res *Result) {
	span.SetAttributes(
		attribute.Int("http.response.status_code", res.Code),
		attribute.String("rester.body.kind", res.Body.Kind.String()),
	)

	if res.Code >= http.StatusBadRequest {
		span.SetStatus(codes.Error, http.StatusText(res.Code))
	}
}
