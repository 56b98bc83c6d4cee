package middleware

import (
	"fmt"
	"net/http"

	"techsparks/internal/observability"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader echoes the request's trace id back to the client.
const TraceIDHeader = "X-Trace-ID"

// TracingMiddleware opens a server span per request, continuing any W3C
// trace context the caller sent. The span is renamed to the matched route
// once routing has happened. A panic ends the span before it propagates to
// the recover middleware.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		carrier := propagation.HeaderCarrier(http.Header(c.GetReqHeaders()))
		parent := otel.GetTextMapPropagator().Extract(c.UserContext(), carrier)

		ctx, span := observability.Tracer.Start(parent, c.Method()+" "+c.Path(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Method()),
				attribute.String("url.path", c.Path()),
				attribute.String("client.address", c.IP()),
				attribute.String("user_agent.original", c.Get(fiber.HeaderUserAgent)),
			),
		)
		defer func() {
			if r := recover(); r != nil {
				span.RecordError(fmt.Errorf("panic: %v", r))
				span.SetStatus(codes.Error, "panic")
				span.End()
				panic(r)
			}
			span.End()
		}()

		c.SetUserContext(ctx)
		if sc := span.SpanContext(); sc.HasTraceID() {
			c.Set(TraceIDHeader, sc.TraceID().String())
		}

		chainErr := c.Next()
		renderError(c, chainErr)
		status := c.Response().StatusCode()

		span.SetName(c.Method() + " " + c.Route().Path)
		span.SetAttributes(
			attribute.String("http.route", c.Route().Path),
			attribute.Int("http.response.status_code", status),
		)
		if requestID, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", requestID))
		}
		if userID := CurrentUserID(c); userID != "" {
			span.SetAttributes(attribute.String("user.id", userID))
		}
		switch {
		case chainErr != nil:
			span.RecordError(chainErr)
			span.SetStatus(codes.Error, chainErr.Error())
		case status >= fiber.StatusInternalServerError:
			span.SetStatus(codes.Error, http.StatusText(status))
		}
		return nil
	}
}
