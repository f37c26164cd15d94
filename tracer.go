package bearerauth

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lpforge/bearerauth/core"
)

const instrumentationName = "github.com/lpforge/bearerauth"

func defaultTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// startSpan opens the server-side span of one authenticated request. The
// verification span started by core is its child.
func (m *Middleware) startSpan(r *http.Request) (ctx context.Context, span trace.Span) {
	return m.tracer.Start(r.Context(), "bearerauth.CheckJWT",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("http.request.method", r.Method),
			attribute.String("url.path", r.URL.Path),
		))
}

func recordRejection(span trace.Span, reason core.Reason) {
	span.SetAttributes(attribute.String("bearerauth.reason", reason.String()))
	span.SetStatus(codes.Error, "authentication failed")
}
