package tracing

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"leadpdf/pkg/logging"
)

var untracedPaths = map[string]bool{
	"/metrics":    true,
	"/api/health": true,
	"/api/ready":  true,
}

// GinMiddleware starts a server span per request, skipping probe and scrape
// endpoints.
func GinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName, otelgin.WithFilter(func(r *http.Request) bool {
		return !untracedPaths[r.URL.Path]
	}))
}

// TraceIDMiddleware must run after GinMiddleware.
func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		spanCtx := trace.SpanContextFromContext(c.Request.Context())
		if spanCtx.HasTraceID() {
			c.Request = c.Request.WithContext(logging.WithTraceID(c.Request.Context(), spanCtx.TraceID().String()))
		}
		c.Next()
	}
}
