package api

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/fauna-labs/fwitter/pkg/telemetry"
)

// traceRequests opens one span per request. The span context rides the
// request context down into the service and database layers, and the
// matched route and response status are recorded once the handler ran.
func (r *Router) traceRequests(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), c.Request.Method+" "+c.Request.URL.Path)
	defer span.End()

	c.Request = c.Request.WithContext(ctx)
	c.Next()

	span.SetAttributes(
		attribute.String("http.method", c.Request.Method),
		attribute.String("http.route", c.FullPath()),
		attribute.Int("http.status_code", c.Writer.Status()),
	)
}
