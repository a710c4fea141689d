package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func TestTraceRequests(t *testing.T) {
	// A real (exporterless) provider so started spans carry a valid
	// span context, unlike the default no-op provider.
	otel.SetTracerProvider(sdktrace.NewTracerProvider())
	defer otel.SetTracerProvider(trace.NewNoopTracerProvider())

	gin.SetMode(gin.TestMode)
	engine := gin.New()

	r := &Router{logger: zap.NewNop()}
	engine.Use(r.traceRequests)

	var seen trace.SpanContext
	engine.GET("/ping", func(c *gin.Context) {
		seen = trace.SpanFromContext(c.Request.Context()).SpanContext()
		c.String(http.StatusOK, "pong")
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !seen.IsValid() {
		t.Error("handler did not receive a span on the request context")
	}
}
