package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/pcmm-backend/internal/platform/ctxutil"
)

const (
	headerTraceID   = "X-Trace-Id"
	headerRequestID = "X-Request-Id"
)

// AttachTrace stores the request's trace ids on its context and echoes them
// back. The trace id of the otelgin span wins over a client supplied one so
// that logs and exported spans agree.
func AttachTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		span := trace.SpanFromContext(ctx)

		t := ctxutil.Trace{RequestID: strings.TrimSpace(c.GetHeader(headerRequestID))}
		if t.RequestID == "" {
			t.RequestID = uuid.New().String()
		}
		if sc := span.SpanContext(); sc.HasTraceID() {
			t.TraceID = sc.TraceID().String()
		} else if t.TraceID = strings.TrimSpace(c.GetHeader(headerTraceID)); t.TraceID == "" {
			t.TraceID = uuid.New().String()
		}
		span.SetAttributes(attribute.String("pcmm.request_id", t.RequestID))

		c.Request = c.Request.WithContext(ctxutil.WithTrace(ctx, t))
		c.Writer.Header().Set(headerTraceID, t.TraceID)
		c.Writer.Header().Set(headerRequestID, t.RequestID)
		c.Next()
	}
}
