package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/pcmm-backend/internal/platform/ctxutil"
)

func traceRouter() (*gin.Engine, *ctxutil.Trace) {
	gin.SetMode(gin.TestMode)
	seen := &ctxutil.Trace{}
	r := gin.New()
	r.Use(AttachTrace())
	r.GET("/trace", func(c *gin.Context) {
		*seen, _ = ctxutil.TraceFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return r, seen
}

func TestAttachTraceKeepsClientIDs(t *testing.T) {
	r, seen := traceRouter()
	req := httptest.NewRequest(http.MethodGet, "/trace", nil)
	req.Header.Set(headerRequestID, " req-42 ")
	req.Header.Set(headerTraceID, "trace-7")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen.RequestID != "req-42" || seen.TraceID != "trace-7" {
		t.Fatalf("context trace: got %+v", seen)
	}
	if rec.Header().Get(headerRequestID) != "req-42" || rec.Header().Get(headerTraceID) != "trace-7" {
		t.Fatalf("echoed headers: got %v", rec.Header())
	}
}

func TestAttachTraceGeneratesIDs(t *testing.T) {
	r, seen := traceRouter()
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/trace", nil))

	if seen.RequestID == "" || seen.TraceID == "" || seen.RequestID == seen.TraceID {
		t.Fatalf("generated ids: got %+v", seen)
	}
	if rec.Header().Get(headerRequestID) != seen.RequestID {
		t.Fatalf("request id not echoed: %v", rec.Header())
	}
}
