package ctxutil

import "context"

type traceKey struct{}

// Trace ties one API call to the logs and tag runs it produces. It survives
// context.WithoutCancel, so a tag snapshot outliving its request still logs
// the request that started it.
type Trace struct {
	TraceID   string
	RequestID string
}

func WithTrace(ctx context.Context, t Trace) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

func TraceFrom(ctx context.Context) (Trace, bool) {
	t, ok := ctx.Value(traceKey{}).(Trace)
	return t, ok
}

// LogFields returns the non-empty trace ids as logger key/value pairs.
func LogFields(ctx context.Context) []interface{} {
	t, ok := TraceFrom(ctx)
	if !ok {
		return nil
	}
	var kv []interface{}
	if t.TraceID != "" {
		kv = append(kv, "trace_id", t.TraceID)
	}
	if t.RequestID != "" {
		kv = append(kv, "request_id", t.RequestID)
	}
	return kv
}
