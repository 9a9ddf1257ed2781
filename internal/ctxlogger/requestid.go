package ctxlogger

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

var requestIDKey int

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, &requestIDKey, id)
}

func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(&requestIDKey); v != nil {
		return v.(string)
	}

	return ""
}

// AddRequestIDHook tags the request logger with an id, reusing the inbound
// X-Request-ID header when it parses as a uuid. The id is echoed back in the
// response and attached to the context logger so that log lines from the
// extractor can be tied to the request line.
func AddRequestIDHook() func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	return func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		rw.Header().Set(RequestIDHeader, id)

		ctx := WithRequestID(r.Context(), id)
		ctx = WithLogger(ctx, GetLogger(ctx).WithField("http.request_id", id))
		ctx = AddHookPair(ctx, func(rw http.ResponseWriter, r *http.Request, l logrus.FieldLogger) logrus.FieldLogger {
			return l.WithField("http.request_id", id)
		}, nil)

		next(rw, r.WithContext(ctx))
	}
}
