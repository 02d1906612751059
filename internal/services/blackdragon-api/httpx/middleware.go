package httpx

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/NordCoder/BlackDragon/internal/obs"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type Middleware func(http.Handler) http.Handler

// Chain applies mws so that the first one is the outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// LoggingMiddleware binds a request logger to the context and records
// status, latency and route metrics once the handler returns. Anything
// between it and the mux must pass the request pointer through unchanged,
// otherwise the matched pattern is not visible afterwards.
func LoggingMiddleware(base *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := base.With(
				zap.String("request_id", RequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("remote", r.RemoteAddr),
			)
			sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			r = r.WithContext(obs.WithLogger(r.Context(), l))
			next.ServeHTTP(sw, r)

			d := time.Since(start)
			obs.NameSpan(r.Context(), r.Pattern)
			obs.ObserveHTTP(r.Pattern, sw.statusCode, d)
			if r.URL.Path == "/healthz" && sw.statusCode < 400 {
				return
			}
			obs.WithTrace(r.Context(), l).Info("request.handled",
				zap.String("route", r.Pattern),
				zap.Int("status", sw.statusCode),
				zap.Duration("duration", d),
			)
		})
	}
}

func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				obs.Logger(r.Context(), nil).Error("panic.recovered",
					zap.Any("panic", p),
					zap.ByteString("stack", debug.Stack()),
				)
				Message(w, r, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.statusCode = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
