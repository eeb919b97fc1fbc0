package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

func StructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			t1 := time.Now()
			defer func() {
				attrs := []any{
					"proto", r.Proto,
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent(),
					"status", ww.Status(),
					"latency_ms", float64(time.Since(t1).Nanoseconds()) / 1000000.0,
					"bytes_written", ww.BytesWritten(),
					"request_id", middleware.GetReqID(r.Context()),
				}
				if caller, ok := CallerFromContext(r.Context()); ok {
					attrs = append(attrs, "caller", caller.Subject, "role", string(caller.Role))
				}

				switch {
				case ww.Status() >= http.StatusInternalServerError:
					logger.ErrorContext(r.Context(), "Served request", attrs...)
				case ww.Status() >= http.StatusBadRequest:
					logger.WarnContext(r.Context(), "Served request", attrs...)
				default:
					logger.InfoContext(r.Context(), "Served request", attrs...)
				}
			}()
			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}
