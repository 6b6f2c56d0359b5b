package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler writes the client-facing response after a panic has been
// recovered and logged. It never sees the panic value; surfaces decide only
// what a broken request looks like on the wire.
type PanicHandler func(w http.ResponseWriter, r *http.Request)

// Recovery converts handler panics into logged 5xx responses so one broken
// room request cannot take down the process hosting every other room
func Recovery(logger *slog.Logger, respond PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				logger.Error("panic while handling request",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("remote_addr", r.RemoteAddr),
					slog.String("stack", string(debug.Stack())),
				)
				respond(w, r)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
