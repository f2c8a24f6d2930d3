package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Giansimone-Coccia/Progetto-PA-sub000/internal/api/response"
)

// Recovery turns a handler panic into a 500 response. Worker goroutines
// have their own recover in the queue package; this one covers the HTTP
// path only.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			slog.Error("panic recovered",
				"panic", v,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "An unexpected error occurred", nil)
		}()
		next.ServeHTTP(w, r)
	})
}
