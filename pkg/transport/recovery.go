package transport

import (
	"log/slog"
	"net/http"

	"github.com/rhuss/tokengate/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to a 500 JSON error. The server continues to accept new
// requests after a panic is recovered. http.ErrAbortHandler is re-panicked so
// net/http can abort the connection as intended.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					slog.String("request_id", RequestIDFromContext(r.Context())),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
				)
				WriteErrorResponse(w, http.StatusInternalServerError,
					api.NewErrorResponse(api.ReasonInternalError, "internal server error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
