// Package transport provides the HTTP plumbing shared by tokengate's server:
// the middleware chain (request ID, panic recovery, structured request
// logging), JSON response helpers, and a Server type that owns the
// http.Server lifecycle including graceful shutdown.
//
// Middleware here is plain func(http.Handler) http.Handler so it composes with
// any router. Logging uses log/slog.
package transport
