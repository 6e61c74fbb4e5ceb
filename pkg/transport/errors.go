package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rhuss/tokengate/pkg/api"
)

// WriteJSON writes v as a JSON body with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("writing JSON response failed", "error", err)
	}
}

// WriteErrorResponse writes a JSON error body. Authentication failures are
// the only callers expected to pass 401, and for those the WWW-Authenticate
// challenge is added.
func WriteErrorResponse(w http.ResponseWriter, statusCode int, body *api.ErrorResponse) {
	if statusCode == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="tokengate"`)
	}
	WriteJSON(w, statusCode, body)
}
