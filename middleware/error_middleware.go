package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"

	"travel-server/logger"
	"travel-server/utils/errors"
)

// ErrorMiddleware recovers from panics and answers with a 500 JSON error.
func ErrorMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Log.Error("panic recovered",
						zap.Any("panic", rec),
						zap.String("path", r.URL.Path),
						zap.ByteString("stack", debug.Stack()))
					WriteError(w, errors.ErrInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WriteError writes err as a JSON APIError response. Errors that are not
// APIErrors become 500s; details of server errors are logged, not returned.
func WriteError(w http.ResponseWriter, err error) {
	apiErr, ok := errors.As(err)
	if !ok {
		apiErr = errors.Wrap(err, "UNKNOWN_ERROR", "Unexpected error", errors.ErrInternal.Status)
	}
	if apiErr.Status >= 500 {
		logger.Log.Error("server error",
			zap.String("code", apiErr.Code),
			zap.String("message", apiErr.Message),
			zap.String("details", apiErr.Details))
		cp := *apiErr
		cp.Details = ""
		apiErr = &cp
	}

	WriteJSON(w, apiErr.Status, apiErr)
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warn("failed to encode response", zap.Error(err))
	}
}
