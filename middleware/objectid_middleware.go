package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"travel-server/utils/errors"
	"travel-server/validation"
)

// ValidateObjectIDs rejects requests whose named path variables are not
// document ids. Variables absent from the matched route are ignored.
func ValidateObjectIDs(names ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			vars := mux.Vars(r)
			for _, name := range names {
				if v, ok := vars[name]; ok && !validation.IsObjectID(v) {
					WriteError(w, errors.ErrInvalidObjectID)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
