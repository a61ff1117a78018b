// Package requestid propagates a per-request correlation ID.
package requestid

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"sdnguard/pkg/requestcontext"
)

// Header is the header used to read and echo the request ID.
const Header = "X-Request-ID"

const maxLength = 128

// Middleware reuses a caller supplied X-Request-ID (when short and printable) or
// generates a new UUID, stores it in the context and echoes it on the response.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(Header))
		if !acceptable(id) {
			id = uuid.NewString()
		}
		w.Header().Set(Header, id)
		ctx := requestcontext.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func acceptable(id string) bool {
	if id == "" || len(id) > maxLength {
		return false
	}
	for _, c := range id {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
