package requestid

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sdnguard/pkg/requestcontext"
)

func TestMiddleware(t *testing.T) {
	var seen string
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	t.Run("generates an id when none is supplied", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sdn", nil))

		_, err := uuid.Parse(seen)
		require.NoError(t, err)
		assert.Equal(t, seen, rr.Header().Get(Header))
	})

	t.Run("reuses a caller supplied id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sdn", nil)
		req.Header.Set(Header, "batch-42")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, "batch-42", seen)
		assert.Equal(t, "batch-42", rr.Header().Get(Header))
	})

	t.Run("replaces oversized or non-printable ids", func(t *testing.T) {
		for _, bad := range []string{strings.Repeat("a", maxLength+1), "two words"} {
			req := httptest.NewRequest(http.MethodGet, "/sdn", nil)
			req.Header.Set(Header, bad)
			h.ServeHTTP(httptest.NewRecorder(), req)

			assert.NotEqual(t, bad, seen)
		}
	})
}
