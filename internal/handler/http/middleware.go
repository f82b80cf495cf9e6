package http

import (
	"net/http"
	"strings"

	"github.com/snapcook/backend/pkg/httputil"
)

// ContentTypeJSON rejects requests carrying a body whose Content-Type is not
// application/json. Requests without a body (GET, DELETE, empty POST) pass
// through untouched.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "" && r.ContentLength != 0 {
			if mediaType := strings.TrimSpace(strings.Split(ct, ";")[0]); mediaType != "application/json" {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "Content-Type must be application/json",
					},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
