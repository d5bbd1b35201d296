package http

import (
	"mime"
	"net/http"

	"blog-api/internal/handler/http/respond"
)

// Input limits applied before routing.
const (
	MaxPathLength  = 2048
	MaxQueryLength = 4096
	// MaxBodyBytes covers the largest JSON body the API accepts (a chat
	// query of 1000 characters plus envelope).
	MaxBodyBytes = 64 << 10
)

// InputValidation rejects oversized URLs, caps request bodies and requires
// JSON bodies on POST.
func InputValidation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.URL.Path) > MaxPathLength || len(r.URL.RawQuery) > MaxQueryLength {
				respond.JSON(w, http.StatusRequestURITooLong, map[string]string{"error": "URI too long"})
				return
			}

			if r.Method == http.MethodPost && r.ContentLength != 0 {
				mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if err != nil || mediaType != "application/json" {
					respond.JSON(w, http.StatusUnsupportedMediaType, map[string]string{"error": "Content-Type must be application/json"})
					return
				}
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
