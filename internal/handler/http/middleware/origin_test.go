package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testOrigins() *Origins {
	return NewOrigins([]string{"https://lscaturchio.xyz", "https://www.lscaturchio.xyz/", "http://localhost:3000", "not a url"})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestOrigins(t *testing.T) {
	o := testOrigins()

	assert.Equal(t, []string{"https://lscaturchio.xyz", "https://www.lscaturchio.xyz", "http://localhost:3000"}, o.List())
	assert.True(t, o.IsAllowed("https://LSCATURCHIO.xyz"))
	assert.True(t, o.IsAllowed("https://www.lscaturchio.xyz/blog/post?x=1"))
	assert.False(t, o.IsAllowed("http://lscaturchio.xyz"))
	assert.False(t, o.IsAllowed("https://evil.example"))
	assert.False(t, o.IsAllowed("null"))
}

func TestCORS(t *testing.T) {
	h := CORS(DefaultCORSConfig(testOrigins()))(okHandler())

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
		req.Header.Set("Origin", "https://lscaturchio.xyz")
		req.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://lscaturchio.xyz", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type, X-Request-ID", rec.Header().Get("Access-Control-Allow-Headers"))
		assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	})

	t.Run("simple request from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", rec.Header().Get("Vary"))
	})

	t.Run("disallowed origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("same origin untouched", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Vary"))
	})
}

func TestOriginCheck(t *testing.T) {
	h := OriginCheck(testOrigins())(okHandler())

	tests := []struct {
		name     string
		method   string
		origin   string
		referer  string
		wantCode int
		wantBody string
	}{
		{"get skips check", http.MethodGet, "https://evil.example", "", http.StatusOK, ""},
		{"options skips check", http.MethodOptions, "https://evil.example", "", http.StatusOK, ""},
		{"allowed origin", http.MethodPost, "https://www.lscaturchio.xyz", "", http.StatusOK, ""},
		{"bad origin", http.MethodPost, "https://evil.example", "", http.StatusForbidden,
			`{"error":"Invalid origin","success":false}`},
		{"origin wins over referer", http.MethodDelete, "https://evil.example", "https://lscaturchio.xyz/blog", http.StatusForbidden,
			`{"error":"Invalid origin","success":false}`},
		{"allowed referer", http.MethodPost, "", "https://lscaturchio.xyz/blog/hello", http.StatusOK, ""},
		{"bad referer", http.MethodPost, "", "https://evil.example/page", http.StatusForbidden,
			`{"error":"Invalid referer","success":false}`},
		{"no headers allowed", http.MethodPost, "", "", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/reactions", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}
