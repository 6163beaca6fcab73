package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name       string
		apiKey     string
		path       string
		header     string
		value      string
		wantStatus int
	}{
		{
			name:       "disabled when no key configured",
			apiKey:     "",
			path:       "/api/markets",
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing token",
			apiKey:     "secret",
			path:       "/api/markets",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid bearer token",
			apiKey:     "secret",
			path:       "/api/markets",
			header:     "Authorization",
			value:      "Bearer secret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "valid api key header",
			apiKey:     "secret",
			path:       "/api/markets",
			header:     "X-API-Key",
			value:      "secret",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wrong token",
			apiKey:     "secret",
			path:       "/api/markets",
			header:     "Authorization",
			value:      "Bearer nope",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "health exempt from auth",
			apiKey:     "secret",
			path:       "/api/health",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Auth(tt.apiKey)(okHandler())
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name      string
		allowed   []string
		origin    string
		wantAllow string
	}{
		{
			name:      "empty list allows any origin",
			allowed:   nil,
			origin:    "https://a.example",
			wantAllow: "https://a.example",
		},
		{
			name:      "listed origin allowed case-insensitively",
			allowed:   []string{"https://A.example"},
			origin:    "https://a.example",
			wantAllow: "https://a.example",
		},
		{
			name:      "wildcard entry allows any origin",
			allowed:   []string{"*"},
			origin:    "https://b.example",
			wantAllow: "https://b.example",
		},
		{
			name:      "unlisted origin gets no headers",
			allowed:   []string{"https://a.example"},
			origin:    "https://evil.example",
			wantAllow: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CORS(tt.allowed)(okHandler())
			req := httptest.NewRequest(http.MethodGet, "/api/markets", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://a.example"})(okHandler())
	req := httptest.NewRequest(http.MethodOptions, "/api/markets", nil)
	req.Header.Set("Origin", "https://a.example")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("preflight missing Allow-Methods header")
	}
}
