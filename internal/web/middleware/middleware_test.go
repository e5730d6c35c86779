package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_AllowsLocalhost(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/recognize_face", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	recorder := httptest.NewRecorder()

	CORS()(okHandler()).ServeHTTP(recorder, req)

	if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q, want localhost origin", got)
	}
}

func TestCORS_WhitelistFromEnv(t *testing.T) {
	t.Setenv("WEB_ALLOWED_ORIGINS", "https://faces.example.com, https://other.example.com")

	tests := []struct {
		origin string
		want   string
	}{
		{"https://faces.example.com", "https://faces.example.com"},
		{"https://other.example.com", "https://other.example.com"},
		{"https://evil.example.com", ""},
		{"", ""},
	}

	handler := CORS()(okHandler())
	for _, tc := range tests {
		t.Run(tc.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/labels", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			if got := recorder.Header().Get("Access-Control-Allow-Origin"); got != tc.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	req := httptest.NewRequest(http.MethodOptions, "/recognize_face", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	recorder := httptest.NewRecorder()

	CORS()(next).ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
	if called {
		t.Error("preflight request reached the handler")
	}
	if got := recorder.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Errorf("Access-Control-Allow-Methods = %q", got)
	}
}

func TestIsLocalhostOrigin(t *testing.T) {
	tests := map[string]bool{
		"http://localhost":       true,
		"http://localhost:8080":  true,
		"https://localhost:8443": true,
		"http://127.0.0.1:8080":  false,
		"https://example.com":    false,
	}
	for origin, want := range tests {
		if got := isLocalhostOrigin(origin); got != want {
			t.Errorf("isLocalhostOrigin(%q) = %v, want %v", origin, got, want)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	recorder := httptest.NewRecorder()
	SecurityHeaders()(okHandler()).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := recorder.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := recorder.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestRecoverer_WritesJSON(t *testing.T) {
	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("model exploded")
	})
	recorder := httptest.NewRecorder()

	Recoverer(panicking).ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, "/recognize_face", nil))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, recorder.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if body["error"] != "model exploded" {
		t.Errorf("expected error 'model exploded', got %q", body["error"])
	}
}

func TestRecoverer_PassesThrough(t *testing.T) {
	recorder := httptest.NewRecorder()
	Recoverer(okHandler()).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	if recorder.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, recorder.Code)
	}
}
