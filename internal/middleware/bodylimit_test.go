package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodyLimitMiddleware_DeclaredLengthTooLarge_Returns413(t *testing.T) {
	called := false
	handler := NewBodyLimitMiddleware(10)(okHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/admin/certificates", strings.NewReader(strings.Repeat("a", 20)))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if called {
		t.Error("handler should not be called")
	}
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want %d", w.Code, http.StatusRequestEntityTooLarge)
	}
}

func TestBodyLimitMiddleware_WithinLimit_ReadsBody(t *testing.T) {
	var got string
	handler := NewBodyLimitMiddleware(10)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		got = string(b)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("hello"))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "hello" {
		t.Errorf("body = %q, want %q", got, "hello")
	}
}

func TestBodyLimitMiddleware_ZeroDisablesLimit(t *testing.T) {
	called := false
	handler := NewBodyLimitMiddleware(0)(okHandler(&called))

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", 1024)))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Error("handler should be called when limit is disabled")
	}
}
