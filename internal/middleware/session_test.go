package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/adminconsole/internal/model"
)

// --- モック定義 ---

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func validSessionFinder() *mockSessionFinder {
	return &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			if id == "valid-session-id" {
				return &model.Session{
					ID:        "valid-session-id",
					Token:     "bearer-token",
					UserID:    "user-123",
					ExpiresAt: time.Now().Add(1 * time.Hour),
				}, nil
			}
			return nil, nil
		},
	}
}

// --- テスト ---

func TestSessionMiddleware_ValidSession_InjectsSession(t *testing.T) {
	mw := NewSessionMiddleware(validSessionFinder(), "/login")

	var captured *model.Session
	var capturedUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			t.Error("expected session in context")
		}
		captured = sess
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("expected no error, got %v", err)
		}
		capturedUserID = userID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/certificates", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session-id"})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if captured == nil || captured.Token != "bearer-token" {
		t.Errorf("session = %+v, want token bearer-token", captured)
	}
	if capturedUserID != "user-123" {
		t.Errorf("userID = %q, want %q", capturedUserID, "user-123")
	}
}

func TestSessionMiddleware_Unauthenticated_RedirectsToLogin(t *testing.T) {
	tests := []struct {
		name   string
		cookie *http.Cookie
		finder *mockSessionFinder
	}{
		{name: "no cookie", finder: validSessionFinder()},
		{name: "empty cookie", cookie: &http.Cookie{Name: SessionCookieName, Value: ""}, finder: validSessionFinder()},
		{name: "unknown session", cookie: &http.Cookie{Name: SessionCookieName, Value: "expired"}, finder: validSessionFinder()},
		{
			name:   "store error",
			cookie: &http.Cookie{Name: SessionCookieName, Value: "valid-session-id"},
			finder: &mockSessionFinder{
				findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
					return nil, errors.New("redis down")
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := NewSessionMiddleware(tt.finder, "/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if called {
				t.Error("handler should not be called")
			}
			if w.Code != http.StatusSeeOther {
				t.Errorf("status = %d, want %d", w.Code, http.StatusSeeOther)
			}
			if loc := w.Header().Get("Location"); loc != "/login" {
				t.Errorf("Location = %q, want %q", loc, "/login")
			}
		})
	}
}

func TestOptionalSessionMiddleware(t *testing.T) {
	mw := NewOptionalSessionMiddleware(validSessionFinder())

	var hasSession bool
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasSession = SessionFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if hasSession {
		t.Error("expected no session without cookie")
	}

	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "valid-session-id"})
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if !hasSession {
		t.Error("expected session with valid cookie")
	}
}

func TestUserIDFromContext_NoValue_ReturnsError(t *testing.T) {
	_, err := UserIDFromContext(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestUserIDFromContext_ValidValue_ReturnsUserID(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "user-456")
	userID, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if userID != "user-456" {
		t.Errorf("userID = %q, want %q", userID, "user-456")
	}
}

func TestSessionFromContext_NoValue(t *testing.T) {
	if _, ok := SessionFromContext(context.Background()); ok {
		t.Error("expected ok=false for empty context")
	}
}
