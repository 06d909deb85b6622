package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/hitoshi/adminconsole/internal/middleware"
	"github.com/hitoshi/adminconsole/internal/model"
	"github.com/hitoshi/adminconsole/internal/resource"
	"github.com/hitoshi/adminconsole/internal/validation"
)

// --- モック定義 ---

type mockAuthService struct {
	loginFn  func(ctx context.Context, email, password string) (*model.Session, error)
	logoutFn func(ctx context.Context, sessionID string) error

	loginCalls int
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*model.Session, error) {
	m.loginCalls++
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, nil
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

type mockViewDropper struct {
	dropped []string
}

func (m *mockViewDropper) DropSession(sessionID string) {
	m.dropped = append(m.dropped, sessionID)
}

type mockResourceService struct {
	fetchFn  func(ctx context.Context, sess *model.Session, view *resource.View) ([]model.Record, error)
	loadFn   func(ctx context.Context, sess *model.Session, view *resource.View) ([]model.Record, error)
	submitFn func(ctx context.Context, sess *model.Session, view *resource.View, kind resource.ModalKind, recordID string, sub resource.Submission) (validation.Errors, error)

	fetchCalls int
	loadCalls  int
}

func (m *mockResourceService) Fetch(ctx context.Context, sess *model.Session, view *resource.View) ([]model.Record, error) {
	m.fetchCalls++
	if m.fetchFn != nil {
		return m.fetchFn(ctx, sess, view)
	}
	return nil, nil
}

func (m *mockResourceService) Load(ctx context.Context, sess *model.Session, view *resource.View) ([]model.Record, error) {
	m.loadCalls++
	if m.loadFn != nil {
		return m.loadFn(ctx, sess, view)
	}
	return nil, nil
}

func (m *mockResourceService) Submit(ctx context.Context, sess *model.Session, view *resource.View, kind resource.ModalKind, recordID string, sub resource.Submission) (validation.Errors, error) {
	if m.submitFn != nil {
		return m.submitFn(ctx, sess, view, kind, recordID, sub)
	}
	return nil, nil
}

type mockExpirer struct {
	calls int
}

func (m *mockExpirer) Expire(w http.ResponseWriter, r *http.Request) {
	m.calls++
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// --- ヘルパー ---

var testPNG = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	rd, err := NewRenderer(resource.DefaultRegistry().All())
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return rd
}

func testSession() *model.Session {
	return &model.Session{
		ID:        "sess-1",
		Token:     "token-1",
		UserID:    "7",
		UserType:  "admin",
		Email:     "admin@example.com",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func withSession(r *http.Request, sess *model.Session) *http.Request {
	return r.WithContext(middleware.ContextWithSession(r.Context(), sess))
}

// commitRecords はモックサービスから写しを更新する。
func commitRecords(view *resource.View, records []model.Record) {
	view.Mirror.Commit(view.Mirror.Begin(), records)
}

func certificate(id, name, date, image string) model.Record {
	return model.Record{
		ID:     id,
		UserID: "7",
		Values: map[string]string{"name": name, "date": date, "image": image},
	}
}

type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

// multipartBody はブラウザと同様にパートのContent-Typeを設定したmultipartボディを組み立てる。
func multipartBody(t *testing.T, fields map[string]string, files ...filePart) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.filename+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		part.Write(f.data)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
