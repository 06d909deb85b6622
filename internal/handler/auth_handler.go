// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/adminconsole/internal/middleware"
	"github.com/hitoshi/adminconsole/internal/model"
	"github.com/hitoshi/adminconsole/internal/validation"
)

const (
	loginPath     = "/login"
	dashboardPath = "/admin"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// ViewDropper はセッションに紐づく画面状態を破棄する。
type ViewDropper interface {
	DropSession(sessionID string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// loginForm はログイン画面のテンプレートデータ。
type loginForm struct {
	Email  string
	Errors validation.Errors
}

// AuthHandler はログイン画面とセッション管理のHTTPハンドラー。
type AuthHandler struct {
	service  AuthServiceInterface
	views    ViewDropper
	renderer *Renderer
	config   AuthHandlerConfig
	now      func() time.Time
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, views ViewDropper, renderer *Renderer, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		views:    views,
		renderer: renderer,
		config:   config,
		now:      time.Now,
	}
}

// LoginPage はログインフォームを表示する。認証済みの場合はダッシュボードへ移動する。
// GET /login
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, loginForm{}, nil)
}

// Login は資格情報を検証し、成功時にセッションCookieを設定する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	form := loginForm{Email: email}

	// 1. 入力検証（ネットワーク呼び出しの前）
	if errs := validation.Login(email, password); !errs.Empty() {
		form.Errors = errs
		h.renderLogin(w, r, http.StatusUnprocessableEntity, form, nil)
		return
	}

	// 2. 認証
	session, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) {
			slog.ErrorContext(r.Context(), "login failed", slog.String("error", err.Error()))
			h.renderLogin(w, r, http.StatusInternalServerError, form, &Flash{Kind: FlashError, Message: msgOperationFailed})
			return
		}

		status := http.StatusUnauthorized
		if apiErr.Code == model.ErrCodeAuthUnavailable {
			status = http.StatusBadGateway
		}
		h.renderLogin(w, r, status, form, &Flash{Kind: FlashError, Message: apiErr.Message})
		return
	}

	// 3. セッションCookieを設定（HTTP Only）
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.cookieMaxAge(session),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	setFlash(w, h.config.CookieSecure, FlashSuccess, msgLoginSuccess)
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
}

// Logout はセッションを破棄してログイン画面へ戻る。
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	setFlash(w, h.config.CookieSecure, FlashSuccess, msgLoggedOut)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// Expire はリモートAPIがトークンを拒否した場合にセッションを破棄してログイン画面へ戻す。
func (h *AuthHandler) Expire(w http.ResponseWriter, r *http.Request) {
	h.endSession(w, r)
	setFlash(w, h.config.CookieSecure, FlashError, msgSessionExpired)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// endSession はセッションストアと画面状態からセッションを削除し、Cookieをクリアする。
func (h *AuthHandler) endSession(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err == nil && cookie.Value != "" {
		if logoutErr := h.service.Logout(r.Context(), cookie.Value); logoutErr != nil {
			slog.ErrorContext(r.Context(), "failed to logout", slog.String("error", logoutErr.Error()))
			// ログアウト失敗してもCookieはクリアする
		}
		if h.views != nil {
			h.views.DropSession(cookie.Value)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// cookieMaxAge はセッションの残り時間と設定値の短い方を秒で返す。
func (h *AuthHandler) cookieMaxAge(session *model.Session) int {
	maxAge := h.config.SessionMaxAge
	if session.ExpiresAt.IsZero() {
		return maxAge
	}
	remaining := int(session.ExpiresAt.Sub(h.now()).Seconds())
	if remaining < 1 {
		remaining = 1
	}
	if maxAge <= 0 || remaining < maxAge {
		return remaining
	}
	return maxAge
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, form loginForm, flash *Flash) {
	h.renderer.Render(w, r, status, pageLogin, &PageData{
		Title:   "Login",
		Flash:   flash,
		Content: form,
	})
}
