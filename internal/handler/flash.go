package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
)

const flashCookieName = "flash"

// トースト通知の種類。
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// 画面に表示するトーストメッセージ。
const (
	msgOperationSuccess = "Operation successful!"
	msgOperationFailed  = "Something went wrong."
	msgLoginSuccess     = "Login successful"
	msgSessionExpired   = "Your session has expired. Please log in again."
	msgLoggedOut        = "You have been logged out."
)

// Flash はリダイレクト後に1回だけ表示するトースト通知。
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// setFlash は次のリクエストで表示するトーストをCookieに保存する。
func setFlash(w http.ResponseWriter, secure bool, kind, message string) {
	b, err := json.Marshal(Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash はCookieのトーストを読み取り、Cookieを削除する。
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Message == "" {
		return nil
	}
	if f.Kind != FlashSuccess {
		f.Kind = FlashError
	}
	return &f
}
