// Package model はドメインモデルを定義する。
package model

import "time"

// User はログインAPIが返す最小限のユーザー情報を表す。
type User struct {
	ID   string
	Type string
}

// Session は管理画面のログインセッションを表す。
// Tokenはリモート API の Bearer トークンで、ブラウザには渡さない。
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
	UserType  string    `json:"user_type"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BearerToken はapiclient.Credentialsを満たすためにトークンを返す。
func (s *Session) BearerToken() string {
	if s == nil {
		return ""
	}
	return s.Token
}

// Expired はnow時点でセッションが期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
