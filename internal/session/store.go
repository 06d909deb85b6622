// Package session は管理画面のログインセッションの保存先を提供する。
// セッションにはリモートAPIのBearerトークンを含むため、ブラウザにはセッションIDのみを渡す。
package session

import (
	"context"

	"github.com/hitoshi/adminconsole/internal/model"
)

// Store はセッションの永続化インターフェース。
type Store interface {
	// Create はセッションを保存する。ExpiresAtを過ぎたセッションは自動的に破棄される。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。存在しないか期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。存在しない場合もエラーにしない。
	DeleteByID(ctx context.Context, id string) error
}
