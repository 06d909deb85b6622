// Package auth は管理画面のログイン、セッション発行、ログアウトを提供する。
// 資格情報の検証はリモートAPIに委ね、このパッケージは得られたトークンをセッションとして保持する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/adminconsole/internal/apiclient"
	"github.com/hitoshi/adminconsole/internal/model"
	"github.com/hitoshi/adminconsole/internal/session"
)

// Login結果のメトリクスラベル。
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid_credentials"
	OutcomeUnavailable = "unavailable"
	OutcomeStoreError  = "store_error"
)

// Authenticator はリモートAPIのログインエンドポイントを呼び出す。
// apiclient.Clientが実装する。
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*apiclient.LoginResult, error)
}

// Recorder はログイン結果のメトリクスを記録する。
type Recorder interface {
	RecordLogin(outcome string)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	authenticator Authenticator
	sessionStore  session.Store
	recorder      Recorder
	config        ServiceConfig
	now           func() time.Time
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(
	authenticator Authenticator,
	sessionStore session.Store,
	recorder Recorder,
	config ServiceConfig,
) *Service {
	return &Service{
		authenticator: authenticator,
		sessionStore:  sessionStore,
		recorder:      recorder,
		config:        config,
		now:           time.Now,
	}
}

// Login はリモートAPIで資格情報を検証し、成功した場合にセッションを発行する。
// 資格情報の誤りは*model.APIError（INVALID_CREDENTIALS）、
// APIに到達できない場合は*model.APIError（AUTH_UNAVAILABLE）を返す。
// いずれの失敗でもセッションは保存されない。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	result, err := s.authenticator.Login(ctx, email, password)
	if err != nil {
		if apiclient.IsStatus(err) {
			s.record(OutcomeInvalid)
			slog.InfoContext(ctx, "login rejected",
				slog.String("email", email),
				slog.String("error", err.Error()),
			)
			return nil, model.NewInvalidCredentialsError()
		}
		s.record(OutcomeUnavailable)
		slog.ErrorContext(ctx, "login request failed",
			slog.String("email", email),
			slog.String("kind", apiclient.KindOf(err).String()),
			slog.String("error", err.Error()),
		)
		return nil, model.NewAuthUnavailableError()
	}

	sess, err := s.createSession(ctx, email, result)
	if err != nil {
		s.record(OutcomeStoreError)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.record(OutcomeSuccess)
	slog.InfoContext(ctx, "user logged in",
		slog.String("user_id", sess.UserID),
		slog.String("user_type", sess.UserType),
	)
	return sess, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionStore.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.InfoContext(ctx, "user logged out")
	return nil
}

// FindByID は有効なセッションを返す。存在しないか期限切れの場合はnilを返す。
// セッションミドルウェアのSessionFinderとして使う。
func (s *Service) FindByID(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}
	sess, err := s.sessionStore.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return sess, nil
}

// createSession はセッションを作成し永続化する。
// 有効期限はSessionMaxAgeと、トークンがJWTの場合はそのexpの早い方とする。
func (s *Service) createSession(ctx context.Context, email string, result *apiclient.LoginResult) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := s.now()
	expiresAt := now.Add(time.Duration(s.config.SessionMaxAge) * time.Second)
	if exp, ok := tokenExpiry(result.Token); ok && exp.Before(expiresAt) {
		expiresAt = exp
	}
	if !expiresAt.After(now) {
		return nil, fmt.Errorf("token already expired at %s", expiresAt.Format(time.RFC3339))
	}

	sess := &model.Session{
		ID:        sessionID,
		Token:     result.Token,
		UserID:    result.User.ID,
		UserType:  result.User.Type,
		Email:     email,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}

	if err := s.sessionStore.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return sess, nil
}

func (s *Service) record(outcome string) {
	if s.recorder != nil {
		s.recorder.RecordLogin(outcome)
	}
}

// tokenExpiry はトークンがJWTであればexpクレームを返す。
// 署名はリモートAPIが検証するため、ここでは検証しない。
func tokenExpiry(token string) (time.Time, bool) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
