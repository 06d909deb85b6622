// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, resource, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeAuthUnavailable     = "AUTH_UNAVAILABLE"
	ErrCodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	ErrCodeRecordNotFound      = "RECORD_NOT_FOUND"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
	ErrCodeSubmitInProgress    = "SUBMIT_IN_PROGRESS"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeUpstreamFailed      = "UPSTREAM_FAILED"
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeCSRF                = "CSRF_TOKEN_INVALID"
	ErrCodeRequestTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited         = "RATE_LIMIT_EXCEEDED"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication is required.",
		Category: "auth",
		Action:   "Please log in.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレスとパスワードのどちらが誤っているかは区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password",
		Category: "auth",
		Action:   "Check your email and password and try again.",
	}
}

// NewAuthUnavailableError は認証APIに到達できない場合のエラーを生成する。
func NewAuthUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthUnavailable,
		Message:  "Unable to reach the authentication service. Please try again.",
		Category: "system",
		Action:   "Wait a moment and try again.",
	}
}

// NewResourceNotFoundError は未登録のリソース種別が指定された場合のエラーを生成する。
func NewResourceNotFoundError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeResourceNotFound,
		Message:  fmt.Sprintf("Unknown resource: %s", name),
		Category: "resource",
		Action:   "Choose a screen from the menu.",
	}
}

// NewRecordNotFoundError は一覧に存在しないレコードが指定された場合のエラーを生成する。
func NewRecordNotFoundError(id string) *APIError {
	return &APIError{
		Code:     ErrCodeRecordNotFound,
		Message:  fmt.Sprintf("Record not found: %s", id),
		Category: "resource",
		Action:   "Reload the list and try again.",
	}
}

// NewSubmitInProgressError は二重送信エラーを生成する。
func NewSubmitInProgressError() *APIError {
	return &APIError{
		Code:     ErrCodeSubmitInProgress,
		Message:  "A submission is already in progress.",
		Category: "validation",
		Action:   "Wait for the current submission to finish.",
	}
}

// NewUpstreamUnavailableError はリモートAPIに到達できない場合のエラーを生成する。
func NewUpstreamUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  "Could not reach the server. Please try again.",
		Category: "system",
		Action:   "Check your connection and try again.",
	}
}

// NewUpstreamFailedError はリモートAPIが失敗を返した場合のエラーを生成する。
func NewUpstreamFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Message:  "Something went wrong.",
		Category: "resource",
		Action:   "Try again. If the problem persists, contact an administrator.",
	}
}

// NewBadRequestError はリクエストを解釈できない場合のエラーを生成する。
func NewBadRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeBadRequest,
		Message:  "The request could not be processed.",
		Category: "validation",
		Action:   "Reload the page and try again.",
	}
}

// NewCSRFError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRF,
		Message:  "Your session form has expired.",
		Category: "auth",
		Action:   "Reload the page and try again.",
	}
}

// NewRequestTooLargeError はリクエストボディが上限を超えた場合のエラーを生成する。
func NewRequestTooLargeError(limit int64) *APIError {
	return &APIError{
		Code:     ErrCodeRequestTooLarge,
		Message:  fmt.Sprintf("The request is too large (max %d bytes).", limit),
		Category: "validation",
		Action:   "Choose a smaller file and try again.",
	}
}

// NewRateLimitError はレート制限超過エラーを生成する。
func NewRateLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Please wait and retry after the specified time.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Please wait a moment and try again.",
	}
}
