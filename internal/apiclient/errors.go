package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind はリモートAPI呼び出しの失敗種別を表す。
// 呼び出し元はこの種別でユーザー向けメッセージを出し分ける。
type Kind int

const (
	// KindTransport はネットワーク障害やコンテキストのキャンセルでレスポンスを得られなかったことを示す。
	KindTransport Kind = iota + 1
	// KindStatus はAPIが2xx以外のステータスを返したことを示す。
	KindStatus
	// KindDecode は2xxレスポンスのボディを解釈できなかったことを示す。
	KindDecode
	// KindUnauthenticated はBearerトークンがなく、リクエストを送信しなかったことを示す。
	KindUnauthenticated
)

// String はメトリクスラベルやログで使う種別名を返す。
func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Error はリモートAPI呼び出しの失敗を表す。
type Error struct {
	Kind       Kind
	Op         string
	StatusCode int    // KindStatusの場合のみ
	Message    string // APIがJSONで返したmessage（あれば）
	Err        error
}

// Error はerrorインターフェースを実装する。
func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		if e.Message != "" {
			return fmt.Sprintf("%s: api returned status %d: %s", e.Op, e.StatusCode, e.Message)
		}
		return fmt.Sprintf("%s: api returned status %d", e.Op, e.StatusCode)
	case KindUnauthenticated:
		return fmt.Sprintf("%s: no bearer token", e.Op)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
}

// Unwrap は元のエラーを返す。
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf はerrの失敗種別を返す。*Errorでない場合は0を返す。
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return 0
}

// IsTransport はerrがネットワーク障害によるものかどうかを返す。
func IsTransport(err error) bool {
	return KindOf(err) == KindTransport
}

// IsStatus はerrがAPIの非2xx応答によるものかどうかを返す。
func IsStatus(err error) bool {
	return KindOf(err) == KindStatus
}

// IsUnauthorized はerrがトークン欠落、または401/403応答によるものかどうかを返す。
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.Kind == KindUnauthenticated {
		return true
	}
	return apiErr.Kind == KindStatus &&
		(apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden)
}
