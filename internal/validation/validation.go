// Package validation は管理画面フォームの同期バリデーションを提供する。
// ここでの検証はネットワーク呼び出しの前に行われ、失敗した送信はリモートAPIに届かない。
// サーバー側の検証の代替ではない。
package validation

import (
	"fmt"
	"mime"
	"net/http"
	"net/mail"
	"sort"
	"strings"
	"time"
)

// DateLayout はフォームの日付入力の形式（yyyy-mm-dd）。
const DateLayout = "2006-01-02"

// AllowedImageTypes は画像フィールドで受け付けるMIMEタイプ。
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Errors はフィールド名からエラーメッセージへの対応。
// 1フィールドにつき最初のエラーのみ保持する。
type Errors map[string]string

// Add はfieldにまだエラーがない場合にmsgを追加する。
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; ok {
		return
	}
	e[field] = msg
}

// Has はfieldにエラーがあるかどうかを返す。
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Empty はエラーが1件もないかどうかを返す。
func (e Errors) Empty() bool {
	return len(e) == 0
}

// Error はerrorインターフェースを実装する。フィールド名順に連結する。
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return strings.Join(parts, "; ")
}

// Required は空白のみの値を未入力として扱う。
func Required(value string) bool {
	return strings.TrimSpace(value) != ""
}

// Email はvalueが単一のメールアドレスとして妥当かどうかを返す。
// 表示名付きの形式（"Name <a@b>"）は受け付けない。
func Email(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}
	if addr.Address != value {
		return false
	}
	at := strings.LastIndex(value, "@")
	return at > 0 && strings.Contains(value[at+1:], ".")
}

// Date はvalueがDateLayout形式の実在する日付かどうかを返す。
func Date(value string) bool {
	_, err := time.Parse(DateLayout, strings.TrimSpace(value))
	return err == nil
}

// Upload はアップロードされたファイルの検証対象。
type Upload struct {
	Filename    string
	ContentType string // パートヘッダで申告されたContent-Type
	Data        []byte
}

// ImageError は画像アップロードの検証エラー。
type ImageError struct {
	Reason string
}

func (e *ImageError) Error() string {
	return e.Reason
}

// Image はアップロードが許可された画像形式で、maxBytes以下かどうかを検証する。
// 申告されたContent-Typeと内容から判定したContent-Typeの両方が許可リストに含まれ、
// かつ一致している必要がある。maxBytesが0以下の場合はサイズを検証しない。
func Image(u Upload, maxBytes int64) error {
	if len(u.Data) == 0 {
		return &ImageError{Reason: "File is empty"}
	}
	if maxBytes > 0 && int64(len(u.Data)) > maxBytes {
		return &ImageError{Reason: fmt.Sprintf("File is too large (max %s)", humanBytes(maxBytes))}
	}

	declared := normalizeMIME(u.ContentType)
	sniffed := normalizeMIME(http.DetectContentType(u.Data))

	if !allowedImage(declared) || !allowedImage(sniffed) || declared != sniffed {
		return &ImageError{Reason: "Only image files are allowed"}
	}
	return nil
}

func allowedImage(mime string) bool {
	for _, t := range AllowedImageTypes {
		if mime == t {
			return true
		}
	}
	return false
}

func normalizeMIME(v string) string {
	// パラメータ（charsetなど）を除去する
	if mediaType, _, err := mime.ParseMediaType(v); err == nil {
		v = mediaType
	} else {
		v = strings.ToLower(strings.TrimSpace(strings.Split(v, ";")[0]))
	}
	if v == "image/jpg" || v == "image/pjpeg" {
		return "image/jpeg"
	}
	return v
}

func humanBytes(n int64) string {
	const mib = 1 << 20
	const kib = 1 << 10
	switch {
	case n >= mib && n%mib == 0:
		return fmt.Sprintf("%d MB", n/mib)
	case n >= kib && n%kib == 0:
		return fmt.Sprintf("%d KB", n/kib)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

// Login はログインフォームの入力を検証する。
func Login(email, password string) Errors {
	errs := Errors{}
	switch {
	case !Required(email):
		errs.Add("email", "Email is required")
	case !Email(email):
		errs.Add("email", "Invalid email")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}
	return errs
}
