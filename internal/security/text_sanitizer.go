// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は管理画面から送信される自由入力テキストからHTMLタグを除去する。
// 値はリモートAPIに保存され、公開サイトなど別の画面で表示されるため、
// 送信前にマークアップを取り除いておく。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト入力のサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// SanitizeText は全てのHTMLタグを除去したプレーンテキストを返す。
	// script, styleの中身も除去する。エンティティは元の文字に戻すため、
	// "Tom & Jerry" はそのまま "Tom & Jerry" として返る。
	// 前後の空白は除去する。同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのStrictPolicyを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText はHTMLタグを除去したプレーンテキストを返す。
func (s *textSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	stripped := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(stripped))
}
