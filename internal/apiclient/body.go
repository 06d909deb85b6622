package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"
)

// Body はリクエストボディのエンコード方法を表す。
type Body interface {
	// Encode はボディとContent-Typeを返す。
	Encode() (io.Reader, string, error)
}

// JSONBody はJSONエンコードされるリクエストボディ。
type JSONBody struct {
	Value any
}

// Encode はValueをJSONにエンコードする。
func (b JSONBody) Encode() (io.Reader, string, error) {
	data, err := json.Marshal(b.Value)
	if err != nil {
		return nil, "", fmt.Errorf("encode json body: %w", err)
	}
	return bytes.NewReader(data), "application/json", nil
}

// File はmultipartで送信するファイル。
type File struct {
	Field       string
	Filename    string
	ContentType string
	Data        []byte
}

// MultipartBody はmultipart/form-dataのリクエストボディ。
// 画像アップロードを伴う作成・更新で使う。
type MultipartBody struct {
	Fields url.Values
	Files  []File
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// Encode はフィールドとファイルをmultipart/form-dataにエンコードする。
// フィールドはキー順に書き出す。
func (b MultipartBody) Encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, key := range sortedKeys(b.Fields) {
		for _, v := range b.Fields[key] {
			if err := mw.WriteField(key, v); err != nil {
				return nil, "", fmt.Errorf("write field %s: %w", key, err)
			}
		}
	}

	for _, f := range b.Files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Filename)))
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("write part %s: %w", f.Field, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
