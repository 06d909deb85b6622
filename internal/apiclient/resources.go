package apiclient

import (
	"context"
	"net/http"
	"net/url"
)

// List はコレクション全体を取得する。ページングパラメータは送らない。
func (c *Client) List(ctx context.Context, creds Credentials, op, path string) (*ListResponse, error) {
	var list ListResponse
	_, err := c.Do(ctx, creds, Request{
		Op:     op,
		Method: http.MethodGet,
		Path:   path,
		Decode: func(resp *Response) error { return resp.DecodeJSON(&list) },
	})
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Create はコレクションに新しいレコードを作成する。
func (c *Client) Create(ctx context.Context, creds Credentials, op, path string, body Body) error {
	_, err := c.Do(ctx, creds, Request{Op: op, Method: http.MethodPost, Path: path, Body: body})
	return err
}

// Update は既存レコードを更新する。
// multipartはPUTで解釈されないAPIがあるため、POSTに_method=PUTを付けて送る。
func (c *Client) Update(ctx context.Context, creds Credentials, op, path, id string, body MultipartBody) error {
	fields := url.Values{}
	for k, v := range body.Fields {
		fields[k] = append([]string(nil), v...)
	}
	fields.Set("_method", http.MethodPut)
	body.Fields = fields

	_, err := c.Do(ctx, creds, Request{
		Op:     op,
		Method: http.MethodPost,
		Path:   path + "/" + url.PathEscape(id),
		Body:   body,
	})
	return err
}

// Delete は既存レコードを削除する。
func (c *Client) Delete(ctx context.Context, creds Credentials, op, path, id string) error {
	_, err := c.Do(ctx, creds, Request{
		Op:     op,
		Method: http.MethodDelete,
		Path:   path + "/" + url.PathEscape(id),
	})
	return err
}
