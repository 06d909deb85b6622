package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/hitoshi/adminconsole/internal/model"
)

// LoginResult はログインAPIの成功レスポンス。
type LoginResult struct {
	Token string
	User  model.User
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string       `json:"token"`
	Record model.Record `json:"record"`
}

// Login は認証エンドポイントに資格情報を送信する。
// このリクエストにはBearerトークンを付与しない。
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	const op = "users.login"

	var body loginResponse
	_, err := c.send(ctx, "", Request{
		Op:     op,
		Method: http.MethodPost,
		Path:   c.loginPath,
		Body:   JSONBody{Value: loginRequest{Email: email, Password: password}},
		Decode: func(resp *Response) error {
			if err := resp.DecodeJSON(&body); err != nil {
				return err
			}
			if body.Token == "" {
				return errors.New("login response has no token")
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token: body.Token,
		User: model.User{
			ID:   body.Record.ID,
			Type: body.Record.Get("type"),
		},
	}, nil
}
