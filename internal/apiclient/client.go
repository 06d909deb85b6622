// Package apiclient はリモートREST APIの認証付きクライアントを提供する。
// すべての呼び出しは明示的に渡されたセッションからBearerトークンを付与し、
// 失敗は種別（通信障害・非2xx・デコード失敗）を保ったまま呼び出し元へ返す。
// 再試行やトークンの更新は行わない。
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/hitoshi/adminconsole/internal/model"
)

const (
	// maxResponseSize はレスポンスボディの最大読み取りサイズ。
	maxResponseSize = 10 << 20
	// userAgent はリモートAPIに送るUser-Agent。
	userAgent = "AdminConsole/1.0"
)

// OutcomeSuccess は成功した呼び出しのメトリクスラベル。
// 失敗時はKind.String()をラベルとする。
const OutcomeSuccess = "success"

// Credentials はリクエストに付与するBearerトークンの供給元。
// グローバルな状態を参照せず、呼び出しごとに明示的に渡す。
type Credentials interface {
	BearerToken() string
}

// Recorder はAPI呼び出しのメトリクスを記録する。
type Recorder interface {
	RecordAPICall(op, outcome string, duration time.Duration)
}

// ClientConfig はClientの設定。
type ClientConfig struct {
	BaseURL   string
	LoginPath string
	Recorder  Recorder
}

// Client はリモートREST APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	loginPath  string
	recorder   Recorder
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger, cfg ClientConfig) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = "/api/users/login"
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		loginPath:  loginPath,
		recorder:   cfg.Recorder,
	}
}

// Request はリモートAPIへの1回の呼び出しを表す。
type Request struct {
	Op     string // ログ・メトリクス用の操作名（例: certificates.list）
	Method string
	Path   string
	Body   Body
	// Decode は2xxレスポンスを解釈する。エラーはKindDecodeとして返り、メトリクスにも失敗として記録される。
	Decode func(resp *Response) error
}

// Response は2xxレスポンスを表す。
type Response struct {
	StatusCode int
	Body       []byte
}

// DecodeJSON はレスポンスボディをvにデコードする。
func (r *Response) DecodeJSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Do は認証付きでリクエストを送信する。
// トークンがない場合は送信せずにKindUnauthenticatedを返す。
func (c *Client) Do(ctx context.Context, creds Credentials, req Request) (*Response, error) {
	token := ""
	if creds != nil {
		token = creds.BearerToken()
	}
	if token == "" {
		return nil, &Error{Kind: KindUnauthenticated, Op: req.Op}
	}
	return c.send(ctx, token, req)
}

// send はリクエストを組み立てて送信し、2xx以外とデコード失敗を*Errorに変換する。
// メトリクスはデコードまで終えた結果で記録する。
func (c *Client) send(ctx context.Context, token string, req Request) (*Response, error) {
	start := time.Now()

	resp, err := c.roundTrip(ctx, token, req)
	if err == nil && req.Decode != nil {
		if decodeErr := req.Decode(resp); decodeErr != nil {
			resp, err = nil, &Error{Kind: KindDecode, Op: req.Op, Err: decodeErr}
		}
	}

	outcome := OutcomeSuccess
	if err != nil {
		outcome = KindOf(err).String()
	}
	if c.recorder != nil {
		c.recorder.RecordAPICall(req.Op, outcome, time.Since(start))
	}
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, token string, req Request) (*Response, error) {
	var (
		body        io.Reader
		contentType string
	)
	if req.Body != nil {
		var err error
		body, contentType, err = req.Body.Encode()
		if err != nil {
			return nil, &Error{Kind: KindTransport, Op: req.Op, Err: err}
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: req.Op, Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.ErrorContext(ctx, "api request failed",
			slog.String("op", req.Op),
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.String("error", err.Error()),
		)
		return nil, &Error{Kind: KindTransport, Op: req.Op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &Error{Kind: KindTransport, Op: req.Op, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := extractMessage(data)
		c.logger.WarnContext(ctx, "api returned error status",
			slog.String("op", req.Op),
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("message", msg),
		)
		return nil, &Error{Kind: KindStatus, Op: req.Op, StatusCode: resp.StatusCode, Message: msg}
	}

	c.logger.DebugContext(ctx, "api request completed",
		slog.String("op", req.Op),
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.Int("http_status", resp.StatusCode),
	)

	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

// extractMessage はエラーレスポンスがJSONの場合にmessageフィールドを取り出す。
func extractMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	return body.Message
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ListResponse はコレクション取得APIのレスポンス形式。
type ListResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Records []model.Record `json:"records"`
}
