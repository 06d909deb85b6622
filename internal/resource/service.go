package resource

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	"github.com/hitoshi/adminconsole/internal/apiclient"
	"github.com/hitoshi/adminconsole/internal/model"
	"github.com/hitoshi/adminconsole/internal/validation"
)

// Client はリソース画面が使うリモートAPI呼び出し。apiclient.Clientが実装する。
type Client interface {
	List(ctx context.Context, creds apiclient.Credentials, op, path string) (*apiclient.ListResponse, error)
	Create(ctx context.Context, creds apiclient.Credentials, op, path string, body apiclient.Body) error
	Update(ctx context.Context, creds apiclient.Credentials, op, path, id string, body apiclient.MultipartBody) error
	Delete(ctx context.Context, creds apiclient.Credentials, op, path, id string) error
}

// Sanitizer は自由入力テキストのサニタイズを行う。security.TextSanitizerが実装する。
type Sanitizer interface {
	SanitizeText(raw string) string
}

// Recorder は検証失敗のメトリクスを記録する。
type Recorder interface {
	RecordValidationFailure(resource string)
}

// ServiceConfig はServiceの設定。
type ServiceConfig struct {
	MaxUploadBytes int64
}

// Service はリソース画面の一覧取得と変更送信を行う。
type Service struct {
	client    Client
	sanitizer Sanitizer
	recorder  Recorder
	config    ServiceConfig
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(client Client, sanitizer Sanitizer, recorder Recorder, config ServiceConfig) *Service {
	return &Service{
		client:    client,
		sanitizer: sanitizer,
		recorder:  recorder,
		config:    config,
	}
}

// Fetch はコレクション全体を取得し、Viewの写しを置き換える。
// ページネーションのパラメータは送らない。
// 取得中に別の取得開始・無効化・切り離しがあった場合、結果は写しに反映されない。
func (s *Service) Fetch(ctx context.Context, sess *model.Session, view *View) ([]model.Record, error) {
	def := view.Resource
	ticket := view.Mirror.Begin()

	list, err := s.client.List(ctx, sess, def.Op("list"), def.APIPath)
	if err != nil {
		return nil, s.classify(ctx, def.Op("list"), err)
	}

	if !view.Mirror.Commit(ticket, list.Records) {
		slog.DebugContext(ctx, "discarded stale list response",
			slog.String("resource", def.Name),
		)
	}
	return list.Records, nil
}

// Load は有効な写しがあればそれを返し、なければFetchする。
func (s *Service) Load(ctx context.Context, sess *model.Session, view *View) ([]model.Record, error) {
	if records, ok := view.Mirror.Snapshot(); ok {
		return records, nil
	}
	return s.Fetch(ctx, sess, view)
}

// Submit はモーダルの送信を処理する。
// 検証エラーがある場合はリモートAPIを呼ばずにエラーを返し、モーダルはOpenのまま。
// APIが失敗した場合は*model.APIErrorを返し、モーダルはOpenに戻り写しは変更しない。
// 成功した場合はモーダルを閉じ、OnSuccessにより写しを無効にする。
// 同じモーダルが送信中の場合はErrSubmitInProgressを返す。
func (s *Service) Submit(ctx context.Context, sess *model.Session, view *View, kind ModalKind, recordID string, sub Submission) (validation.Errors, error) {
	def := view.Resource
	modal := view.Modal

	if sess == nil {
		return nil, model.NewUnauthorizedError()
	}
	if err := modal.Open(); err != nil {
		return nil, err
	}

	// タグだけの入力が必須チェックを通らないよう、検証の前にサニタイズする
	sub = s.sanitize(def, sub)
	if errs := def.Validate(kind, sub, s.config.MaxUploadBytes); !errs.Empty() {
		if s.recorder != nil {
			s.recorder.RecordValidationFailure(def.Name)
		}
		return errs, nil
	}

	if err := modal.BeginSubmit(); err != nil {
		return nil, err
	}

	var err error
	switch kind {
	case ModalCreate:
		err = s.client.Create(ctx, sess, def.Op("create"), def.APIPath, s.buildBody(def, sess, sub))
	case ModalEdit:
		err = s.client.Update(ctx, sess, def.Op("update"), def.APIPath, recordID, s.buildBody(def, sess, sub))
	case ModalDelete:
		err = s.client.Delete(ctx, sess, def.Op("delete"), def.APIPath, recordID)
	}

	if err != nil {
		apiErr := s.classify(ctx, def.Op(string(kind)), err)
		modal.Fail()
		return nil, apiErr
	}

	modal.Succeed()
	slog.InfoContext(ctx, "resource mutated",
		slog.String("resource", def.Name),
		slog.String("action", string(kind)),
		slog.String("record_id", recordID),
		slog.String("user_id", sess.UserID),
	)
	return nil, nil
}

// sanitize はテキストフィールドの値からマークアップを除去したSubmissionを返す。
// 元のSubmissionは変更しない。
func (s *Service) sanitize(def *Definition, sub Submission) Submission {
	if s.sanitizer == nil {
		return sub
	}
	values := make(map[string]string, len(sub.Values))
	for k, v := range sub.Values {
		values[k] = v
	}
	for _, f := range def.Fields {
		if f.Kind == FieldImage {
			continue
		}
		if v, ok := values[f.Name]; ok {
			values[f.Name] = s.sanitizer.SanitizeText(v)
		}
	}
	return Submission{Values: values, Files: sub.Files}
}

// buildBody はサニタイズ済みのフォーム値をmultipartボディに変換する。
// セッションのユーザーIDをuser_idとして付与する。
func (s *Service) buildBody(def *Definition, sess *model.Session, sub Submission) apiclient.MultipartBody {
	body := apiclient.MultipartBody{Fields: url.Values{}}
	body.Fields.Set("user_id", sess.UserID)

	for _, f := range def.Fields {
		if f.Kind == FieldImage {
			upload := sub.File(f.Name)
			if upload == nil || len(upload.Data) == 0 {
				continue
			}
			body.Files = append(body.Files, apiclient.File{
				Field:       f.Name,
				Filename:    upload.Filename,
				ContentType: upload.ContentType,
				Data:        upload.Data,
			})
			continue
		}
		body.Fields.Set(f.Name, sub.Value(f.Name))
	}
	return body
}

// classify はAPI呼び出しの失敗をユーザー向けの*model.APIErrorに変換する。
func (s *Service) classify(ctx context.Context, op string, err error) *model.APIError {
	var apiErr *model.APIError
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case apiclient.IsUnauthorized(err):
		apiErr = model.NewUnauthorizedError()
	case apiclient.IsTransport(err):
		apiErr = model.NewUpstreamUnavailableError()
	default:
		apiErr = model.NewUpstreamFailedError()
	}

	slog.WarnContext(ctx, "resource request failed",
		slog.String("op", op),
		slog.String("kind", apiclient.KindOf(err).String()),
		slog.String("code", apiErr.Code),
		slog.String("error", err.Error()),
	)
	return apiErr
}
