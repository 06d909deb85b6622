package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/adminconsole/internal/asset"
	"github.com/hitoshi/adminconsole/internal/middleware"
	"github.com/hitoshi/adminconsole/internal/model"
	"github.com/hitoshi/adminconsole/internal/resource"
	"github.com/hitoshi/adminconsole/internal/validation"
)

// ResourceServiceInterface はリソース画面ハンドラーが必要とするサービスインターフェース。
type ResourceServiceInterface interface {
	Fetch(ctx context.Context, sess *model.Session, view *resource.View) ([]model.Record, error)
	Load(ctx context.Context, sess *model.Session, view *resource.View) ([]model.Record, error)
	Submit(ctx context.Context, sess *model.Session, view *resource.View, kind resource.ModalKind, recordID string, sub resource.Submission) (validation.Errors, error)
}

// ViewProvider はセッションごとの画面状態を提供する。resource.ViewCacheが実装する。
type ViewProvider interface {
	Get(sessionID string, def *resource.Definition) *resource.View
}

// SessionExpirer はリモートAPIがトークンを拒否した場合にセッションを終了させる。
type SessionExpirer interface {
	Expire(w http.ResponseWriter, r *http.Request)
}

// ResourceHandlerConfig はリソース画面ハンドラーの設定。
type ResourceHandlerConfig struct {
	PageSize       int
	MaxUploadBytes int64
	CookieSecure   bool
}

// ResourceHandler はリソース一覧とモーダルのHTTPハンドラー。
type ResourceHandler struct {
	service  ResourceServiceInterface
	registry *resource.Registry
	views    ViewProvider
	assets   asset.Resolver
	expirer  SessionExpirer
	renderer *Renderer
	config   ResourceHandlerConfig
}

// NewResourceHandler はResourceHandlerを生成する。
func NewResourceHandler(
	service ResourceServiceInterface,
	registry *resource.Registry,
	views ViewProvider,
	assets asset.Resolver,
	expirer SessionExpirer,
	renderer *Renderer,
	config ResourceHandlerConfig,
) *ResourceHandler {
	if config.PageSize < 1 {
		config.PageSize = 5
	}
	return &ResourceHandler{
		service:  service,
		registry: registry,
		views:    views,
		assets:   assets,
		expirer:  expirer,
		renderer: renderer,
		config:   config,
	}
}

// List は一覧を表示する。
// modalクエリがない場合はモーダルを閉じてコレクション全体を再取得する。
// modalクエリがある場合は写しを使い、無効なときのみ再取得する。
// GET /admin/{resource}?page=N&modal=create|edit|delete&id=ID
func (h *ResourceHandler) List(w http.ResponseWriter, r *http.Request) {
	def, sess, view, ok := h.resolve(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	pageNum := parsePage(query.Get("page"))

	modalParam := query.Get("modal")
	if modalParam == "" {
		view.Modal.Close()
		records, err := h.service.Fetch(r.Context(), sess, view)
		h.renderList(w, r, http.StatusOK, def, records, err, pageNum, nil, nil)
		return
	}

	kind, valid := resource.ParseModalKind(modalParam)
	if !valid {
		middleware.WriteErrorResponse(w, r, http.StatusBadRequest, model.NewBadRequestError())
		return
	}

	records, err := h.service.Load(r.Context(), sess, view)
	if err != nil {
		h.renderList(w, r, http.StatusOK, def, records, err, pageNum, nil, nil)
		return
	}

	record := model.Record{}
	if kind.NeedsRecord() {
		id := query.Get("id")
		found, exists := view.Mirror.Find(id)
		if !exists {
			h.renderList(w, r, http.StatusNotFound, def, records, nil, pageNum, nil,
				&Flash{Kind: FlashError, Message: model.NewRecordNotFoundError(id).Message})
			return
		}
		record = found
	}

	modal := buildModal(r.Context(), def, kind, record, nil, nil, pageNum, h.assets)
	h.renderList(w, r, http.StatusOK, def, records, nil, pageNum, modal, nil)
}

// Create は作成モーダルを送信する。
// POST /admin/{resource}
func (h *ResourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, resource.ModalCreate, "")
}

// Update は編集モーダルを送信する。
// POST /admin/{resource}/{id}
func (h *ResourceHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, resource.ModalEdit, chi.URLParam(r, "id"))
}

// Delete は削除モーダルを送信する。
// POST /admin/{resource}/{id}/delete
func (h *ResourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, resource.ModalDelete, chi.URLParam(r, "id"))
}

// submit はモーダルの送信を処理する。
// 成功時はトーストを設定して一覧へリダイレクトし、一覧は再取得される。
// 失敗時はモーダルを開いたまま入力値を保持して再表示する。
func (h *ResourceHandler) submit(w http.ResponseWriter, r *http.Request, kind resource.ModalKind, recordID string) {
	def, sess, view, ok := h.resolve(w, r)
	if !ok {
		return
	}

	pageNum := parsePage(r.FormValue("page"))

	sub, err := h.parseSubmission(r, def, kind)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			middleware.WriteErrorResponse(w, r, http.StatusRequestEntityTooLarge, model.NewRequestTooLargeError(maxBytesErr.Limit))
			return
		}
		slog.WarnContext(r.Context(), "failed to parse submission",
			slog.String("resource", def.Name),
			slog.String("error", err.Error()),
		)
		middleware.WriteErrorResponse(w, r, http.StatusBadRequest, model.NewBadRequestError())
		return
	}

	fieldErrs, err := h.service.Submit(r.Context(), sess, view, kind, recordID, sub)

	switch {
	case err == nil && fieldErrs.Empty():
		setFlash(w, h.config.CookieSecure, FlashSuccess, msgOperationSuccess)
		http.Redirect(w, r, listURL(def, pageNum), http.StatusSeeOther)
		return

	case err == nil:
		h.rerender(w, r, http.StatusUnprocessableEntity, def, sess, view, kind, recordID, &sub, fieldErrs, pageNum, nil)
		return

	case errors.Is(err, resource.ErrSubmitInProgress):
		h.rerender(w, r, http.StatusConflict, def, sess, view, kind, recordID, &sub, nil, pageNum,
			&Flash{Kind: FlashError, Message: model.NewSubmitInProgressError().Message})
		return
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		slog.ErrorContext(r.Context(), "submission failed",
			slog.String("resource", def.Name),
			slog.String("action", string(kind)),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w, r)
		return
	}

	if apiErr.Code == model.ErrCodeUnauthorized {
		h.expirer.Expire(w, r)
		return
	}

	h.rerender(w, r, http.StatusBadGateway, def, sess, view, kind, recordID, &sub, nil, pageNum,
		&Flash{Kind: FlashError, Message: apiErr.Message})
}

// rerender は送信失敗後にモーダルを開いたまま一覧を再表示する。
func (h *ResourceHandler) rerender(
	w http.ResponseWriter, r *http.Request, status int,
	def *resource.Definition, sess *model.Session, view *resource.View,
	kind resource.ModalKind, recordID string, sub *resource.Submission,
	fieldErrs validation.Errors, pageNum int, flash *Flash,
) {
	records, err := h.service.Load(r.Context(), sess, view)
	if err != nil {
		h.renderList(w, r, status, def, records, err, pageNum, nil, flash)
		return
	}

	record, _ := view.Mirror.Find(recordID)
	record.ID = recordID
	modal := buildModal(r.Context(), def, kind, record, sub, fieldErrs, pageNum, h.assets)
	h.renderList(w, r, status, def, records, nil, pageNum, modal, flash)
}

// renderList は一覧画面を描画する。取得エラーがある場合は一覧の代わりにエラーを表示する。
func (h *ResourceHandler) renderList(
	w http.ResponseWriter, r *http.Request, status int,
	def *resource.Definition, records []model.Record, fetchErr error,
	pageNum int, modal *modalView, flash *Flash,
) {
	if fetchErr != nil {
		var apiErr *model.APIError
		if errors.As(fetchErr, &apiErr) && apiErr.Code == model.ErrCodeUnauthorized {
			h.expirer.Expire(w, r)
			return
		}
		if apiErr == nil {
			apiErr = model.NewUpstreamFailedError()
		}
		lp := buildListPage(r.Context(), def, nil, 1, h.config.PageSize, h.assets)
		lp.Error = "Error: " + apiErr.Message
		h.renderer.Render(w, r, status, pageResource, &PageData{
			Title:   def.Title,
			Active:  def.Name,
			Flash:   flash,
			Content: lp,
		})
		return
	}

	lp := buildListPage(r.Context(), def, records, pageNum, h.config.PageSize, h.assets)
	lp.Modal = modal
	h.renderer.Render(w, r, status, pageResource, &PageData{
		Title:   def.Title,
		Active:  def.Name,
		Flash:   flash,
		Content: lp,
	})
}

// resolve はURLのリソースとセッションから対象のViewを取得する。
func (h *ResourceHandler) resolve(w http.ResponseWriter, r *http.Request) (*resource.Definition, *model.Session, *resource.View, bool) {
	name := chi.URLParam(r, "resource")
	def, ok := h.registry.Get(name)
	if !ok {
		middleware.WriteErrorResponse(w, r, http.StatusNotFound, model.NewResourceNotFoundError(name))
		return nil, nil, nil, false
	}

	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return nil, nil, nil, false
	}

	return def, sess, h.views.Get(sess.ID, def), true
}

// parseSubmission はフォームからリソース定義のフィールドを読み取る。
// 画像は上限+1バイトまで読み込み、サイズ超過は検証で検出する。
func (h *ResourceHandler) parseSubmission(r *http.Request, def *resource.Definition, kind resource.ModalKind) (resource.Submission, error) {
	sub := resource.Submission{
		Values: make(map[string]string),
		Files:  make(map[string]*validation.Upload),
	}
	if kind == resource.ModalDelete {
		return sub, nil
	}

	if err := ensureFormParsed(r); err != nil {
		return sub, err
	}

	for _, f := range def.Fields {
		if f.Kind != resource.FieldImage {
			sub.Values[f.Name] = r.FormValue(f.Name)
			continue
		}
		if r.MultipartForm == nil {
			continue
		}
		file, header, err := r.FormFile(f.Name)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			return sub, fmt.Errorf("read %s: %w", f.Name, err)
		}
		upload, err := readUpload(file, header, h.config.MaxUploadBytes)
		file.Close()
		if err != nil {
			return sub, fmt.Errorf("read %s: %w", f.Name, err)
		}
		sub.Files[f.Name] = upload
	}
	return sub, nil
}

// ensureFormParsed はCSRFミドルウェアで未解析の場合にフォームを解析する。
func ensureFormParsed(r *http.Request) error {
	if r.MultipartForm != nil || r.PostForm != nil {
		return nil
	}
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(8 << 20)
	}
	return r.ParseForm()
}

func readUpload(file multipart.File, header *multipart.FileHeader, maxBytes int64) (*validation.Upload, error) {
	var reader io.Reader = file
	if maxBytes > 0 {
		reader = io.LimitReader(file, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	return &validation.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func parsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
