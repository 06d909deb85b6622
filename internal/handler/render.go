package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/hitoshi/adminconsole/internal/middleware"
	"github.com/hitoshi/adminconsole/internal/model"
	"github.com/hitoshi/adminconsole/internal/resource"
)

//go:embed templates/*.html
var templateFS embed.FS

// ページテンプレート名。
const (
	pageLogin     = "login.html"
	pageDashboard = "dashboard.html"
	pageResource  = "resource_list.html"
)

// PageData は全ページ共通のテンプレートデータ。
type PageData struct {
	Title     string
	CSRFToken string
	Session   *model.Session
	Flash     *Flash
	Menu      []*resource.Definition
	Active    string
	Content   any
}

// Renderer はlayout.htmlと各ページテンプレートを組み合わせて描画する。
type Renderer struct {
	pages map[string]*template.Template
	menu  []*resource.Definition
}

// NewRenderer は埋め込みテンプレートを解析してRendererを生成する。
// menuはナビゲーションに表示するリソース定義。
func NewRenderer(menu []*resource.Definition) (*Renderer, error) {
	funcMap := template.FuncMap{
		"fieldError": func(errs map[string]string, name string) string {
			return errs[name]
		},
	}

	rd := &Renderer{
		pages: make(map[string]*template.Template),
		menu:  menu,
	}
	for _, page := range []string{pageLogin, pageDashboard, pageResource} {
		tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		rd.pages[page] = tpl
	}
	return rd, nil
}

// Render はページを描画する。
// 描画結果はバッファしてから書き込むため、テンプレートエラー時は500を返せる。
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data *PageData) {
	tpl, ok := rd.pages[page]
	if !ok {
		slog.ErrorContext(r.Context(), "unknown template", slog.String("page", page))
		middleware.WriteInternalServerError(w, r)
		return
	}

	data.CSRFToken = middleware.CSRFTokenFromContext(r.Context())
	if data.Session == nil {
		data.Session, _ = middleware.SessionFromContext(r.Context())
	}
	if data.Flash == nil {
		data.Flash = popFlash(w, r)
	}
	if data.Session != nil {
		data.Menu = rd.menu
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		slog.ErrorContext(r.Context(), "failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
