package handler

import "net/http"

// DashboardHandler は管理画面トップのHTTPハンドラー。
type DashboardHandler struct {
	renderer *Renderer
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(renderer *Renderer) *DashboardHandler {
	return &DashboardHandler{renderer: renderer}
}

// Show はリソース画面へのリンクとログインユーザーを表示する。
// GET /admin
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, r, http.StatusOK, pageDashboard, &PageData{
		Title:  "Dashboard",
		Active: "dashboard",
	})
}
