package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/adminconsole/internal/asset"
	"github.com/hitoshi/adminconsole/internal/middleware"
	"github.com/hitoshi/adminconsole/internal/resource"
)

// ViewStore はセッションごとの画面状態の取得と破棄を行う。resource.ViewCacheが実装する。
type ViewStore interface {
	ViewProvider
	ViewDropper
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger         *slog.Logger
	StatusRecorder middleware.StatusRecorder
	SessionFinder  middleware.SessionFinder
	RateLimiter    *middleware.RateLimiter
	CSRFConfig     middleware.CSRFConfig
	MaxBodyBytes   int64

	// 運用エンドポイント
	HealthChecker  HealthChecker
	MetricsHandler http.Handler

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// リソース画面
	Registry        *resource.Registry
	Views           ViewStore
	ResourceService ResourceServiceInterface
	ResourceConfig  ResourceHandlerConfig
	Assets          asset.Resolver
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RealIP → Logging → SecurityHeaders → BodyLimit → CSRF → Session → RateLimit(General)
//
// /healthと/metricsはBodyLimit以降のチェーンの外に配置する。
func NewRouter(deps *RouterDeps) (http.Handler, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	renderer, err := NewRenderer(deps.Registry.All())
	if err != nil {
		return nil, fmt.Errorf("failed to build renderer: %w", err)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Views, renderer, deps.AuthConfig)
	dashboardHandler := NewDashboardHandler(renderer)
	resourceHandler := NewResourceHandler(
		deps.ResourceService, deps.Registry, deps.Views, deps.Assets,
		authHandler, renderer, deps.ResourceConfig,
	)

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(chimw.RealIP)
	r.Use(middleware.NewLoggingMiddleware(logger, deps.StatusRecorder))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	// --- 運用エンドポイント ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewBodyLimitMiddleware(deps.MaxBodyBytes))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		})

		// --- 認証不要のルート ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewOptionalSessionMiddleware(deps.SessionFinder))

			r.Get(loginPath, authHandler.LoginPage)
			r.With(deps.RateLimiter.LoginMiddleware()).Post(loginPath, authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		// --- 認証が必要なルート ---
		// ミドルウェアスタック: Session → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, loginPath))
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Get(dashboardPath, dashboardHandler.Show)

			r.Route("/admin/{resource}", func(r chi.Router) {
				r.Get("/", resourceHandler.List)
				r.Post("/", resourceHandler.Create)
				r.Post("/{id}", resourceHandler.Update)
				r.Post("/{id}/delete", resourceHandler.Delete)
			})
		})
	})

	return r, nil
}
