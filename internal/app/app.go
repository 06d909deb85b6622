package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/adminconsole/internal/apiclient"
	"github.com/hitoshi/adminconsole/internal/asset"
	"github.com/hitoshi/adminconsole/internal/auth"
	"github.com/hitoshi/adminconsole/internal/config"
	"github.com/hitoshi/adminconsole/internal/handler"
	"github.com/hitoshi/adminconsole/internal/logger"
	"github.com/hitoshi/adminconsole/internal/metrics"
	"github.com/hitoshi/adminconsole/internal/middleware"
	"github.com/hitoshi/adminconsole/internal/resource"
	"github.com/hitoshi/adminconsole/internal/security"
	"github.com/hitoshi/adminconsole/internal/session"
	"github.com/hitoshi/adminconsole/internal/telemetry"
)

// Version はビルド時に-ldflagsで埋め込まれるバージョン。
var Version = "dev"

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたログレベルで再構成する
	logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("version", Version),
		slog.String("port", cfg.ServerPort),
		slog.String("api_base_url", cfg.APIBaseURL),
		slog.String("session_store", cfg.SessionStore),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runServe(ctx, cfg)
}

// application は構築済みのHTTPハンドラーと、終了時に解放するリソースを保持する。
type application struct {
	handler http.Handler
	closers []func(ctx context.Context) error
}

// Close は登録と逆順にリソースを解放する。
func (a *application) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *application) onClose(fn func(ctx context.Context) error) {
	a.closers = append(a.closers, fn)
}

// newApplication は全依存関係をワイヤリングしてHTTPハンドラーを構築する。
// 失敗した場合はそれまでに確保したリソースを解放してエラーを返す。
func newApplication(ctx context.Context, cfg *config.Config) (_ *application, err error) {
	app := &application{}
	defer func() {
		if err != nil {
			app.Close(context.Background())
		}
	}()

	// 1. トレース
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Endpoint:       cfg.OTelEndpoint,
		Insecure:       cfg.OTelInsecure,
		ServiceVersion: Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	app.onClose(shutdownTracing)

	// 2. メトリクス
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(registry)

	// 3. リモートAPIクライアント
	client := apiclient.NewClient(telemetry.NewHTTPClient(cfg.APITimeout), slog.Default(), apiclient.ClientConfig{
		BaseURL:   cfg.APIBaseURL,
		LoginPath: cfg.APILoginPath,
		Recorder:  collector,
	})

	// 4. セッションストア
	var (
		store         session.Store
		healthChecker handler.HealthChecker
	)
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		redisStore, err := session.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.onClose(func(context.Context) error { return redisStore.Close() })
		store = redisStore
		healthChecker = redisStore
		slog.Info("redis session store connected")
	default:
		memoryStore := session.NewMemoryStore(time.Minute)
		app.onClose(func(context.Context) error { memoryStore.Stop(); return nil })
		store = memoryStore
	}

	// 5. ドメインサービス
	authService := auth.NewService(client, store, collector, auth.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
	})
	resourceService := resource.NewService(client, security.NewTextSanitizer(), collector, resource.ServiceConfig{
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	views := resource.NewViewCache(time.Duration(cfg.SessionMaxAge) * time.Second)
	app.onClose(func(context.Context) error { views.Stop(); return nil })

	// 6. 画像URL
	assets, err := newAssetResolver(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// 7. ルーターの構築
	limiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitLogin))
	app.onClose(func(context.Context) error { limiter.Stop(); return nil })

	router, err := handler.NewRouter(&handler.RouterDeps{
		Logger:         slog.Default(),
		StatusRecorder: collector,
		SessionFinder:  authService,
		RateLimiter:    limiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure:    cfg.CookieSecure,
			CookieDomain:    cfg.CookieDomain,
			MultipartMemory: cfg.MaxUploadBytes,
		},
		// アップロード本体とmultipartのオーバーヘッド分
		MaxBodyBytes: cfg.MaxUploadBytes + 1<<20,

		HealthChecker:  healthChecker,
		MetricsHandler: metrics.Handler(registry),

		AuthService: authService,
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain:  cfg.CookieDomain,
			CookieSecure:  cfg.CookieSecure,
			SessionMaxAge: cfg.SessionMaxAge,
		},

		Registry:        resource.DefaultRegistry(),
		Views:           views,
		ResourceService: resourceService,
		ResourceConfig: handler.ResourceHandlerConfig{
			PageSize:       cfg.PageSize,
			MaxUploadBytes: cfg.MaxUploadBytes,
			CookieSecure:   cfg.CookieSecure,
		},
		Assets: assets,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build router: %w", err)
	}

	app.handler = telemetry.WrapHandler(router)
	return app, nil
}

// newAssetResolver はASSET_PRESIGNに応じて画像URLの解決方法を選ぶ。
func newAssetResolver(ctx context.Context, cfg *config.Config) (asset.Resolver, error) {
	public := asset.NewPublicResolver(cfg.AssetBaseURL)
	if !cfg.AssetPresign {
		return public, nil
	}

	presigner, err := asset.NewS3Presigner(ctx, asset.S3Config{
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 presigner: %w", err)
	}
	slog.Info("asset urls are presigned",
		slog.String("bucket", cfg.S3Bucket),
		slog.Duration("ttl", cfg.AssetPresignTTL),
	)
	return asset.NewPresignResolver(presigner, cfg.S3Bucket, cfg.AssetPresignTTL, public), nil
}

// runServe は管理画面サーバーを起動する。
// ctxがキャンセルされるとグレースフルシャットダウンを行う。
func runServe(ctx context.Context, cfg *config.Config) error {
	app, err := newApplication(ctx, cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      app.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("admin console starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			app.Close(context.Background())
			return fmt.Errorf("server listen error: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down admin console...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := app.Close(shutdownCtx); err != nil {
		slog.Warn("failed to release resources", slog.String("error", err.Error()))
	}

	slog.Info("admin console stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}
