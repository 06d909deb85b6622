// Package telemetry はOpenTelemetryのトレース送信を設定する。
// 受信リクエストとリモートAPIへの送信リクエストのスパンをOTLP/HTTPで送る。
package telemetry

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ServiceName はトレースに記録するサービス名。
const ServiceName = "adminconsole"

// Config はトレース送信の設定。
type Config struct {
	Endpoint       string // OTLP HTTPエンドポイント（例: localhost:4318）。空の場合は送信しない
	Insecure       bool
	ServiceVersion string
}

// ShutdownFunc は未送信のスパンを送信してエクスポーターを閉じる。
type ShutdownFunc func(ctx context.Context) error

// Setup はグローバルなTracerProviderとプロパゲーターを設定する。
// Endpointが空の場合は何も設定せず、何もしないShutdownFuncを返す。
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if cfg.Endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	attrs := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(ServiceName)),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(cfg.ServiceVersion)))
	}
	res, err := resource.New(ctx, attrs...)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Shutdown, nil
}

// WrapHandler は受信リクエストごとにスパンを開始するハンドラーを返す。
func WrapHandler(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, ServiceName)
}

// NewHTTPClient は送信リクエストにスパンとトレースヘッダーを付与するHTTPクライアントを返す。
// timeoutが0の場合はタイムアウトを設定しない。
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
