// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// APIクライアント、認証・リソースサービス、HTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordAPICall(op, outcome string, duration time.Duration)
	RecordLogin(outcome string)
	RecordValidationFailure(resource string)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	apiCalls           *prometheus.CounterVec
	apiLatency         *prometheus.HistogramVec
	logins             *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	httpStatus         *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adminconsole_api_calls_total",
			Help: "リモートAPI呼び出しの合計数（操作・結果別）",
		}, []string{"op", "outcome"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "adminconsole_api_latency_seconds",
			Help:    "リモートAPI呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adminconsole_logins_total",
			Help: "ログイン試行の合計数（結果別）",
		}, []string{"outcome"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adminconsole_validation_failures_total",
			Help: "フォーム検証で送信が止められた回数",
		}, []string{"resource"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adminconsole_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.apiCalls,
		c.apiLatency,
		c.logins,
		c.validationFailures,
		c.httpStatus,
	)

	return c
}

// RecordAPICall はリモートAPI呼び出しの結果とレイテンシを記録する。
func (c *Collector) RecordAPICall(op, outcome string, duration time.Duration) {
	c.apiCalls.WithLabelValues(op, outcome).Inc()
	c.apiLatency.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordLogin はログイン試行の結果を記録する。
func (c *Collector) RecordLogin(outcome string) {
	c.logins.WithLabelValues(outcome).Inc()
}

// RecordValidationFailure は検証エラーで止められた送信を記録する。
func (c *Collector) RecordValidationFailure(resource string) {
	c.validationFailures.WithLabelValues(resource).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
