// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	mutationOutcome *prometheus.CounterVec
	loginOutcome    *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		mutationOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billman_invoice_mutation_total",
			Help: "請求書ミューテーションの操作別・結果別の合計数",
		}, []string{"operation", "outcome"}),
		loginOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billman_login_total",
			Help: "ログイン試行の結果別の合計数",
		}, []string{"outcome"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "billman_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.mutationOutcome,
		c.loginOutcome,
		c.httpStatus,
	)

	return c
}

// RecordMutation は請求書ミューテーションの結果を記録する。
// operationはcreate/update、outcomeはcommitted/validation_failed/persist_error。
func (c *Collector) RecordMutation(operation, outcome string) {
	c.mutationOutcome.WithLabelValues(operation, outcome).Inc()
}

// RecordLogin はログイン試行の結果を記録する。
// outcomeはsuccess/invalid_credentials/system_error。
func (c *Collector) RecordLogin(outcome string) {
	c.loginOutcome.WithLabelValues(outcome).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
