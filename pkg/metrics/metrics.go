// Package metrics 提供 Prometheus helper，包含常用 counter/gauge/histogram 模板
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wyfcoding/loanloey/pkg/logger"
)

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 业务指标
	LoansApplied       prometheus.Counter
	LoansCompleted     prometheus.Counter
	LoansOverdue       prometheus.Counter
	PaymentsSubmitted  prometheus.Counter
	PaymentsDecided    *prometheus.CounterVec
	AccountsRegistered prometheus.Counter
	AccountsDeleted    prometheus.Counter
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loanloey",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "loanloey",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		LoansApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loanloey",
			Subsystem: serviceName,
			Name:      "loans_applied_total",
			Help:      "Total loans applied",
		}),
		LoansCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loanloey",
			Subsystem: serviceName,
			Name:      "loans_completed_total",
			Help:      "Total loans completed",
		}),
		LoansOverdue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loanloey",
			Subsystem: serviceName,
			Name:      "loans_overdue_total",
			Help:      "Total loans transitioned to overdue",
		}),
		PaymentsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loanloey",
			Subsystem: serviceName,
			Name:      "payments_submitted_total",
			Help:      "Total payment receipts submitted",
		}),
		PaymentsDecided: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "loanloey",
			Subsystem: serviceName,
			Name:      "payments_decided_total",
			Help:      "Total payment decisions",
		}, []string{"action"}),
		AccountsRegistered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loanloey",
			Subsystem: serviceName,
			Name:      "accounts_registered_total",
			Help:      "Total accounts registered",
		}),
		AccountsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "loanloey",
			Subsystem: serviceName,
			Name:      "accounts_deleted_total",
			Help:      "Total accounts deleted",
		}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LoansApplied,
		m.LoansCompleted,
		m.LoansOverdue,
		m.PaymentsSubmitted,
		m.PaymentsDecided,
		m.AccountsRegistered,
		m.AccountsDeleted,
	)

	return m
}

// ExposeHTTP 在独立端口暴露 /metrics
func (m *Metrics) ExposeHTTP(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "metrics server starting", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error(context.Background(), "metrics server stopped", "error", err)
	}
}
